// Package yamlout encodes rendered trees as YAML documents with stable
// formatting, and normalizes existing YAML for comparison.
package yamlout

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rendis/wfkit/pkg/tree"
)

const indent = 2

// Marshal encodes a rendered tree value.
func Marshal(v any) ([]byte, error) {
	node, err := ToNode(v)
	if err != nil {
		return nil, err
	}
	return encode(node)
}

// ToNode converts a rendered tree value into a YAML node.
func ToNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case *tree.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			val, err := ToNode(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", pair.Key, err)
			}
			n.Content = append(n.Content, scalar("!!str", pair.Key), val)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range x {
			val, err := ToNode(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			n.Content = append(n.Content, val)
		}
		return n, nil
	case string:
		n := scalar("!!str", x)
		switch {
		case strings.Contains(x, "\n"):
			n.Style = yaml.LiteralStyle
		case oldBools[x]:
			n.Style = yaml.DoubleQuotedStyle
		}
		return n, nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(x)), nil
	case int:
		return scalar("!!int", strconv.Itoa(x)), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(x, 10)), nil
	case uint64:
		return scalar("!!int", strconv.FormatUint(x, 10)), nil
	case float64:
		return scalar("!!float", strconv.FormatFloat(x, 'g', -1, 64)), nil
	case nil:
		return scalar("!!null", "null"), nil
	}
	if tree.IsNull(v) {
		return scalar("!!null", "null"), nil
	}
	// Leftover numeric kinds; the tree never holds anything else.
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return n, nil
}

// oldBools are strings YAML 1.1 parsers read as booleans. They are
// quoted so every parser sees a string.
var oldBools = map[string]bool{}

func init() {
	for _, s := range []string{"y", "yes", "n", "no", "true", "false", "on", "off"} {
		oldBools[s] = true
		oldBools[strings.ToUpper(s)] = true
		oldBools[strings.ToUpper(s[:1])+s[1:]] = true
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func encode(node *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Normalize decodes a YAML document, drops comments and re-encodes it with
// the writer's formatting. Two documents with equal data and key order
// normalize to the same bytes.
func Normalize(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	stripComments(&doc)
	quoteOldBools(&doc)
	return encode(&doc)
}

// quoteOldBools gives boolean-like string values the style Marshal uses.
// Mapping keys are left alone.
func quoteOldBools(n *yaml.Node) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!str" && oldBools[n.Value] {
			n.Style = yaml.DoubleQuotedStyle
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			quoteOldBools(n.Content[i])
		}
	default:
		for _, c := range n.Content {
			quoteOldBools(c)
		}
	}
}

func stripComments(n *yaml.Node) {
	n.HeadComment, n.LineComment, n.FootComment = "", "", ""
	for _, c := range n.Content {
		stripComments(c)
	}
}
