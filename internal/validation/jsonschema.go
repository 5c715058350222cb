package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/tree"
)

const documentSchemaURL = "https://wfkit.dev/schemas/workflow.json"

// documentSchemaJSON describes a rendered workflow document.
const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://wfkit.dev/schemas/workflow.json",
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": { "type": "string", "minLength": 1 },
    "on": { "type": "object", "minProperties": 1 },
    "permissions": { "$ref": "#/$defs/permissions" },
    "env": { "$ref": "#/$defs/env" },
    "defaults": { "$ref": "#/$defs/defaults" },
    "concurrency": { "$ref": "#/$defs/concurrency" },
    "jobs": {
      "type": "object",
      "propertyNames": { "pattern": "^[A-Za-z_][A-Za-z0-9_-]*$" },
      "additionalProperties": { "$ref": "#/$defs/job" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "expression": { "type": "string", "pattern": "^\\$\\{\\{.*\\}\\}$" },
    "numberOrExpression": {
      "oneOf": [{ "type": "number" }, { "$ref": "#/$defs/expression" }]
    },
    "boolOrExpression": {
      "oneOf": [{ "type": "boolean" }, { "$ref": "#/$defs/expression" }]
    },
    "condition": { "type": ["string", "boolean"] },
    "stringList": {
      "oneOf": [
        { "type": "string", "minLength": 1 },
        { "type": "array", "minItems": 1, "items": { "type": "string" } }
      ]
    },
    "permissions": {
      "oneOf": [
        { "enum": ["read-all", "write-all"] },
        { "$ref": "#/$defs/expression" },
        { "type": "object", "additionalProperties": { "enum": ["read", "write", "none"] } }
      ]
    },
    "env": {
      "type": "object",
      "additionalProperties": { "type": ["string", "number", "boolean"] }
    },
    "defaults": {
      "type": "object",
      "properties": {
        "run": {
          "type": "object",
          "properties": {
            "shell": { "type": "string" },
            "working-directory": { "type": "string" }
          },
          "additionalProperties": false
        }
      },
      "additionalProperties": false
    },
    "concurrency": {
      "oneOf": [
        { "type": "string" },
        {
          "type": "object",
          "required": ["group"],
          "properties": {
            "group": { "type": "string" },
            "cancel-in-progress": { "$ref": "#/$defs/boolOrExpression" }
          },
          "additionalProperties": false
        }
      ]
    },
    "container": {
      "oneOf": [
        { "type": "string" },
        {
          "type": "object",
          "required": ["image"],
          "properties": {
            "image": { "type": "string" },
            "credentials": {
              "type": "object",
              "properties": {
                "username": { "type": "string" },
                "password": { "type": "string" }
              },
              "additionalProperties": false
            },
            "env": { "$ref": "#/$defs/env" },
            "ports": { "type": "array", "items": { "type": ["string", "number"] } },
            "volumes": { "type": "array", "items": { "type": "string" } },
            "options": { "type": "string" }
          },
          "additionalProperties": false
        }
      ]
    },
    "job": {
      "type": "object",
      "properties": {
        "name": { "type": "string" },
        "permissions": { "$ref": "#/$defs/permissions" },
        "needs": { "$ref": "#/$defs/stringList" },
        "if": { "$ref": "#/$defs/condition" },
        "runs-on": {
          "oneOf": [
            { "$ref": "#/$defs/stringList" },
            {
              "type": "object",
              "properties": {
                "group": { "type": "string" },
                "labels": { "$ref": "#/$defs/stringList" }
              },
              "additionalProperties": false
            }
          ]
        },
        "environment": {
          "oneOf": [
            { "type": "string" },
            {
              "type": "object",
              "required": ["name"],
              "properties": { "name": { "type": "string" }, "url": { "type": "string" } },
              "additionalProperties": false
            }
          ]
        },
        "concurrency": { "$ref": "#/$defs/concurrency" },
        "outputs": { "type": "object", "additionalProperties": { "type": "string" } },
        "env": { "$ref": "#/$defs/env" },
        "defaults": { "$ref": "#/$defs/defaults" },
        "timeout-minutes": { "$ref": "#/$defs/numberOrExpression" },
        "strategy": {
          "type": "object",
          "properties": {
            "matrix": {
              "oneOf": [
                { "$ref": "#/$defs/expression" },
                {
                  "type": "object",
                  "minProperties": 1,
                  "properties": {
                    "include": { "type": "array", "items": { "type": "object" } },
                    "exclude": { "type": "array", "items": { "type": "object" } }
                  },
                  "additionalProperties": {
                    "oneOf": [{ "type": "array", "minItems": 1 }, { "$ref": "#/$defs/expression" }]
                  }
                }
              ]
            },
            "fail-fast": { "$ref": "#/$defs/boolOrExpression" },
            "max-parallel": { "$ref": "#/$defs/numberOrExpression" }
          },
          "additionalProperties": false
        },
        "max-parallel": { "$ref": "#/$defs/numberOrExpression" },
        "continue-on-error": { "$ref": "#/$defs/boolOrExpression" },
        "container": { "$ref": "#/$defs/container" },
        "services": { "type": "object", "additionalProperties": { "$ref": "#/$defs/container" } },
        "uses": { "type": "string", "minLength": 1 },
        "with": { "type": "object" },
        "secrets": {
          "oneOf": [{ "const": "inherit" }, { "type": "object" }]
        },
        "steps": { "type": "array", "minItems": 1, "items": { "$ref": "#/$defs/step" } }
      },
      "additionalProperties": false
    },
    "step": {
      "type": "object",
      "properties": {
        "if": { "$ref": "#/$defs/condition" },
        "id": { "type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_-]*$" },
        "name": { "type": "string" },
        "uses": { "type": "string", "minLength": 1 },
        "run": { "type": "string", "minLength": 1 },
        "shell": { "type": "string" },
        "working-directory": { "type": "string" },
        "with": { "type": "object" },
        "env": { "$ref": "#/$defs/env" },
        "continue-on-error": { "$ref": "#/$defs/boolOrExpression" },
        "timeout-minutes": { "$ref": "#/$defs/numberOrExpression" }
      },
      "oneOf": [{ "required": ["uses"] }, { "required": ["run"] }],
      "additionalProperties": false
    }
  }
}`

// StructuralValidator checks rendered documents against the document
// schema. It is safe for concurrent use.
type StructuralValidator struct {
	documentSchema *jsonschema.Schema
}

// NewStructuralValidator compiles the document schema.
func NewStructuralValidator() (*StructuralValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal document schema: %w", err)
	}
	if err := c.AddResource(documentSchemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("add document schema resource: %w", err)
	}
	compiled, err := c.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}
	return &StructuralValidator{documentSchema: compiled}, nil
}

// Validate reports every schema violation of a rendered document.
func (v *StructuralValidator) Validate(doc *tree.Map) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	value, err := toJSONValue(doc)
	if err != nil {
		result.AddError("", schema.ErrCodeStructural, "failed to serialize document: "+err.Error())
		return result
	}
	err = v.documentSchema.Validate(value)
	if err == nil {
		return result
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.AddError("", schema.ErrCodeStructural, err.Error())
		return result
	}
	for _, violation := range collectViolations(verr) {
		result.AddError(violation.path, schema.ErrCodeStructural, violation.message)
	}
	return result
}

// toJSONValue round-trips the document through JSON so numbers become
// json.Number, as the jsonschema library requires.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

type violation struct {
	path    string
	message string
}

// collectViolations walks a ValidationError tree and collects leaf errors
// with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []violation {
	if len(verr.Causes) == 0 {
		return []violation{{path: instancePath(verr.InstanceLocation), message: verr.Error()}}
	}
	var out []violation
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}

// instancePath renders a JSON pointer location as jobs.build.steps[0].
func instancePath(loc []string) string {
	var b strings.Builder
	for _, seg := range loc {
		if isIndex(seg) {
			b.WriteString("[" + seg + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
