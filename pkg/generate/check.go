package generate

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/rendis/wfkit/internal/logging"
	"github.com/rendis/wfkit/internal/yamlout"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/workflow"
)

// Diff labels used in Check output.
const (
	ExpectedLabel = "expected"
	ActualLabel   = "actual"
)

// Check compares the rendered workflows with the *.yml files in the output
// directory. Both sides go through the same YAML normalization, so comments
// and formatting do not count. The result is a unified diff; an empty
// string means the directory is up to date.
func Check(ctx context.Context, workflows []*workflow.Workflow, opts Options) (string, error) {
	opts = opts.withDefaults()
	ctx = logging.Into(ctx, logging.Scope{Run: uuid.NewString()})
	log := logging.For(ctx, opts.Logger)

	files, err := Render(workflows, opts)
	if err != nil {
		return "", err
	}
	expected := map[string]string{}
	for _, f := range files {
		norm, err := yamlout.Normalize(f.Content)
		if err != nil {
			return "", schema.NewError(schema.ErrCodeStructural, "generated file does not parse").WithPath(f.Name).WithCause(err)
		}
		expected[f.Name] = string(norm)
	}

	actual, err := readExisting(opts.OutputDir)
	if err != nil {
		return "", err
	}
	for name, data := range actual {
		norm, err := yamlout.Normalize([]byte(data))
		if err != nil {
			log.Warn("existing workflow does not parse, comparing raw text", "file", name, "error", err)
			continue
		}
		actual[name] = string(norm)
	}

	want, got := blob(expected), blob(actual)
	if want == got {
		log.Info("workflows checked", "dir", opts.OutputDir, "files", len(files), "up_to_date", true)
		return "", nil
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: ExpectedLabel,
		ToFile:   ActualLabel,
		Context:  3,
	})
	if err != nil {
		return "", schema.NewError(schema.ErrCodeIO, "diff failed").WithCause(err)
	}
	log.Info("workflows checked", "dir", opts.OutputDir, "files", len(files), "up_to_date", false)
	return diff, nil
}

// readExisting loads *.yml files directly inside dir. A missing directory
// is treated as empty.
func readExisting(dir string) (map[string]string, error) {
	out := map[string]string{}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeIO, "read %s", dir).WithCause(err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeIO, "read %s", e.Name()).WithCause(err)
		}
		out[e.Name()] = string(data)
	}
	return out, nil
}

// blob joins files as "File: <name>\n<content>" sections sorted by name.
func blob(files map[string]string) string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	sections := make([]string, 0, len(names))
	for _, name := range names {
		sections = append(sections, "File: "+name+"\n"+files[name])
	}
	return strings.Join(sections, "\n\n")
}
