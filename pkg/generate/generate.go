// Package generate turns workflow builders into files on disk and checks
// that committed files are up to date.
package generate

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/rendis/wfkit/internal/logging"
	"github.com/rendis/wfkit/internal/yamlout"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/tree"
	"github.com/rendis/wfkit/pkg/workflow"
)

// DefaultHeader is prefixed to every generated file.
const DefaultHeader = "# This file was generated by wfkit. Do not edit it by hand.\n" +
	"# To update it run: go run ./cmd/wfkit generate\n"

// Options control where and how files are written.
type Options struct {
	// OutputDir defaults to .github/workflows.
	OutputDir string
	// Clean empties OutputDir before writing.
	Clean bool
	// Concurrency bounds parallel writes; 0 means GOMAXPROCS.
	Concurrency int
	// Header replaces DefaultHeader when set.
	Header string
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.OutputDir == "" {
		o.OutputDir = workflow.WorkflowsDir
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.Header == "" {
		o.Header = DefaultHeader
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// File is one rendered workflow file.
type File struct {
	Name        string    `json:"name"`
	Workflow    string    `json:"workflow"`
	Tree        *tree.Map `json:"-"`
	Content     []byte    `json:"-"`
	Fingerprint string    `json:"fingerprint"`
}

// Fingerprint is the blake3 digest of data, prefixed with the algorithm.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return "blake3:" + hex.EncodeToString(sum[:])
}

// Render serializes every workflow without touching disk. Failures from
// all workflows are reported together.
func Render(workflows []*workflow.Workflow, opts Options) ([]File, error) {
	opts = opts.withDefaults()
	var errs []error
	files := make([]File, 0, len(workflows))
	owner := map[string]string{}

	for _, w := range workflows {
		name := w.FileName() + ".yml"
		if prev, dup := owner[name]; dup {
			errs = append(errs, schema.NewErrorf(schema.ErrCodeConflict,
				"workflows %q and %q both render to %s", prev, w.DisplayName(), name).WithPath(name))
			continue
		}
		owner[name] = w.DisplayName()

		m, err := w.Render()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		body, err := yamlout.Marshal(m)
		if err != nil {
			errs = append(errs, schema.NewError(schema.ErrCodeStructural, "encode failed").WithPath(name).WithCause(err))
			continue
		}
		content := append([]byte(opts.Header+"\n"), body...)
		files = append(files, File{
			Name:        name,
			Workflow:    w.DisplayName(),
			Tree:        m,
			Content:     content,
			Fingerprint: Fingerprint(content),
		})
	}
	if err := schema.NewAggregate(schema.ErrCodeStructural,
		fmt.Sprintf("%d of %d workflows failed to render", len(errs), len(workflows)), errs); err != nil {
		return nil, err
	}
	return files, nil
}

// WrittenFile records one file written by Generate.
type WrittenFile struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Bytes       int    `json:"bytes"`
	Fingerprint string `json:"fingerprint"`
}

// Report describes a Generate run.
type Report struct {
	RunID   string        `json:"run_id"`
	Dir     string        `json:"dir"`
	Files   []WrittenFile `json:"files"`
	Removed []string      `json:"removed,omitempty"`
}

// Generate renders every workflow, prepares the output directory and then
// writes all files in parallel. Nothing is written if any workflow fails to
// render. Every write failure is collected into one IO error.
func Generate(ctx context.Context, workflows []*workflow.Workflow, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	runID := uuid.NewString()
	ctx = logging.Into(ctx, logging.Scope{Run: runID})
	log := logging.For(ctx, opts.Logger)

	files, err := Render(workflows, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: runID, Dir: opts.OutputDir}
	if opts.Clean {
		removed, err := emptyDir(opts.OutputDir)
		if err != nil {
			return nil, err
		}
		report.Removed = removed
		log.Debug("output directory cleaned", "dir", opts.OutputDir, "removed", len(removed))
	} else if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeIO, "create %s", opts.OutputDir).WithCause(err)
	}

	written := make([]WrittenFile, len(files))
	errs := make([]error, len(files))
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = schema.NewErrorf(schema.ErrCodeIO, "write %s", f.Name).WithPath(f.Name).WithCause(err)
				return nil
			}
			path := filepath.Join(opts.OutputDir, f.Name)
			if err := os.WriteFile(path, f.Content, 0o644); err != nil {
				errs[i] = schema.NewErrorf(schema.ErrCodeIO, "write %s", path).WithPath(f.Name).WithCause(err)
				return nil
			}
			written[i] = WrittenFile{Name: f.Name, Path: path, Bytes: len(f.Content), Fingerprint: f.Fingerprint}
			logging.For(logging.Into(ctx, logging.Scope{File: f.Name}), opts.Logger).
				Debug("workflow written", "path", path, "fingerprint", f.Fingerprint)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, err)
			continue
		}
		report.Files = append(report.Files, written[i])
	}
	if err := schema.NewAggregate(schema.ErrCodeIO, fmt.Sprintf("failed to write %d of %d files", len(failed), len(files)), failed); err != nil {
		return report, err
	}
	log.Info("workflows generated", "dir", opts.OutputDir, "files", len(report.Files))
	return report, nil
}

// emptyDir removes the contents of dir, creating it if missing.
func emptyDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeIO, "create %s", dir).WithCause(err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeIO, "read %s", dir).WithCause(err)
	}
	var removed, failed []string
	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			failed = append(failed, e.Name())
			errs = append(errs, schema.NewErrorf(schema.ErrCodeIO, "remove %s", e.Name()).WithCause(err))
			continue
		}
		removed = append(removed, e.Name())
	}
	sort.Strings(removed)
	if err := schema.NewAggregate(schema.ErrCodeIO, fmt.Sprintf("failed to clean %d entries of %s", len(failed), dir), errs); err != nil {
		return removed, err
	}
	return removed, nil
}
