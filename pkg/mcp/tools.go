package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/wfkit/internal/diagram"
	"github.com/rendis/wfkit/internal/logging"
	"github.com/rendis/wfkit/internal/query"
	"github.com/rendis/wfkit/internal/validation"
	"github.com/rendis/wfkit/pkg/generate"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/workflow"
)

// workflowSummary is one entry of wfkit.list.
type workflowSummary struct {
	File     string   `json:"file"`
	Name     string   `json:"name"`
	Triggers []string `json:"triggers"`
	Jobs     []string `json:"jobs"`
}

// handleList describes every workflow.
func (s *Server) handleList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := make([]workflowSummary, 0, len(s.workflows))
	for _, w := range s.workflows {
		out = append(out, workflowSummary{
			File:     w.FileName() + ".yml",
			Name:     w.DisplayName(),
			Triggers: nonNil(w.Triggers()),
			Jobs:     nonNil(w.JobIDs()),
		})
	}
	return marshalResult(out)
}

// handleRender returns the YAML of one or all workflows.
func (s *Server) handleRender(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, errResult := s.selection(req.GetString("file", ""))
	if errResult != nil {
		return errResult, nil
	}
	files, err := generate.Render(ws, s.opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}

	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteString("\n")
		}
		if len(files) > 1 {
			fmt.Fprintf(&b, "# File: %s\n", f.Name)
		}
		b.Write(f.Content)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleLint lints one or all workflows.
func (s *Server) handleLint(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file := req.GetString("file", "")
	if _, errResult := s.selection(file); errResult != nil {
		return errResult, nil
	}

	reports := s.linter.LintAll(s.workflows)
	if file != "" {
		name := fileName(file)
		filtered := reports[:0]
		for _, r := range reports {
			if r.File == name {
				filtered = append(filtered, r)
			}
		}
		reports = filtered
	}
	combined := validation.Combined(reports)
	return marshalResult(map[string]any{
		"valid":    combined.Valid(),
		"errors":   len(combined.Errors),
		"warnings": len(combined.Warnings),
		"files":    reports,
	})
}

// handleCheck diffs the rendered workflows against the files on disk.
func (s *Server) handleCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := s.opts
	if dir := req.GetString("output_dir", ""); dir != "" {
		opts.OutputDir = dir
	}
	ctx = logging.Into(ctx, logging.Scope{Command: req.Params.Name})
	diff, err := generate.Check(ctx, s.workflows, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("check failed: %v", err)), nil
	}
	if diff == "" {
		return mcp.NewToolResultText("up to date"), nil
	}
	return mcp.NewToolResultText(diff), nil
}

// handleGenerate writes every workflow file.
func (s *Server) handleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := s.opts
	if dir := req.GetString("output_dir", ""); dir != "" {
		opts.OutputDir = dir
	}
	opts.Clean = req.GetBool("clean", opts.Clean)

	ctx = logging.Into(ctx, logging.Scope{Command: req.Params.Name})
	report, err := generate.Generate(ctx, s.workflows, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generate failed: %v", err)), nil
	}
	return marshalResult(report)
}

// handleGraph draws the job graph of one workflow in the requested format.
func (s *Server) handleGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError("file is required"), nil
	}
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}
	if format != "ascii" && format != "mermaid" && format != "image" {
		return mcp.NewToolResultError("format must be ascii, mermaid, or image"), nil
	}

	ws, errResult := s.selection(file)
	if errResult != nil {
		return errResult, nil
	}
	w := ws[0]

	var lint *schema.ValidationResult
	if req.GetBool("lint", false) {
		lint = s.linter.Lint(w)
	}
	model, buildErr := diagram.Build(w, lint)
	if buildErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram build failed: %v", buildErr)), nil
	}

	steps := req.GetBool("steps", false)
	switch format {
	case "ascii":
		return mcp.NewToolResultText(diagram.RenderASCII(model, steps)), nil
	case "mermaid":
		return mcp.NewToolResultText(diagram.RenderMermaid(model, steps)), nil
	default:
		png, imgErr := diagram.RenderImage(ctx, model, steps)
		if imgErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("image render failed: %v", imgErr)), nil
		}
		encoded := base64.StdEncoding.EncodeToString(png)
		return mcp.NewToolResultImage("job graph of "+w.FileName()+".yml", encoded, "image/png"), nil
	}
}

// handleQuery runs a jq expression over the rendered documents.
func (s *Server) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expression, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError("expression is required"), nil
	}
	file := req.GetString("file", "")
	ws, errResult := s.selection(file)
	if errResult != nil {
		return errResult, nil
	}
	files, err := generate.Render(ws, s.opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}

	var input any = query.Input(files)
	if file != "" {
		input = files[0].Tree
	}
	results, err := s.query.Run(ctx, expression, input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return marshalResult(nonNil(results))
}

// selection returns the workflow named by file, or all workflows when
// file is empty. An unknown file yields an error result.
func (s *Server) selection(file string) ([]*workflow.Workflow, *mcp.CallToolResult) {
	if file == "" {
		return s.workflows, nil
	}
	name := fileName(file)
	for _, w := range s.workflows {
		if w.FileName()+".yml" == name {
			return []*workflow.Workflow{w}, nil
		}
	}
	return nil, mcp.NewToolResultError(fmt.Sprintf("unknown workflow file %q", file))
}

// fileName accepts ci, ci.yml and .github/workflows/ci.yml.
func fileName(file string) string {
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}
	if !strings.HasSuffix(file, ".yml") {
		file += ".yml"
	}
	return file
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
