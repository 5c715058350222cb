package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rendis/wfkit/internal/diagram"
	"github.com/rendis/wfkit/internal/query"
	"github.com/rendis/wfkit/internal/validation"
	"github.com/rendis/wfkit/pkg/generate"
	"github.com/rendis/wfkit/pkg/mcp"
	"github.com/rendis/wfkit/pkg/schema"
)

func (a *App) runGenerate(ctx context.Context, env *runEnv, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(a.Stderr, "Error: generate takes no arguments, got %q\n", args)
		return ExitUsage
	}
	report, err := generate.Generate(ctx, a.Workflows, env.opts)
	if err != nil {
		a.printError(env, err)
		return ExitFail
	}
	for _, f := range report.Files {
		fmt.Fprintf(a.Stdout, "%s %s\n", f.Path, env.theme.Paint(env.theme.Dim, shortFingerprint(f.Fingerprint)))
	}
	for _, name := range report.Removed {
		fmt.Fprintf(a.Stdout, "%s %s\n", name, env.theme.Paint(env.theme.Dim, "removed"))
	}
	fmt.Fprintln(a.Stdout, env.theme.Paint(env.theme.OK, fmt.Sprintf("wrote %d files to %s", len(report.Files), report.Dir)))
	return ExitOK
}

func (a *App) runCheck(ctx context.Context, env *runEnv, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(a.Stderr, "Error: check takes no arguments, got %q\n", args)
		return ExitUsage
	}
	diff, err := generate.Check(ctx, a.Workflows, env.opts)
	if err != nil {
		a.printError(env, err)
		return ExitFail
	}
	if diff == "" {
		fmt.Fprintln(a.Stdout, env.theme.Paint(env.theme.OK, "workflows are up to date"))
		return ExitOK
	}
	fmt.Fprint(a.Stdout, env.theme.Diff(diff))
	fmt.Fprintln(a.Stderr, env.theme.Paint(env.theme.Error, "workflows are out of date, run generate"))
	return ExitFail
}

type lintOptions struct {
	json   bool
	strict bool
}

func lintFlags(fs *flag.FlagSet) any {
	o := &lintOptions{}
	fs.BoolVar(&o.json, "json", false, "print the reports as JSON")
	fs.BoolVar(&o.strict, "strict", false, "fail on warnings too")
	return o
}

func (a *App) runLint(_ context.Context, env *runEnv, args []string) int {
	o := env.extra.(*lintOptions)
	linter, err := validation.NewLinter()
	if err != nil {
		a.printError(env, err)
		return ExitFail
	}

	reports := linter.LintAll(a.Workflows)
	if len(args) > 0 {
		wanted := map[string]bool{}
		for _, file := range args {
			w, ok := findWorkflow(a.Workflows, file)
			if !ok {
				fmt.Fprintf(a.Stderr, "Error: unknown workflow file %q\n", file)
				return ExitUsage
			}
			wanted[w.FileName()+".yml"] = true
		}
		filtered := reports[:0]
		for _, r := range reports {
			if wanted[r.File] {
				filtered = append(filtered, r)
			}
		}
		reports = filtered
	}
	combined := validation.Combined(reports)

	if o.json {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			a.printError(env, err)
			return ExitFail
		}
		fmt.Fprintln(a.Stdout, string(data))
	} else {
		for _, issue := range combined.Errors {
			fmt.Fprintln(a.Stdout, env.theme.Paint(env.theme.Error, issue.String()))
		}
		for _, issue := range combined.Warnings {
			fmt.Fprintln(a.Stdout, env.theme.Paint(env.theme.Warning, issue.String()))
		}
		summary := fmt.Sprintf("%d files, %d errors, %d warnings", len(reports), len(combined.Errors), len(combined.Warnings))
		if combined.Valid() {
			summary = env.theme.Paint(env.theme.OK, summary)
		}
		fmt.Fprintln(a.Stdout, summary)
	}

	if !combined.Valid() || (o.strict && len(combined.Warnings) > 0) {
		return ExitFail
	}
	return ExitOK
}

type graphOptions struct {
	format string
	steps  bool
	lint   bool
	out    string
}

func graphFlags(fs *flag.FlagSet) any {
	o := &graphOptions{}
	fs.StringVar(&o.format, "format", "ascii", "output format: ascii, mermaid, png")
	fs.BoolVar(&o.steps, "steps", false, "include the steps of each job")
	fs.BoolVar(&o.lint, "lint", false, "mark jobs with lint findings")
	fs.StringVar(&o.out, "png-out", "", "file to write the PNG to (default: stdout)")
	return o
}

func (a *App) runGraph(ctx context.Context, env *runEnv, args []string) int {
	o := env.extra.(*graphOptions)
	if len(args) != 1 {
		fmt.Fprintln(a.Stderr, "Error: graph needs exactly one workflow file")
		return ExitUsage
	}
	w, ok := findWorkflow(a.Workflows, args[0])
	if !ok {
		fmt.Fprintf(a.Stderr, "Error: unknown workflow file %q\n", args[0])
		return ExitUsage
	}

	var lint *schema.ValidationResult
	if o.lint {
		linter, err := validation.NewLinter()
		if err != nil {
			a.printError(env, err)
			return ExitFail
		}
		lint = linter.Lint(w)
	}
	model, err := diagram.Build(w, lint)
	if err != nil {
		a.printError(env, err)
		return ExitFail
	}

	switch o.format {
	case "ascii":
		fmt.Fprint(a.Stdout, diagram.RenderASCII(model, o.steps))
	case "mermaid":
		fmt.Fprint(a.Stdout, diagram.RenderMermaid(model, o.steps))
	case "png":
		png, err := diagram.RenderImage(ctx, model, o.steps)
		if err != nil {
			a.printError(env, err)
			return ExitFail
		}
		if o.out == "" {
			_, err = a.Stdout.Write(png)
		} else {
			err = os.WriteFile(o.out, png, 0o644)
		}
		if err != nil {
			a.printError(env, err)
			return ExitFail
		}
	default:
		fmt.Fprintf(a.Stderr, "Error: format must be ascii, mermaid, or png, got %q\n", o.format)
		return ExitUsage
	}
	return ExitOK
}

type queryOptions struct {
	file string
	raw  bool
}

func queryFlags(fs *flag.FlagSet) any {
	o := &queryOptions{}
	fs.StringVar(&o.file, "file", "", "query one document instead of the object keyed by file name")
	fs.BoolVar(&o.raw, "r", false, "print string results without quotes")
	return o
}

func (a *App) runQuery(ctx context.Context, env *runEnv, args []string) int {
	o := env.extra.(*queryOptions)
	if len(args) != 1 {
		fmt.Fprintln(a.Stderr, "Error: query needs exactly one jq expression")
		return ExitUsage
	}

	workflows := a.Workflows
	if o.file != "" {
		w, ok := findWorkflow(a.Workflows, o.file)
		if !ok {
			fmt.Fprintf(a.Stderr, "Error: unknown workflow file %q\n", o.file)
			return ExitUsage
		}
		workflows = workflows[:0:0]
		workflows = append(workflows, w)
	}
	files, err := generate.Render(workflows, env.opts)
	if err != nil {
		a.printError(env, err)
		return ExitFail
	}
	var input any = query.Input(files)
	if o.file != "" {
		input = files[0].Tree
	}

	results, err := query.NewEngine().Run(ctx, args[0], input)
	if err != nil {
		a.printError(env, err)
		return ExitFail
	}
	for _, r := range results {
		if s, ok := r.(string); ok && o.raw {
			fmt.Fprintln(a.Stdout, s)
			continue
		}
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			a.printError(env, err)
			return ExitFail
		}
		fmt.Fprintln(a.Stdout, string(data))
	}
	return ExitOK
}

func (a *App) runServe(ctx context.Context, env *runEnv, _ []string) int {
	srv, err := mcp.NewServer(mcp.ServerDeps{
		Workflows: a.Workflows,
		Options:   env.opts,
		Logger:    env.logger,
		Version:   Version,
	})
	if err != nil {
		a.printError(env, err)
		return ExitFail
	}
	if err := srv.Serve(ctx, a.Stdin, a.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		a.printError(env, err)
		return ExitFail
	}
	return ExitOK
}

func (a *App) runVersion(_ context.Context, _ *runEnv, _ []string) int {
	fmt.Fprintln(a.Stdout, Version)
	return ExitOK
}

// printError writes err to stderr. Aggregated causes are already listed
// one per line by the error itself.
func (a *App) printError(env *runEnv, err error) {
	fmt.Fprintln(a.Stderr, env.theme.Paint(env.theme.Error, "Error: "+err.Error()))
}

func shortFingerprint(fp string) string {
	algo, sum, ok := strings.Cut(fp, ":")
	if !ok || len(sum) < 12 {
		return fp
	}
	return algo + ":" + sum[:12]
}
