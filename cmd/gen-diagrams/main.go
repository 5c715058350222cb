// gen-diagrams generates sample diagram outputs for README documentation.
// Run: go run ./cmd/gen-diagrams
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rendis/wfkit/internal/diagram"
	"github.com/rendis/wfkit/internal/validation"
	"github.com/rendis/wfkit/pkg/expr"
	"github.com/rendis/wfkit/pkg/workflow"
)

func main() {
	// Pipeline: lint + unit → build (matrix) → publish (reusable call) → notify
	c := expr.Ctx
	deploy := workflow.New("Deploy").
		On(workflow.EventWorkflowCall, workflow.WorkflowCallOptions{
			Inputs: []workflow.Input{{Name: "environment", Required: true, Type: workflow.InputString}},
		}).
		Job("deploy", workflow.NewJob().RunsOn(workflow.RunnerUbuntuLatest).Step(workflow.Run("./deploy.sh")))

	w := workflow.New("Pipeline").
		On(workflow.EventPush, workflow.PushOptions{Branches: []string{"main"}}).
		Job("lint", workflow.NewJob().RunsOn(workflow.RunnerUbuntuLatest).
			Steps(workflow.Uses("actions/checkout@v4"), workflow.Run("make lint"))).
		Job("unit", workflow.NewJob().RunsOn(workflow.RunnerUbuntuLatest).
			Steps(workflow.Uses("actions/checkout@v4"), workflow.Run("make test"))).
		Job("build", workflow.NewJob().Needs("lint", "unit").
			RunsOn(expr.Wrap(c.MatrixValue("os"))).
			Strategy(workflow.Strategy{Matrix: workflow.NewMatrix().
				Axis("os", workflow.RunnerUbuntuLatest, workflow.RunnerMacOSLatest).
				Axis("arch", "amd64", "arm64")}).
			Steps(workflow.Uses("actions/checkout@v4"), workflow.Run("make dist"))).
		Job("publish", workflow.NewJob().Needs("build").Uses(deploy).Input("environment", "production")).
		Job("notify", workflow.NewJob().Needs("publish", "ghost").RunsOn(workflow.RunnerUbuntuLatest).
			Step(workflow.Run(expr.Concat("echo ", c.NeedsResult("publish")))))

	linter, err := validation.NewLinter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "linter error: %v\n", err)
		os.Exit(1)
	}
	// The dangling need on notify shows up as a warning overlay.
	model, err := diagram.Build(w, linter.Lint(w))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build error: %v\n", err)
		os.Exit(1)
	}

	outDir := filepath.Join("docs", "assets")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir error: %v\n", err)
		os.Exit(1)
	}

	// ASCII
	ascii := diagram.RenderASCII(model, true)
	write(filepath.Join(outDir, "diagram-ascii.txt"), []byte(ascii))
	fmt.Println("=== ASCII ===")
	fmt.Println(ascii)

	// Mermaid
	mermaid := diagram.RenderMermaid(model, false)
	write(filepath.Join(outDir, "diagram-mermaid.md"), []byte("```mermaid\n"+mermaid+"```\n"))
	fmt.Println("=== Mermaid ===")
	fmt.Println(mermaid)

	// Image (PNG)
	png, imgErr := diagram.RenderImage(context.Background(), model, true)
	if imgErr != nil {
		fmt.Fprintf(os.Stderr, "image error: %v\n", imgErr)
	} else {
		pngPath := filepath.Join(outDir, "diagram-sample.png")
		write(pngPath, png)
		fmt.Printf("=== Image (PNG) ===\nWritten: %s (%d bytes)\n", pngPath, len(png))
	}
}

func write(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
	}
}
