package main

import (
	"github.com/rendis/wfkit/pkg/commands"
	"github.com/rendis/wfkit/pkg/expr"
	"github.com/rendis/wfkit/pkg/workflow"
)

const goVersion = "1.25"

func workflows() []*workflow.Workflow {
	return []*workflow.Workflow{ci(), release()}
}

func checkout() *workflow.Step {
	return workflow.Uses("actions/checkout@v4")
}

func setupGo(version any) *workflow.Step {
	return workflow.Uses("actions/setup-go@v5").
		Input("go-version", version).
		Input("cache", true)
}

func ci() *workflow.Workflow {
	c := expr.Ctx
	matrix := workflow.NewMatrix().
		Axis("os", workflow.RunnerUbuntuLatest, workflow.RunnerMacOSLatest).
		Axis("go", goVersion, "stable")

	return workflow.New("CI", workflow.WithFileName("ci")).
		On(workflow.EventPush, workflow.PushOptions{Branches: []string{"main"}}).
		On(workflow.EventPullRequest, nil).
		Permissions(workflow.Permissions{Contents: workflow.AccessRead}).
		Concurrency(workflow.Concurrency{
			Group:            expr.Concat("ci-", c.Github.Key("ref")),
			CancelInProgress: true,
		}).
		Jobs(
			workflow.Named("generated", workflow.NewJob().
				Name("Generated files are current").
				RunsOn(workflow.RunnerUbuntuLatest).
				TimeoutMinutes(5).
				Steps(
					checkout(),
					setupGo(goVersion),
					workflow.Run("go run ./cmd/wfkit check --no-color").Name("Check workflows"),
				)),
			workflow.Named("lint", workflow.NewJob().
				RunsOn(workflow.RunnerUbuntuLatest).
				TimeoutMinutes(10).
				Steps(
					checkout(),
					setupGo(goVersion),
					workflow.Run("go vet ./...").Name("Vet"),
					workflow.Run("go run ./cmd/wfkit lint --strict --no-color").Name("Lint workflows"),
				)),
			workflow.Named("test", workflow.NewJob().
				Needs("lint").
				Name(expr.Concat("test (", c.MatrixValue("os"), ", go ", c.MatrixValue("go"), ")")).
				RunsOn(expr.Wrap(c.MatrixValue("os"))).
				Strategy(workflow.Strategy{Matrix: matrix, FailFast: false}).
				TimeoutMinutes(20).
				Steps(
					checkout(),
					setupGo(expr.Wrap(c.MatrixValue("go"))),
					workflow.Run("go test -race -coverprofile=cover.out ./...").Name("Test"),
					workflow.Run(
						commands.Group("Coverage",
							"go tool cover -func=cover.out | tail -n 1",
						),
					).Name("Coverage summary"),
				)),
		)
}

func release() *workflow.Workflow {
	c := expr.Ctx
	return workflow.New("Release", workflow.WithFileName("release")).
		On(workflow.EventPush, workflow.PushOptions{Tags: []string{"v*"}}).
		Permissions(workflow.Permissions{Contents: workflow.AccessWrite}).
		Jobs(
			workflow.Named("build", workflow.NewJob().
				RunsOn(workflow.RunnerUbuntuLatest).
				TimeoutMinutes(15).
				Output("version", expr.Wrap(c.StepOutput("meta", "version"))).
				Steps(
					checkout(),
					setupGo(goVersion),
					workflow.Run(
						commands.SetOutput("version", c.Github.Key("ref_name")),
					).ID("meta").Name("Version"),
					workflow.Run(expr.Concat(
						`go build -ldflags "-X github.com/rendis/wfkit/pkg/cli.Version=`,
						c.StepOutput("meta", "version"),
						`" -o dist/wfkit ./cmd/wfkit`,
					)).Name("Build"),
					workflow.Uses("actions/upload-artifact@v4").
						Input("name", "wfkit").
						Input("path", "dist/"),
				)),
			workflow.Named("publish", workflow.NewJob().
				Needs("build").
				If(expr.StartsWith(c.Github.Key("ref"), "refs/tags/")).
				RunsOn(workflow.RunnerUbuntuLatest).
				TimeoutMinutes(10).
				EnvVar("GH_TOKEN", expr.Wrap(c.Secret("GITHUB_TOKEN"))).
				Steps(
					checkout(),
					workflow.Uses("actions/download-artifact@v4").
						Input("name", "wfkit").
						Input("path", "dist/"),
					workflow.Run(expr.Concat(
						"gh release create ", c.NeedsOutput("build", "version"), " dist/wfkit --generate-notes",
					)).Name("Publish"),
				)),
		)
}
