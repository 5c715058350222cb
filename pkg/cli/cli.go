// Package cli is the command line front end of a workflow program. A
// repository defines its workflows in Go and hands them to Main:
//
//	func main() {
//		cli.Main(ci(), release())
//	}
//
// The binary then generates, checks, lints, draws and queries them.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rendis/wfkit/internal/logging"
	"github.com/rendis/wfkit/pkg/generate"
	"github.com/rendis/wfkit/pkg/workflow"
)

// Version is set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rendis/wfkit/pkg/cli.Version=v1.0.0" ./cmd/wfkit/
var Version = "dev"

// Exit codes.
const (
	ExitOK    = 0
	ExitFail  = 1 // lint errors, stale files, failed writes
	ExitUsage = 2
)

// App runs subcommands against a fixed set of workflows.
type App struct {
	Workflows []*workflow.Workflow
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Getenv    func(string) string
}

// Main runs the command line in args and exits the process.
func Main(workflows ...*workflow.Workflow) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := &App{
		Workflows: workflows,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Getenv:    os.Getenv,
	}
	code := app.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

type command struct {
	name    string
	summary string
	run     func(a *App, ctx context.Context, env *runEnv, args []string) int
	flags   func(fs *flag.FlagSet) any
}

var commands []command

func init() {
	commands = []command{
		{name: "generate", summary: "write every workflow file (default)", run: (*App).runGenerate},
		{name: "check", summary: "diff rendered workflows against the files on disk", run: (*App).runCheck},
		{name: "lint", summary: "lint workflows", run: (*App).runLint, flags: lintFlags},
		{name: "graph", summary: "draw the job graph of one workflow", run: (*App).runGraph, flags: graphFlags},
		{name: "query", summary: "run a jq expression over the rendered documents", run: (*App).runQuery, flags: queryFlags},
		{name: "serve", summary: "serve the workflows as MCP tools over stdio", run: (*App).runServe},
		{name: "version", summary: "print the version", run: (*App).runVersion},
	}
}

// runEnv is what every subcommand receives after flag parsing.
type runEnv struct {
	cfg    Config
	logger *slog.Logger
	theme  Theme
	opts   generate.Options
	extra  any
}

// Run executes one subcommand and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	a.defaults()

	name := "generate"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name, args = args[0], args[1:]
	}
	if name == "help" {
		a.usage()
		return ExitOK
	}
	cmd, ok := lookupCommand(name)
	if !ok {
		fmt.Fprintf(a.Stderr, "Error: unknown command %q\n\n", name)
		a.usage()
		return ExitUsage
	}

	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	var common commonFlags
	common.register(fs)
	var extra any
	if cmd.flags != nil {
		extra = cmd.flags(fs)
	}
	positional, err := parseInterspersed(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		return ExitUsage
	}

	cfg, err := common.resolve(fs, a.Getenv)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitUsage
	}
	logger := logging.New(a.Stderr, cfg.LogLevel, cfg.LogJSON)
	env := &runEnv{
		cfg:    cfg,
		logger: logger,
		theme:  newTheme(a.Stdout, cfg.NoColor),
		opts: generate.Options{
			OutputDir:   cfg.OutputDir,
			Clean:       cfg.Clean,
			Concurrency: cfg.Concurrency,
			Header:      cfg.Header,
			Logger:      logger,
		},
		extra: extra,
	}
	ctx = logging.Into(ctx, logging.Scope{Command: cmd.name})
	logger.DebugContext(ctx, "command started", slog.String("output_dir", cfg.OutputDir))
	return cmd.run(a, ctx, env, positional)
}

func (a *App) defaults() {
	if a.Stdin == nil {
		a.Stdin = os.Stdin
	}
	if a.Stdout == nil {
		a.Stdout = io.Discard
	}
	if a.Stderr == nil {
		a.Stderr = io.Discard
	}
	if a.Getenv == nil {
		a.Getenv = func(string) string { return "" }
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (a *App) usage() {
	fmt.Fprintln(a.Stderr, "Usage: <program> [command] [flags] [args]")
	fmt.Fprintln(a.Stderr, "\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(a.Stderr, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(a.Stderr, "\nCommon flags: -o/--output, --clean, --settings, --log-level, --no-color")
}

// parseInterspersed parses flags that appear before, between or after
// positional arguments. A bare "--" ends flag parsing.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// findWorkflow accepts ci, ci.yml and .github/workflows/ci.yml.
func findWorkflow(workflows []*workflow.Workflow, file string) (*workflow.Workflow, bool) {
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}
	file = strings.TrimSuffix(file, ".yml")
	for _, w := range workflows {
		if w.FileName() == file {
			return w, true
		}
	}
	return nil, false
}
