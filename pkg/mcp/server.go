package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/wfkit/internal/logging"
	"github.com/rendis/wfkit/internal/query"
	"github.com/rendis/wfkit/internal/validation"
	"github.com/rendis/wfkit/pkg/generate"
	"github.com/rendis/wfkit/pkg/workflow"
)

// ServerDeps holds the dependencies for creating a Server.
type ServerDeps struct {
	Workflows []*workflow.Workflow
	Options   generate.Options
	Linter    validation.Validator // defaults to validation.NewLinter
	Query     *query.Engine
	Logger    *slog.Logger
	Version   string
}

// Server exposes the workflows of one repository as MCP tools.
type Server struct {
	workflows []*workflow.Workflow
	opts      generate.Options
	linter    validation.Validator
	query     *query.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a Server with every tool registered.
func NewServer(deps ServerDeps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	linter := deps.Linter
	if linter == nil {
		l, err := validation.NewLinter()
		if err != nil {
			return nil, fmt.Errorf("mcp: create linter: %w", err)
		}
		linter = l
	}
	engine := deps.Query
	if engine == nil {
		engine = query.NewEngine()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		workflows: deps.Workflows,
		opts:      deps.Options,
		linter:    linter,
		query:     engine,
		logger:    logging.WithComponent(logger, "mcp"),
	}

	mcpSrv := server.NewMCPServer(
		"wfkit",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("wfkit compiles CI workflows defined in Go into YAML files. "+
			"Use wfkit.list to see the workflows, wfkit.render to read their YAML, wfkit.lint to find problems, "+
			"wfkit.check to compare with the files on disk, wfkit.generate to write them, "+
			"wfkit.graph to draw the job graph and wfkit.query to run jq over the rendered documents."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.InfoContext(ctx, "serving", slog.Int("workflows", len(s.workflows)))
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, in, out)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: listTool(), Handler: s.handleList},
		{Tool: renderTool(), Handler: s.handleRender},
		{Tool: lintTool(), Handler: s.handleLint},
		{Tool: checkTool(), Handler: s.handleCheck},
		{Tool: generateTool(), Handler: s.handleGenerate},
		{Tool: graphTool(), Handler: s.handleGraph},
		{Tool: queryTool(), Handler: s.handleQuery},
	}
}

// --- Tool definitions ---

func listTool() mcp.Tool {
	return mcp.NewTool("wfkit.list",
		mcp.WithDescription("List the workflows with their triggers and jobs"),
	)
}

func renderTool() mcp.Tool {
	return mcp.NewTool("wfkit.render",
		mcp.WithDescription("Render workflows to YAML without writing files"),
		mcp.WithString("file", mcp.Description("Workflow file name such as ci.yml (default: all)")),
	)
}

func lintTool() mcp.Tool {
	return mcp.NewTool("wfkit.lint",
		mcp.WithDescription("Lint workflows: schema, expressions, references and the needs graph"),
		mcp.WithString("file", mcp.Description("Workflow file name such as ci.yml (default: all)")),
	)
}

func checkTool() mcp.Tool {
	return mcp.NewTool("wfkit.check",
		mcp.WithDescription("Compare rendered workflows with the files on disk and return a unified diff"),
		mcp.WithString("output_dir", mcp.Description("Directory holding the workflow files (default: configured)")),
	)
}

func generateTool() mcp.Tool {
	return mcp.NewTool("wfkit.generate",
		mcp.WithDescription("Render and write every workflow file"),
		mcp.WithString("output_dir", mcp.Description("Directory to write to (default: configured)")),
		mcp.WithBoolean("clean", mcp.Description("Empty the directory before writing")),
	)
}

func graphTool() mcp.Tool {
	return mcp.NewTool("wfkit.graph",
		mcp.WithDescription("Draw the job graph of a workflow. Returns ASCII art, Mermaid flowchart syntax, or a PNG image"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Workflow file name such as ci.yml")),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("ascii", "mermaid", "image"),
			mcp.Description("Output format: ascii (text), mermaid (flowchart syntax), or image (PNG)"),
		),
		mcp.WithBoolean("steps", mcp.Description("Include the steps of each job")),
		mcp.WithBoolean("lint", mcp.Description("Color jobs by lint findings")),
	)
}

func queryTool() mcp.Tool {
	return mcp.NewTool("wfkit.query",
		mcp.WithDescription("Run a jq expression over the rendered documents"),
		mcp.WithString("expression", mcp.Required(), mcp.Description("jq expression")),
		mcp.WithString("file", mcp.Description("Query one document instead of the object keyed by file name")),
	)
}
