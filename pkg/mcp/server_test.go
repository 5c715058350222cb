package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	s, err := NewServer(ServerDeps{})
	require.NoError(t, err)
	assert.NotNil(t, s.logger)
	assert.NotNil(t, s.linter)
	assert.NotNil(t, s.query)
	assert.Same(t, s.mcpServer, s.MCPServer())
}

func TestToolSchemas(t *testing.T) {
	s, err := NewServer(ServerDeps{})
	require.NoError(t, err)
	require.Len(t, s.mcpServer.ListTools(), 7)

	required := map[string][]string{
		"wfkit.list":     nil,
		"wfkit.render":   nil,
		"wfkit.lint":     nil,
		"wfkit.check":    nil,
		"wfkit.generate": nil,
		"wfkit.graph":    {"file", "format"},
		"wfkit.query":    {"expression"},
	}
	for name, want := range required {
		t.Run(strings.TrimPrefix(name, "wfkit."), func(t *testing.T) {
			tool := s.mcpServer.GetTool(name)
			require.NotNil(t, tool, "tool %s is not registered", name)
			assert.NotEmpty(t, tool.Tool.Description)
			assert.ElementsMatch(t, want, tool.Tool.InputSchema.Required)
		})
	}
}

func TestToolDescriptions(t *testing.T) {
	s, err := NewServer(ServerDeps{})
	require.NoError(t, err)

	assert.Equal(t, "Compare rendered workflows with the files on disk and return a unified diff",
		s.mcpServer.GetTool("wfkit.check").Tool.Description)
	assert.Equal(t, "Run a jq expression over the rendered documents",
		s.mcpServer.GetTool("wfkit.query").Tool.Description)
}
