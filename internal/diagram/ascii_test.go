package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderASCIIPipeline(t *testing.T) {
	model, err := Build(pipelineWorkflow(), nil)
	require.NoError(t, err)

	output := RenderASCII(model, false)
	assert.NotEmpty(t, output)

	assert.Contains(t, output, "=== Release Pipeline ===")

	assert.Contains(t, output, "┌")
	assert.Contains(t, output, "┐")
	assert.Contains(t, output, "└")
	assert.Contains(t, output, "┘")
	assert.Contains(t, output, "│")
	assert.Contains(t, output, "▼")

	assert.Contains(t, output, "on: push, workflow_dispatch")
	assert.Contains(t, output, "End")
	assert.Contains(t, output, "matrix: os x go")
	assert.Contains(t, output, "Build binaries")
	assert.NotContains(t, output, "--- test steps ---")
}

func TestRenderASCIIWithSteps(t *testing.T) {
	model, err := Build(pipelineWorkflow(), nil)
	require.NoError(t, err)

	output := RenderASCII(model, true)
	assert.Contains(t, output, "--- test steps ---\n  1. Checkout\n  2. test\n")
}

func TestRenderASCIIWithStatus(t *testing.T) {
	model := &DiagramModel{
		Title: "Test",
		Nodes: []*Node{
			{ID: "a", Label: "a", Kind: NodeKindJob, Status: &StatusOverlay{Status: "error", Errors: 2}},
			{ID: "b", Label: "b", Kind: NodeKindJob, Status: &StatusOverlay{Status: "warning", Warnings: 1}},
			{ID: "c", Label: "c", Kind: NodeKindJob, Status: &StatusOverlay{Status: "ok"}},
		},
		Levels: [][]string{{"a", "b"}, {"c"}},
	}

	output := RenderASCII(model, false)
	assert.Contains(t, output, "[ERR 2]")
	assert.Contains(t, output, "[WARN 1]")
	assert.Contains(t, output, "[OK]")
}

func TestMakeBoxPadsWideRunes(t *testing.T) {
	box := makeBox(&Node{Label: "déploy", Detail: "ubuntu"})
	require.Len(t, box.lines, 4)
	assert.Equal(t, "┌────────┐", box.lines[0])
	assert.Equal(t, "│ déploy │", box.lines[1])
	assert.Equal(t, "│ ubuntu │", box.lines[2])
}

func TestWriteBusJoinsRow(t *testing.T) {
	row := []asciiBox{makeBox(&Node{Label: "abc"}), makeBox(&Node{Label: "xyz"})}
	var b strings.Builder
	writeBus(&b, row)
	assert.Equal(t, "   │        │\n   └───┬────┘\n       ▼\n", b.String())
}

func TestWriteBusSingleBox(t *testing.T) {
	var b strings.Builder
	writeBus(&b, []asciiBox{makeBox(&Node{Label: "abc"})})
	assert.Equal(t, "   │\n   ▼\n", b.String())
}
