package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMermaidPipeline(t *testing.T) {
	model, err := Build(pipelineWorkflow(), nil)
	require.NoError(t, err)

	output := RenderMermaid(model, false)
	assert.Contains(t, output, "graph TD\n")
	assert.Contains(t, output, "%% Release Pipeline")
	assert.Contains(t, output, `__start__(("on: push, workflow_dispatch"))`)
	assert.Contains(t, output, `lint["lint"]`)
	assert.Contains(t, output, `test[["test<br/>matrix: os x go"]]`)
	assert.Contains(t, output, `deploy[/"deploy<br/>./.github/workflows/deploy.yml"/]`)
	assert.Contains(t, output, "    lint --> build\n")
	assert.Contains(t, output, "    test --> build\n")
	assert.Contains(t, output, "    deploy --> __end__\n")
	assert.Contains(t, output, "    build -.-> deploy\n")
	assert.NotContains(t, output, "subgraph")
	assert.NotContains(t, output, "classDef")
}

func TestRenderMermaidWithSteps(t *testing.T) {
	model, err := Build(pipelineWorkflow(), nil)
	require.NoError(t, err)

	output := RenderMermaid(model, true)
	assert.Contains(t, output, `subgraph test_steps["test: steps"]`)
	assert.Contains(t, output, `test_0["Checkout"]`)
	assert.Contains(t, output, "        test_0 --> test_1\n")
}

func TestRenderMermaidWithStatus(t *testing.T) {
	model := &DiagramModel{
		Nodes: []*Node{
			{ID: "build", Label: "build", Kind: NodeKindJob, Status: &StatusOverlay{Status: "error", Errors: 1}},
			{ID: "test", Label: "test", Kind: NodeKindJob},
		},
	}

	output := RenderMermaid(model, false)
	assert.Contains(t, output, "classDef error")
	assert.Contains(t, output, "class build error")
	assert.Contains(t, output, "classDef ok fill:#2d6a2d,stroke:#1a4a1a,color:#fff")
	assert.NotContains(t, output, "class test")
}

func TestMermaidSafeID(t *testing.T) {
	assert.Equal(t, "build_linux", mermaidSafeID("build-linux"))
	assert.Equal(t, "test_0", mermaidSafeID("test.0"))
	assert.Equal(t, "a_b", mermaidSafeID("a b"))
}

func TestMermaidEscapeLabel(t *testing.T) {
	assert.Equal(t, "say #quot;hi#quot; #lt;now#gt;", mermaidEscapeLabel(`say "hi" <now>`))
}
