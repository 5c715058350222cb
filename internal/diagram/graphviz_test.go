package diagram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/wfkit/pkg/schema"
)

func assertPNG(t *testing.T, png []byte) {
	t.Helper()
	require.True(t, len(png) > 8, "PNG should be larger than header")
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestRenderImagePipeline(t *testing.T) {
	model, err := Build(pipelineWorkflow(), nil)
	require.NoError(t, err)

	png, err := RenderImage(context.Background(), model, false)
	require.NoError(t, err)
	assertPNG(t, png)
}

func TestRenderImageWithStatusAndSteps(t *testing.T) {
	lint := &schema.ValidationResult{}
	lint.AddError("jobs.build.steps[0]", schema.ErrCodeStructural, "bad")
	model, err := Build(pipelineWorkflow(), lint)
	require.NoError(t, err)

	png, err := RenderImage(context.Background(), model, true)
	require.NoError(t, err)
	assertPNG(t, png)
}

func TestImageLabel(t *testing.T) {
	node := &Node{
		ID: "build", Label: "build", Detail: "matrix: os",
		Children: []*SubGraph{{Label: "steps", Nodes: []*Node{{Label: "checkout"}, {Label: "make"}}}},
	}
	assert.Equal(t, "build\nmatrix: os", imageLabel(node, false))
	assert.Equal(t, "build\nmatrix: os\n1. checkout\\l2. make\\l", imageLabel(node, true))
	assert.Equal(t, "End", imageLabel(&Node{Label: "End"}, true))
}
