package graphviz

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironforge/factory-valuation/pkg/valuation"
)

func TestBuild_ItemAndTransformationNodes(t *testing.T) {
	costs := []valuation.ItemCost{
		{
			Item: valuation.NewItem("b", 1),
			Cost: 2,
			TransformationCosts: []valuation.TransformationValue{
				{Transformation: "a-to-b [none]", Value: 2},
				{Transformation: "alt-to-b [none]", Value: 5},
			},
		},
		{
			Item: valuation.BaseResource,
			Cost: 1,
		},
	}

	g := Build(costs)

	assert.Len(t, g.Edges, 1)
	assert.Equal(t, "transform:a-to-b [none]", g.Edges[0].Source)

	var sawTransformation bool
	for _, n := range g.Nodes {
		if n.Kind == NodeKindTransformation {
			sawTransformation = true
			assert.Equal(t, float64(2), n.Value)
		}
	}
	assert.True(t, sawTransformation)
}

func TestBuild_UnreachableItemHasNoEdge(t *testing.T) {
	costs := []valuation.ItemCost{
		{Item: valuation.NewItem("ghost", 1), Cost: math.Inf(1)},
	}

	g := Build(costs)

	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)
}

func TestRender_ProducesHTML(t *testing.T) {
	g := Build([]valuation.ItemCost{
		{
			Item: valuation.NewItem("b", 1),
			Cost: 2,
			TransformationCosts: []valuation.TransformationValue{
				{Transformation: "a-to-b [none]", Value: 2},
			},
		},
	})

	var buf bytes.Buffer
	require.NoError(t, Render(g, "test graph", &buf))
	assert.Contains(t, buf.String(), "<html")
}
