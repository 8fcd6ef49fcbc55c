// Package graphviz builds a transport-neutral dependency graph out of a
// computed cost set and renders it as an interactive HTML chart.
package graphviz

import (
	"sort"

	"github.com/ironforge/factory-valuation/pkg/valuation"
)

// NodeKind distinguishes the two kinds of node in a cost graph.
type NodeKind string

const (
	NodeKindItem           NodeKind = "item"
	NodeKindTransformation NodeKind = "transformation"
)

// Node is one vertex of a cost graph: either an item (sized by its cost)
// or a transformation that was the cheapest source for some item.
type Node struct {
	ID    string
	Label string
	Kind  NodeKind
	Value float64
}

// Edge connects a transformation to the item it produced most cheaply.
type Edge struct {
	Source string
	Target string
}

// Graph is a transport-neutral view over a cost computation, independent
// of any rendering library.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Build constructs a Graph from a cost computation: one item node per
// entry in costs, and one transformation node per item's cheapest
// contributing transformation, linked cheapest transformation -> item.
// Items with no recorded transformation (items no transformation produces,
// such as the base resource) get only an item node.
func Build(costs []valuation.ItemCost) Graph {
	g := Graph{}

	sorted := make([]valuation.ItemCost, len(costs))
	copy(sorted, costs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Item.Serialize() < sorted[j].Item.Serialize()
	})

	for _, ic := range sorted {
		itemID := "item:" + ic.Item.Serialize()
		g.Nodes = append(g.Nodes, Node{
			ID:    itemID,
			Label: ic.Item.String(),
			Kind:  NodeKindItem,
			Value: ic.Cost,
		})

		if len(ic.TransformationCosts) == 0 {
			continue
		}

		cheapest := ic.TransformationCosts[0]
		transformID := "transform:" + cheapest.Transformation
		g.Nodes = append(g.Nodes, Node{
			ID:    transformID,
			Label: cheapest.Transformation,
			Kind:  NodeKindTransformation,
			Value: cheapest.Value,
		})
		g.Edges = append(g.Edges, Edge{Source: transformID, Target: itemID})
	}

	return g
}
