package graphviz

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	itemNodeSize       = 30
	transformationSize = 16
)

// Render writes an interactive HTML graph chart for g to w.
func Render(g Graph, title string, w io.Writer) error {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
	)

	nodes := make([]opts.GraphNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		size := float32(transformationSize)
		category := 1
		if n.Kind == NodeKindItem {
			size = itemNodeSize
			category = 0
		}
		nodes = append(nodes, opts.GraphNode{
			Name:       n.ID,
			Value:      n.Value,
			SymbolSize: size,
			Category:   category,
		})
	}

	links := make([]opts.GraphLink, 0, len(g.Edges))
	for _, e := range g.Edges {
		links = append(links, opts.GraphLink{Source: e.Source, Target: e.Target})
	}

	graph.AddSeries("costs", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout:             "force",
			Roam:               opts.Bool(true),
			FocusNodeAdjacency: opts.Bool(true),
			Force: &opts.GraphForce{
				Repulsion: 200,
			},
			Categories: []*opts.GraphCategory{
				{Name: "item"},
				{Name: "transformation"},
			},
		}),
	).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
	)

	return graph.Render(w)
}
