package metrics

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/codescope/codescope/internal/graph"
)

// ImportCycles finds strongly connected components with more than one
// node. Cycles are valid graphs here; this only reports them. Each cycle
// and the overall list are sorted so output is deterministic.
func ImportCycles(g *graph.Graph) [][]string {
	ids := make(map[string]int64, len(g.Nodes))
	names := make([]string, len(g.Nodes))
	dg := simple.NewDirectedGraph()
	for i, n := range g.Nodes {
		ids[n.ID] = int64(i)
		names[i] = n.ID
		dg.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges {
		from, okF := ids[e.Source]
		to, okT := ids[e.Target]
		if !okF || !okT || from == to {
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	var cycles [][]string
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		cycle := make([]string, len(scc))
		for i, n := range scc {
			cycle[i] = names[n.ID()]
		}
		sort.Strings(cycle)
		cycles = append(cycles, cycle)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}
