package codescope

import (
	"sort"

	"github.com/codescope/codescope/internal/graph"
)

// GraphQuery answers read-only questions about a completed result's
// dependency graph. All methods return freshly allocated slices in
// deterministic order; the underlying graph is never mutated.
type GraphQuery struct {
	g *Graph
}

// Query returns a query handle over the result's graph.
func (r *Result) Query() *GraphQuery {
	return &GraphQuery{g: r.Graph}
}

// Dependencies returns the nodes that the file at path directly depends
// on, ordered by node id.
func (q *GraphQuery) Dependencies(path string) []*Node {
	return q.neighbors(path, func(e *Edge, id string) (string, bool) {
		if e.Source == id {
			return e.Target, true
		}
		return "", false
	})
}

// Dependents returns the nodes that directly depend on the file at path,
// ordered by node id.
func (q *GraphQuery) Dependents(path string) []*Node {
	return q.neighbors(path, func(e *Edge, id string) (string, bool) {
		if e.Target == id {
			return e.Source, true
		}
		return "", false
	})
}

func (q *GraphQuery) neighbors(path string, pick func(*Edge, string) (string, bool)) []*Node {
	id := graph.NodeID(path)
	seen := make(map[string]bool)
	var out []*Node
	for _, e := range q.g.Edges {
		other, ok := pick(e, id)
		if !ok || seen[other] {
			continue
		}
		seen[other] = true
		if n := q.g.Node(other); n != nil {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TopRisks returns up to n scored nodes with the highest risk, ties
// broken by node id.
func (q *GraphQuery) TopRisks(n int) []*Node {
	var scored []*Node
	for _, node := range q.g.Nodes {
		if node.Risk != nil {
			scored = append(scored, node)
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if *scored[i].Risk != *scored[j].Risk {
			return *scored[i].Risk > *scored[j].Risk
		}
		return scored[i].ID < scored[j].ID
	})
	if n >= 0 && n < len(scored) {
		scored = scored[:n]
	}
	return scored
}

// NodesBySeverity returns all nodes in the given severity bucket, ordered
// by node id.
func (q *GraphQuery) NodesBySeverity(sev Severity) []*Node {
	var out []*Node
	for _, node := range q.g.Nodes {
		if node.Severity == sev {
			out = append(out, node)
		}
	}
	return out
}
