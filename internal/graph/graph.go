// Package graph holds the typed dependency graph model and the builder
// that resolves raw import references into edges.
package graph

import (
	"path"
	"sort"

	"github.com/codescope/codescope/internal/lang"
)

// Severity buckets a node's risk score.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Node is one analyzable unit, typically a single source file. Metric
// fields are zero until the metrics stage runs; Risk is nil until scored.
type Node struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Language string `json:"language"`

	Lines           int     `json:"lines"`
	Complexity      float64 `json:"complexity"`
	Maintainability float64 `json:"maintainability"`
	// HasMetrics is false for unsupported-language nodes; the risk scorer
	// substitutes a neutral mid-value for their metric terms.
	HasMetrics bool `json:"has_metrics"`

	Risk     *float64 `json:"risk,omitempty"`
	Severity Severity `json:"severity,omitempty"`
}

// Edge is a directed, typed relation between two nodes. Confidence is 1.0
// for exact resolution and lower for heuristic matches.
type Edge struct {
	Source     string       `json:"source"`
	Target     string       `json:"target"`
	Kind       lang.RefKind `json:"kind"`
	Confidence float64      `json:"confidence"`
}

// Graph is a complete dependency graph for one job. Nodes and Edges are
// kept sorted so identical inputs produce byte-identical output.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`

	byID   map[string]*Node
	fanIn  map[string]int
	fanOut map[string]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byID:   make(map[string]*Node),
		fanIn:  make(map[string]int),
		fanOut: make(map[string]int),
	}
}

// NodeID derives the stable node id for a file path.
func NodeID(p string) string {
	return path.Clean(p)
}

// AddNode inserts a node, replacing any previous node with the same id.
func (g *Graph) AddNode(n *Node) {
	if _, exists := g.byID[n.ID]; !exists {
		g.Nodes = append(g.Nodes, n)
	} else {
		for i, old := range g.Nodes {
			if old.ID == n.ID {
				g.Nodes[i] = n
				break
			}
		}
	}
	g.byID[n.ID] = n
}

// AddEdge inserts an edge. Both endpoints must already exist.
func (g *Graph) AddEdge(e *Edge) {
	g.Edges = append(g.Edges, e)
	g.fanOut[e.Source]++
	g.fanIn[e.Target]++
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node { return g.byID[id] }

// FanIn returns the number of incoming edges for a node id.
func (g *Graph) FanIn(id string) int { return g.fanIn[id] }

// FanOut returns the number of outgoing edges for a node id.
func (g *Graph) FanOut(id string) int { return g.fanOut[id] }

// sortStable orders nodes by id and edges by (source, target, kind).
func (g *Graph) sortStable() {
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Kind < b.Kind
	})
}
