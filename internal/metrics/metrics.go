// Package metrics computes per-node structural metrics and per-project
// aggregates over a completed dependency graph.
//
// Maintainability uses the rescaled Visual Studio variant of the
// maintainability index:
//
//	MI = clamp((171 − 5.2·ln(V) − 0.23·CC − 16.2·ln(LOC) + 50·sin(√(2.4·CR))) · 100/171, 0, 100)
//
// with Halstead volume V approximated by LOC (operand tallies are not
// kept at file granularity) and CR the comment ratio in [0,1]. Higher
// complexity or size strictly lowers the index; the comment bonus term is
// increasing on its domain since √(2.4·CR) stays below π/2.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/codescope/codescope/internal/graph"
	"github.com/codescope/codescope/internal/lang"
)

// NodeMetrics are the per-file metrics derived from an adapter's raw
// counts. Like SymbolRecord, they are a pure function of content and are
// cached alongside it.
type NodeMetrics struct {
	Lines           int     `json:"lines"` // non-blank, non-comment
	Complexity      float64 `json:"complexity"`
	Maintainability float64 `json:"maintainability"`
	CommentRatio    float64 `json:"comment_ratio"`
	Supported       bool    `json:"supported"`
}

// Compute derives NodeMetrics from a symbol record's raw counts.
// Cyclomatic complexity is branches+1, normalized identically for every
// language because adapters all report plain branch-construct counts.
func Compute(rec *lang.SymbolRecord) NodeMetrics {
	loc := rec.Counts.TotalLines - rec.Counts.BlankLines - rec.Counts.CommentLines
	if loc < 0 {
		loc = 0
	}
	nonBlank := rec.Counts.TotalLines - rec.Counts.BlankLines
	ratio := 0.0
	if nonBlank > 0 {
		ratio = float64(rec.Counts.CommentLines) / float64(nonBlank)
	}

	m := NodeMetrics{
		Lines:        loc,
		CommentRatio: ratio,
		Supported:    rec.Caps.Has(lang.CapComplexity),
	}
	if !m.Supported {
		return m
	}
	m.Complexity = float64(rec.Counts.Branches) + 1
	m.Maintainability = maintainabilityIndex(loc, m.Complexity, ratio)
	return m
}

func maintainabilityIndex(loc int, cc, commentRatio float64) float64 {
	if loc <= 0 {
		return 100
	}
	volume := float64(loc)
	mi := 171 -
		5.2*math.Log(volume) -
		0.23*cc -
		16.2*math.Log(float64(loc)) +
		50*math.Sin(math.Sqrt(2.4*commentRatio))
	mi = mi * 100 / 171
	return math.Min(100, math.Max(0, mi))
}

// Apply copies metrics onto a graph node.
func Apply(n *graph.Node, m NodeMetrics) {
	n.Lines = m.Lines
	n.Complexity = m.Complexity
	n.Maintainability = m.Maintainability
	n.HasMetrics = m.Supported
}

// ProjectMetrics are order-independent aggregates over all nodes.
type ProjectMetrics struct {
	TotalFiles          int            `json:"total_files"`
	TotalLines          int            `json:"total_lines"`
	MeanComplexity      float64        `json:"mean_complexity"`
	MeanMaintainability float64        `json:"mean_maintainability"`
	Languages           map[string]int `json:"languages"`
	ImportCycles        [][]string     `json:"import_cycles,omitempty"`
}

// Aggregate reduces node metrics into project totals. Means cover nodes
// with metrics; unsupported-language nodes contribute lines only.
func Aggregate(g *graph.Graph) ProjectMetrics {
	pm := ProjectMetrics{
		TotalFiles: len(g.Nodes),
		Languages:  make(map[string]int),
	}
	var complexities, maintainabilities []float64
	for _, n := range g.Nodes {
		pm.TotalLines += n.Lines
		pm.Languages[n.Language]++
		if n.HasMetrics {
			complexities = append(complexities, n.Complexity)
			maintainabilities = append(maintainabilities, n.Maintainability)
		}
	}
	if len(complexities) > 0 {
		pm.MeanComplexity = stat.Mean(complexities, nil)
		pm.MeanMaintainability = stat.Mean(maintainabilities, nil)
	}
	pm.ImportCycles = ImportCycles(g)
	return pm
}
