package codescope

import (
	"github.com/codescope/codescope/internal/graph"
	"github.com/codescope/codescope/internal/lang"
	"github.com/codescope/codescope/internal/metrics"
	"github.com/codescope/codescope/internal/recommend"
)

// Public type aliases for internal types used in the engine API. These
// are Go type aliases (=), identical to the internal types at compile
// time. External consumers use these names; no conversion is needed.

type Graph = graph.Graph
type Node = graph.Node
type Edge = graph.Edge
type Severity = graph.Severity
type Diagnostic = lang.Diagnostic
type SymbolRecord = lang.SymbolRecord
type ProjectMetrics = metrics.ProjectMetrics
type Recommendation = recommend.Recommendation
type Recommender = recommend.Recommender

// SourceFile is one input file in a project snapshot. Language may be
// empty, in which case it is inferred from the path extension.
type SourceFile struct {
	Path     string
	Language string
	Content  []byte
}

// Snapshot is a read-only view of a project's files at one point in
// time, as provided by the host application's storage layer.
type Snapshot struct {
	ProjectID   string
	SourceRoots []string // roots for module-name resolution; empty = project root
	Files       []SourceFile
}

// Result is the output of a completed job. Diagnostics may be non-empty
// even on success: per-file and per-reference findings never fail a job.
type Result struct {
	JobID       string         `json:"job_id"`
	ProjectID   string         `json:"project_id"`
	Graph       *Graph         `json:"graph"`
	Metrics     ProjectMetrics `json:"metrics"`
	Diagnostics []Diagnostic   `json:"diagnostics"`
}

// RecommendationPayload serializes the result for the external
// recommendation service.
func (r *Result) RecommendationPayload() *recommend.Payload {
	return &recommend.Payload{
		ProjectID: r.ProjectID,
		Graph:     r.Graph,
		Metrics:   r.Metrics,
	}
}
