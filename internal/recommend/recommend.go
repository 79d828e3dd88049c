// Package recommend defines the boundary to the external recommendation
// service. The engine hands over a finished, risk-annotated graph and
// receives recommendation records back; generation internals (LLM or
// otherwise) are the service's business.
package recommend

import (
	"context"

	"github.com/codescope/codescope/internal/graph"
	"github.com/codescope/codescope/internal/metrics"
)

// Recommendation is one actionable suggestion from the service.
type Recommendation struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"` // refactoring, security, performance, maintainability
	Confidence  float64 `json:"confidence"`
	Impact      float64 `json:"impact"`
	Effort      string  `json:"effort"` // low, medium, high
}

// Payload is the serialized analysis shipped to the service.
type Payload struct {
	ProjectID string                 `json:"project_id"`
	Graph     *graph.Graph           `json:"graph"`
	Metrics   metrics.ProjectMetrics `json:"metrics"`
}

// Recommender asks the external service for recommendations. The engine
// never retries; surfacing failures is the caller's responsibility.
type Recommender interface {
	Recommend(ctx context.Context, p *Payload) ([]Recommendation, error)
}
