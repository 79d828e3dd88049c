// Package risk annotates graph nodes with a bounded risk score.
//
// The default WeightedScorer combines normalized complexity, inverted
// maintainability, and graph topology (fan-in/fan-out) with fixed
// weights. Scorer is an interface so the formula can be swapped for an
// external learned model, or for a ScriptScorer, without touching the
// graph builder or the pipeline.
package risk

import (
	"context"

	"github.com/codescope/codescope/internal/graph"
)

// Weights for the weighted-sum scorer. They should sum to 1 to keep the
// score in [0,1]; Normalize rescales them if they do not.
type Weights struct {
	Complexity      float64 `koanf:"complexity" json:"complexity"`
	Maintainability float64 `koanf:"maintainability" json:"maintainability"`
	FanIn           float64 `koanf:"fan_in" json:"fan_in"`
	FanOut          float64 `koanf:"fan_out" json:"fan_out"`
}

// DefaultWeights is the documented default weighting.
var DefaultWeights = Weights{
	Complexity:      0.4,
	Maintainability: 0.3,
	FanIn:           0.15,
	FanOut:          0.15,
}

// Normalize rescales the weights to sum to 1. Zero weights fall back to
// the defaults.
func (w Weights) Normalize() Weights {
	sum := w.Complexity + w.Maintainability + w.FanIn + w.FanOut
	if sum <= 0 {
		return DefaultWeights
	}
	return Weights{
		Complexity:      w.Complexity / sum,
		Maintainability: w.Maintainability / sum,
		FanIn:           w.FanIn / sum,
		FanOut:          w.FanOut / sum,
	}
}

// Scorer annotates every node of a graph with a risk score and severity.
type Scorer interface {
	Score(ctx context.Context, g *graph.Graph) error
}

// Severity thresholds.
const (
	thresholdCritical = 0.8
	thresholdHigh     = 0.6
	thresholdMedium   = 0.35
)

// SeverityFor buckets a risk value.
func SeverityFor(risk float64) graph.Severity {
	switch {
	case risk >= thresholdCritical:
		return graph.SeverityCritical
	case risk >= thresholdHigh:
		return graph.SeverityHigh
	case risk >= thresholdMedium:
		return graph.SeverityMedium
	default:
		return graph.SeverityLow
	}
}

// Saturation half-points: a node with complexity 10 or fan count 5 sits
// at 0.5 on that term. neutralValue substitutes for missing metrics.
const (
	complexityHalfPoint = 10.0
	fanHalfPoint        = 5.0
	neutralValue        = 0.5
)

// WeightedScorer is the default formula-based implementation. It never
// fails: nodes without metrics score with neutral mid-values.
type WeightedScorer struct {
	weights Weights
}

// NewWeightedScorer creates a scorer. Zero-value weights use the defaults.
func NewWeightedScorer(w Weights) *WeightedScorer {
	return &WeightedScorer{weights: w.Normalize()}
}

func (s *WeightedScorer) Score(_ context.Context, g *graph.Graph) error {
	for _, n := range g.Nodes {
		value := s.scoreNode(n, g.FanIn(n.ID), g.FanOut(n.ID))
		n.Risk = &value
		n.Severity = SeverityFor(value)
	}
	return nil
}

func (s *WeightedScorer) scoreNode(n *graph.Node, fanIn, fanOut int) float64 {
	complexityTerm := neutralValue
	maintainTerm := neutralValue
	if n.HasMetrics {
		complexityTerm = saturate(n.Complexity-1, complexityHalfPoint)
		maintainTerm = 1 - n.Maintainability/100
	}
	return s.weights.Complexity*complexityTerm +
		s.weights.Maintainability*maintainTerm +
		s.weights.FanIn*saturate(float64(fanIn), fanHalfPoint) +
		s.weights.FanOut*saturate(float64(fanOut), fanHalfPoint)
}

// saturate maps [0,∞) onto [0,1), monotonically, with x == half at 0.5.
func saturate(x, half float64) float64 {
	if x < 0 {
		x = 0
	}
	return x / (x + half)
}
