package risk

import (
	"context"
	"fmt"
	"math"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/codescope/codescope/internal/graph"
)

// ScriptScorer evaluates a Risor expression once per node, with the
// node's metrics and topology bound as globals. It lets operators swap in
// a custom risk model without rebuilding. Unlike WeightedScorer, an
// evaluation error is returned and fails the scoring stage.
//
// The expression must yield a number; results are clamped to [0,1].
// Available globals: complexity, maintainability, fan_in, fan_out, loc,
// has_metrics.
type ScriptScorer struct {
	source string
}

// NewScriptScorer wraps a Risor expression as a Scorer.
func NewScriptScorer(source string) *ScriptScorer {
	return &ScriptScorer{source: source}
}

func (s *ScriptScorer) Score(ctx context.Context, g *graph.Graph) error {
	for _, n := range g.Nodes {
		opts := []risor.Option{
			risor.WithGlobal("complexity", n.Complexity),
			risor.WithGlobal("maintainability", n.Maintainability),
			risor.WithGlobal("fan_in", int64(g.FanIn(n.ID))),
			risor.WithGlobal("fan_out", int64(g.FanOut(n.ID))),
			risor.WithGlobal("loc", int64(n.Lines)),
			risor.WithGlobal("has_metrics", n.HasMetrics),
		}
		result, err := risor.Eval(ctx, s.source, opts...)
		if err != nil {
			return fmt.Errorf("risk script for %s: %w", n.ID, err)
		}
		value, err := numberResult(result)
		if err != nil {
			return fmt.Errorf("risk script for %s: %w", n.ID, err)
		}
		value = math.Min(1, math.Max(0, value))
		n.Risk = &value
		n.Severity = SeverityFor(value)
	}
	return nil
}

func numberResult(obj object.Object) (float64, error) {
	switch v := obj.(type) {
	case *object.Float:
		return v.Value(), nil
	case *object.Int:
		return float64(v.Value()), nil
	default:
		return 0, fmt.Errorf("expression returned %s, want a number", obj.Type())
	}
}
