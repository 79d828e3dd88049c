package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/internal/graph"
)

func scoredNode(t *testing.T, g *graph.Graph, id string) float64 {
	t.Helper()
	n := g.Node(id)
	require.NotNil(t, n)
	require.NotNil(t, n.Risk)
	return *n.Risk
}

func metricNode(id string, complexity, maintainability float64) *graph.Node {
	return &graph.Node{
		ID: id, Path: id, Language: "python",
		Complexity: complexity, Maintainability: maintainability,
		HasMetrics: true,
	}
}

func graphOf(nodes ...*graph.Node) *graph.Graph {
	g := graph.New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	return g
}

func TestWeights_Normalize(t *testing.T) {
	w := Weights{Complexity: 2, Maintainability: 1, FanIn: 0.5, FanOut: 0.5}.Normalize()
	assert.InDelta(t, 0.5, w.Complexity, 1e-9)
	assert.InDelta(t, 0.25, w.Maintainability, 1e-9)
	assert.InDelta(t, 1.0, w.Complexity+w.Maintainability+w.FanIn+w.FanOut, 1e-9)

	assert.Equal(t, DefaultWeights, Weights{}.Normalize())
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, graph.SeverityCritical, SeverityFor(0.9))
	assert.Equal(t, graph.SeverityCritical, SeverityFor(0.8))
	assert.Equal(t, graph.SeverityHigh, SeverityFor(0.7))
	assert.Equal(t, graph.SeverityMedium, SeverityFor(0.5))
	assert.Equal(t, graph.SeverityLow, SeverityFor(0.1))
	assert.Equal(t, graph.SeverityLow, SeverityFor(0))
}

func TestWeightedScorer_ScoresEveryNode(t *testing.T) {
	g := graphOf(
		metricNode("a.py", 1, 100),
		metricNode("b.py", 30, 20),
	)
	s := NewWeightedScorer(DefaultWeights)
	require.NoError(t, s.Score(context.Background(), g))

	low := scoredNode(t, g, "a.py")
	high := scoredNode(t, g, "b.py")
	assert.Less(t, low, high)
	assert.GreaterOrEqual(t, low, 0.0)
	assert.LessOrEqual(t, high, 1.0)
	assert.NotEmpty(t, g.Node("a.py").Severity)
}

func TestWeightedScorer_PristineNodeScoresZero(t *testing.T) {
	g := graphOf(metricNode("a.py", 1, 100))
	require.NoError(t, NewWeightedScorer(DefaultWeights).Score(context.Background(), g))
	assert.Zero(t, scoredNode(t, g, "a.py"))
	assert.Equal(t, graph.SeverityLow, g.Node("a.py").Severity)
}

func TestWeightedScorer_FanRaisesRisk(t *testing.T) {
	isolated := graphOf(metricNode("hub.py", 5, 80))
	require.NoError(t, NewWeightedScorer(DefaultWeights).Score(context.Background(), isolated))
	baseline := scoredNode(t, isolated, "hub.py")

	coupled := graphOf(
		metricNode("hub.py", 5, 80),
		metricNode("a.py", 1, 100),
		metricNode("b.py", 1, 100),
	)
	coupled.AddEdge(&graph.Edge{Source: "a.py", Target: "hub.py", Kind: "imports", Confidence: 1})
	coupled.AddEdge(&graph.Edge{Source: "b.py", Target: "hub.py", Kind: "imports", Confidence: 1})
	coupled.AddEdge(&graph.Edge{Source: "hub.py", Target: "a.py", Kind: "imports", Confidence: 1})
	require.NoError(t, NewWeightedScorer(DefaultWeights).Score(context.Background(), coupled))

	assert.Greater(t, scoredNode(t, coupled, "hub.py"), baseline)
}

func TestWeightedScorer_UnsupportedNodeNeutral(t *testing.T) {
	n := &graph.Node{ID: "data.bin", Path: "data.bin", Language: "unknown"}
	g := graphOf(n)
	require.NoError(t, NewWeightedScorer(DefaultWeights).Score(context.Background(), g))

	// Metric terms contribute the neutral mid-value; topology terms are 0.
	expected := DefaultWeights.Complexity*neutralValue + DefaultWeights.Maintainability*neutralValue
	assert.InDelta(t, expected, scoredNode(t, g, "data.bin"), 1e-9)
}

func TestSaturate(t *testing.T) {
	assert.Zero(t, saturate(0, 10))
	assert.InDelta(t, 0.5, saturate(10, 10), 1e-9)
	assert.Zero(t, saturate(-5, 10))
	assert.Less(t, saturate(1000, 10), 1.0)
	assert.Less(t, saturate(5, 10), saturate(20, 10))
}

func TestScriptScorer_CustomExpression(t *testing.T) {
	g := graphOf(metricNode("a.py", 9, 50))
	s := NewScriptScorer(`complexity / 10.0`)
	require.NoError(t, s.Score(context.Background(), g))
	assert.InDelta(t, 0.9, scoredNode(t, g, "a.py"), 1e-9)
	assert.Equal(t, graph.SeverityCritical, g.Node("a.py").Severity)
}

func TestScriptScorer_ClampsToUnitInterval(t *testing.T) {
	g := graphOf(metricNode("a.py", 5, 50))
	require.NoError(t, NewScriptScorer(`42`).Score(context.Background(), g))
	assert.Equal(t, 1.0, scoredNode(t, g, "a.py"))
}

func TestScriptScorer_TopologyGlobals(t *testing.T) {
	g := graphOf(
		metricNode("a.py", 1, 100),
		metricNode("b.py", 1, 100),
	)
	g.AddEdge(&graph.Edge{Source: "a.py", Target: "b.py", Kind: "imports", Confidence: 1})

	require.NoError(t, NewScriptScorer(`float(fan_in) / 2.0`).Score(context.Background(), g))
	assert.InDelta(t, 0.5, scoredNode(t, g, "b.py"), 1e-9)
	assert.Zero(t, scoredNode(t, g, "a.py"))
}

func TestScriptScorer_ErrorFailsScoring(t *testing.T) {
	g := graphOf(metricNode("a.py", 1, 100))

	err := NewScriptScorer(`this is not risor(`).Score(context.Background(), g)
	require.Error(t, err)

	err = NewScriptScorer(`"a string"`).Score(context.Background(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want a number")
}
