package codescope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryResult(t *testing.T) *Result {
	t.Helper()
	e := newTestEngine(t)
	jobID, err := e.Submit(context.Background(), Snapshot{
		ProjectID: "demo",
		Files: []SourceFile{
			{Path: "app.py", Content: []byte("import util\nimport models\n\ndef run():\n    if True:\n        while True:\n            for x in []:\n                pass\n")},
			{Path: "models.py", Content: []byte("import util\n\nclass Model:\n    pass\n")},
			{Path: "util.py", Content: []byte("def helper():\n    pass\n")},
		},
	})
	require.NoError(t, err)
	st := waitTerminal(t, e, jobID)
	require.Equal(t, StateCompleted, st.State)
	res, err := e.Result(jobID)
	require.NoError(t, err)
	return res
}

func nodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestQuery_Dependencies(t *testing.T) {
	q := queryResult(t).Query()

	assert.Equal(t, []string{"models.py", "util.py"}, nodeIDs(q.Dependencies("app.py")))
	assert.Equal(t, []string{"util.py"}, nodeIDs(q.Dependencies("models.py")))
	assert.Empty(t, q.Dependencies("util.py"))
	assert.Empty(t, q.Dependencies("missing.py"))
}

func TestQuery_Dependents(t *testing.T) {
	q := queryResult(t).Query()

	assert.Equal(t, []string{"app.py", "models.py"}, nodeIDs(q.Dependents("util.py")))
	assert.Equal(t, []string{"app.py"}, nodeIDs(q.Dependents("models.py")))
	assert.Empty(t, q.Dependents("app.py"))
}

func TestQuery_TopRisks(t *testing.T) {
	res := queryResult(t)
	q := res.Query()

	all := q.TopRisks(-1)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, *all[i-1].Risk, *all[i].Risk)
	}

	top := q.TopRisks(1)
	require.Len(t, top, 1)
	// app.py has the most branching and the most coupling.
	assert.Equal(t, "app.py", top[0].ID)

	assert.Empty(t, q.TopRisks(0))
}

func TestQuery_NodesBySeverity(t *testing.T) {
	res := queryResult(t)
	q := res.Query()

	total := 0
	for _, sev := range []Severity{"critical", "high", "medium", "low"} {
		nodes := q.NodesBySeverity(sev)
		for _, n := range nodes {
			assert.Equal(t, sev, n.Severity)
		}
		total += len(nodes)
	}
	assert.Equal(t, 3, total)
}
