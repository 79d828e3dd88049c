package jobstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id string, started time.Time) *Record {
	return &Record{
		ID:          id,
		ProjectID:   "proj",
		State:       "completed",
		Progress:    100,
		TotalFiles:  3,
		Diagnostics: 1,
		StartedAt:   started,
		CompletedAt: started.Add(2 * time.Second),
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	s := newTestStore(t)
	started := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Insert(testRecord("job-1", started)))

	got, err := s.Get("job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "proj", got.ProjectID)
	assert.Equal(t, "completed", got.State)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, 3, got.TotalFiles)
	assert.True(t, got.StartedAt.Equal(started))
}

func TestStore_GetUnknown(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_InsertDuplicateID(t *testing.T) {
	s := newTestStore(t)
	started := time.Now()
	require.NoError(t, s.Insert(testRecord("job-1", started)))
	require.Error(t, s.Insert(testRecord("job-1", started)))
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Insert(testRecord("old", base.Add(-time.Hour))))
	require.NoError(t, s.Insert(testRecord("new", base)))
	require.NoError(t, s.Insert(testRecord("mid", base.Add(-30*time.Minute))))

	recs, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "new", recs[0].ID)
	assert.Equal(t, "mid", recs[1].ID)
	assert.Equal(t, "old", recs[2].ID)

	limited, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_FailedJobRecord(t *testing.T) {
	s := newTestStore(t)
	rec := testRecord("job-err", time.Now())
	rec.State = "failed"
	rec.FatalError = "stage graph_building: duplicate node id"
	require.NoError(t, s.Insert(rec))

	got, err := s.Get("job-err")
	require.NoError(t, err)
	assert.Equal(t, "failed", got.State)
	assert.Contains(t, got.FatalError, "duplicate node id")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())
}
