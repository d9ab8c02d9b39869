package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.BeginRun(ctx, "run-1", true))
	require.NoError(t, s.RecordOutcome(ctx, Outcome{RunID: "run-1", Library: "scipy", Submodule: "signal", Callable: "savgol", State: "persisted"}))
	require.NoError(t, s.RecordOutcome(ctx, Outcome{RunID: "run-1", Library: "scipy", Submodule: "signal", Callable: "lfilter", State: "rejected", Reason: "forbidden_type", Detail: "b is sequence"}))
	require.NoError(t, s.FinishRun(ctx, "run-1", 1, 1, 0))

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, "run-1", r.ID)
	assert.True(t, r.DryRun)
	assert.Equal(t, 1, r.Accepted)
	assert.Equal(t, 1, r.Rejected)
	assert.False(t, r.StartedAt.IsZero())
	assert.False(t, r.FinishedAt.Before(r.StartedAt))

	outcomes, err := s.Outcomes(ctx, "run-1")
	require.NoError(t, err)
	want := []Outcome{
		{RunID: "run-1", Library: "scipy", Submodule: "signal", Callable: "savgol", State: "persisted"},
		{RunID: "run-1", Library: "scipy", Submodule: "signal", Callable: "lfilter", State: "rejected", Reason: "forbidden_type", Detail: "b is sequence"},
	}
	if diff := cmp.Diff(want, outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_RunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.BeginRun(ctx, id, false))
	}
	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.True(t, runs[0].FinishedAt.IsZero())
}

func TestStore_FinishUnknownRun(t *testing.T) {
	s := openTestStore(t)
	assert.ErrorContains(t, s.FinishRun(context.Background(), "missing", 0, 0, 0), "not found")
}

func TestStore_ConcurrentOutcomes(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.BeginRun(ctx, "run", false))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.RecordOutcome(ctx, Outcome{RunID: "run", Library: "scipy", Submodule: "stats", Callable: "zscore", State: "persisted"}))
		}()
	}
	wg.Wait()

	outcomes, err := s.Outcomes(ctx, "run")
	require.NoError(t, err)
	assert.Len(t, outcomes, 8)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.BeginRun(ctx, "persisted", false))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, path, s.Path())
}
