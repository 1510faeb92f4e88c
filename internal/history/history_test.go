package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaustill/cnextc/internal/diag"
)

func openTestStore(t *testing.T, retention int) *Store {
	t.Helper()
	s, err := Open(":memory:", retention, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndListRoundTrip(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	started := time.Now()
	finished := started.Add(time.Second)
	results := []FileResult{
		{Path: "a.cx", Errs: diag.Errors{diag.NewError(diag.CodeUseBeforeInit, 3, 1, "x used before init")}},
		{Path: "b.cx", Errs: nil},
	}

	require.NoError(t, s.Record(ctx, []string{"."}, started, finished, results))

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].FileCount)
	assert.Equal(t, 1, runs[0].ErrorCount)
	assert.False(t, runs[0].Clean)

	full, err := s.Get(ctx, runs[0].ID)
	require.NoError(t, err)
	require.Len(t, full.Diagnostics, 1)
	assert.Equal(t, "a.cx", full.Diagnostics[0].File)
	assert.Equal(t, string(diag.CodeUseBeforeInit), full.Diagnostics[0].Code)
}

func TestRecordMarksCleanRunWithNoErrors(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Record(ctx, []string{"."}, now, now, []FileResult{{Path: "a.cx"}}))

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Clean)
}

func TestRecordPrunesBeyondRetention(t *testing.T) {
	s := openTestStore(t, 2)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		now := time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, s.Record(ctx, []string{"."}, now, now, []FileResult{{Path: "a.cx"}}))
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListRespectsLimit(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		now := time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, s.Record(ctx, []string{"."}, now, now, []FileResult{{Path: "a.cx"}}))
	}

	runs, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
