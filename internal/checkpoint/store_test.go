package checkpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicklab/tmdb-enricher/internal/checkpoint"
)

func TestLoadMissingYieldsEmpty(t *testing.T) {
	t.Parallel()

	store := checkpoint.NewStore(filepath.Join(t.TempDir(), "checkpoint.json"), nil)
	state := store.Load()
	assert.Empty(t, state.ProcessedIndices)
	assert.Zero(t, state.OutputRows)
}

func TestLoadCorruptYieldsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := checkpoint.NewStore(path, nil)
	assert.Empty(t, store.Load().ProcessedIndices)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := checkpoint.NewStore(path, nil)

	state := checkpoint.State{
		RunID:            "run-1",
		ProcessedIndices: []int{4, 0, 2},
		OutputRows:       5,
	}
	require.NoError(t, store.Save(state))

	loaded := store.Load()
	assert.Equal(t, []int{0, 2, 4}, loaded.ProcessedIndices)
	assert.Equal(t, 5, loaded.OutputRows)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.False(t, loaded.SavedAt.IsZero())
}

func TestLoadSaveLoadIsNoOp(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := checkpoint.NewStore(path, nil)
	require.NoError(t, store.Save(checkpoint.State{ProcessedIndices: []int{1, 2, 3}, OutputRows: 3}))

	first := store.Load()
	require.NoError(t, store.Save(first))
	second := store.Load()
	assert.Equal(t, first.ProcessedIndices, second.ProcessedIndices)
	assert.Equal(t, first.OutputRows, second.OutputRows)
}

func TestSaveOverwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := checkpoint.NewStore(path, nil)
	require.NoError(t, store.Save(checkpoint.State{ProcessedIndices: []int{0}}))
	require.NoError(t, store.Save(checkpoint.State{ProcessedIndices: []int{0, 1}}))

	assert.Equal(t, []int{0, 1}, store.Load().ProcessedIndices)
}

func TestClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := checkpoint.NewStore(path, nil)
	require.NoError(t, store.Save(checkpoint.State{ProcessedIndices: []int{0}}))
	require.NoError(t, store.Clear())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing an already-cleared checkpoint is fine.
	require.NoError(t, store.Clear())
}

func TestStateSet(t *testing.T) {
	t.Parallel()

	state := checkpoint.State{ProcessedIndices: []int{3, 1}}
	set := state.Set()
	assert.True(t, set[1])
	assert.True(t, set[3])
	assert.False(t, set[2])
}
