package history_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dakshscra/scra/internal/adapters/outbound/history"
	"github.com/dakshscra/scra/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	entry := domain.HistoryEntry{
		RunID:           "a1",
		Timestamp:       "2026-10-19 10:00:00",
		CommitHash:      "abc1234",
		Platforms:       "php,java",
		FilesScanned:    12,
		AreasOfInterest: 4,
		Complete:        true,
	}

	err := h.Save(dir, entry)
	require.NoError(t, err)

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(12), entries[0].FilesScanned)
	assert.Equal(t, "abc1234", entries[0].CommitHash)
	assert.True(t, entries[0].Complete)
}

func TestHistory_AppendMultiple(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	require.NoError(t, h.Save(dir, domain.HistoryEntry{RunID: "r1", AreasOfInterest: 3}))
	require.NoError(t, h.Save(dir, domain.HistoryEntry{RunID: "r2", AreasOfInterest: 5}))
	require.NoError(t, h.Save(dir, domain.HistoryEntry{RunID: "r3", AreasOfInterest: 1}))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "r1", entries[0].RunID)
	assert.Equal(t, int64(1), entries[2].AreasOfInterest)
}

func TestHistory_LoadEmpty(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	entries, err := h.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistory_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	nestedDir := filepath.Join(dir, "deep", "nested")
	h := history.New()

	err := h.Save(nestedDir, domain.HistoryEntry{RunID: "r1"})
	require.NoError(t, err)

	entries, err := h.Load(nestedDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHistory_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "history", "runs.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0755))
	require.NoError(t, os.WriteFile(fp, []byte("not json"), 0644))

	_, err := history.New().Load(dir)
	require.Error(t, err)

	err = history.New().Save(dir, domain.HistoryEntry{RunID: "r1"})
	assert.Error(t, err, "a corrupt history must not be overwritten")
}
