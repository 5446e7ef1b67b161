package history_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phpsniff/phpsniff/internal/adapters/outbound/history"
	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	entry := domain.RunEntry{
		Timestamp:    time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC),
		SessionID:    "2f1c7f0e-5c43-4a43-9d0a-6d1b0f8a1e11",
		Ruleset:      domain.DefaultRuleset,
		Roots:        []string{"src"},
		Totals:       domain.Totals{Errors: 3, Warnings: 1, Fixables: 2, Files: 12},
		FixableFiles: []string{"src/A.php"},
	}

	err := h.Save(dir, entry)
	require.NoError(t, err)

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Totals.Errors)
	assert.Equal(t, entry.SessionID, entries[0].SessionID)
	assert.True(t, entry.Timestamp.Equal(entries[0].Timestamp))
	assert.Equal(t, []string{"src/A.php"}, entries[0].FixableFiles)
}

func TestHistory_AppendMultiple(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	require.NoError(t, h.Save(dir, domain.RunEntry{SessionID: "s1", Totals: domain.Totals{Errors: 9}}))
	require.NoError(t, h.Save(dir, domain.RunEntry{SessionID: "s2", Totals: domain.Totals{Errors: 4}}))
	require.NoError(t, h.Save(dir, domain.RunEntry{SessionID: "s3", Totals: domain.Totals{Errors: 0}}))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 9, entries[0].Totals.Errors)
	assert.Equal(t, "s3", entries[2].SessionID)
}

func TestHistory_LoadEmpty(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	entries, err := h.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistory_FileLocation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, history.New().Save(dir, domain.RunEntry{SessionID: "s1"}))

	_, err := os.Stat(filepath.Join(dir, ".phpsniff", "history", "runs.json"))
	assert.NoError(t, err)
}

func TestHistory_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, ".phpsniff", "history", "runs.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0755))
	require.NoError(t, os.WriteFile(fp, []byte("not json"), 0644))

	_, err := history.New().Load(dir)
	assert.Error(t, err)
}

func TestHistory_DropsOldestBeyondLimit(t *testing.T) {
	dir := t.TempDir()
	h := history.NewWithLimit(2)

	require.NoError(t, h.Save(dir, domain.RunEntry{SessionID: "s1"}))
	require.NoError(t, h.Save(dir, domain.RunEntry{SessionID: "s2"}))
	require.NoError(t, h.Save(dir, domain.RunEntry{SessionID: "s3"}))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "s2", entries[0].SessionID)
	assert.Equal(t, "s3", entries[1].SessionID)
}

func TestHistory_NoLimit(t *testing.T) {
	dir := t.TempDir()
	h := history.NewWithLimit(0)

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Save(dir, domain.RunEntry{Totals: domain.Totals{Errors: i}}))
	}

	entries, err := h.Load(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}
