package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrestlit/corpus-service/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "corpus.json"), filepath.Join(dir, "corpus.normalized.json"))
}

func TestStore_RawRoundTrip(t *testing.T) {
	s := newTestStore(t)

	records := []domain.RawRecord{
		{
			ID:      "12345678",
			PMID:    "12345678",
			DOI:     "10.1234/test",
			Title:   "Cognitive outcomes",
			Authors: []string{"Smith JA"},
			Year:    2023,
			Links:   domain.Links{DOI: "https://doi.org/10.1234/test"},
			Flags:   domain.Flags{OpenAccess: domain.BoolPtr(true)},
		},
	}

	require.NoError(t, s.SaveRaw(records))

	got, err := s.LoadRaw()
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestStore_NormalizedRoundTrip(t *testing.T) {
	s := newTestStore(t)

	records := []domain.NormalizedRecord{
		{
			RawRecord:           domain.RawRecord{ID: "1", Title: "T", Year: 2020},
			NormalizedAuthors:   []string{"Smith J"},
			IsAbstractTruncated: true,
		},
	}

	require.NoError(t, s.SaveNormalized(records))

	got, err := s.LoadNormalized()
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestStore_MissingFileIsEmptyCorpus(t *testing.T) {
	s := newTestStore(t)

	raw, err := s.LoadRaw()
	require.NoError(t, err)
	assert.Empty(t, raw)

	normalized, err := s.LoadNormalized()
	require.NoError(t, err)
	assert.Empty(t, normalized)
}

func TestStore_CorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(path, filepath.Join(dir, "corpus.normalized.json"))
	_, err := s.LoadRaw()
	assert.Error(t, err)
}

func TestStore_CreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	s := New(
		filepath.Join(dir, "nested", "data", "corpus.json"),
		filepath.Join(dir, "nested", "data", "corpus.normalized.json"),
	)

	require.NoError(t, s.SaveRaw([]domain.RawRecord{{ID: "1", Title: "T"}}))

	got, err := s.LoadRaw()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	s := New(path, filepath.Join(dir, "corpus.normalized.json"))

	require.NoError(t, s.SaveRaw([]domain.RawRecord{{ID: "1", Title: "T"}}))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
