// Package store persists the corpus as flat JSON documents: one array of
// raw records and one array of normalized records. The pipeline treats both
// as opaque whole-array load/save boundaries; there is no incremental or
// streaming contract.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arrestlit/corpus-service/internal/domain"
)

// Store reads and writes the corpus documents below a base directory.
type Store struct {
	rawPath        string
	normalizedPath string
}

// New creates a Store over the given file paths.
func New(rawPath, normalizedPath string) *Store {
	return &Store{
		rawPath:        rawPath,
		normalizedPath: normalizedPath,
	}
}

// LoadRaw reads the raw corpus. A missing file is an empty corpus, not an
// error, so first runs need no setup step.
func (s *Store) LoadRaw() ([]domain.RawRecord, error) {
	var records []domain.RawRecord
	if err := loadJSON(s.rawPath, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveRaw writes the raw corpus.
func (s *Store) SaveRaw(records []domain.RawRecord) error {
	return saveJSON(s.rawPath, records)
}

// LoadNormalized reads the normalized corpus. A missing file is an empty
// corpus.
func (s *Store) LoadNormalized() ([]domain.NormalizedRecord, error) {
	var records []domain.NormalizedRecord
	if err := loadJSON(s.normalizedPath, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveNormalized writes the normalized corpus.
func (s *Store) SaveNormalized(records []domain.NormalizedRecord) error {
	return saveJSON(s.normalizedPath, records)
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// saveJSON writes via a temp file and rename so a crash mid-write never
// leaves a truncated corpus behind.
func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
