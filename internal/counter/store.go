package counter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"schoolrecords/internal/entity"
)

var (
	// ErrNotFound means nothing has been persisted yet.
	ErrNotFound = errors.New("counter: no persisted counts")
	// ErrCorrupt means persisted data exists but cannot be used.
	ErrCorrupt = errors.New("counter: persisted counts are corrupt")
)

// Store persists Counts between process runs.
type Store interface {
	Load(ctx context.Context) (entity.Counts, error)
	Save(ctx context.Context, counts entity.Counts) error
}

// FileStore keeps counts as a JSON record in a side file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(_ context.Context) (entity.Counts, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return entity.Counts{}, ErrNotFound
	}
	if err != nil {
		return entity.Counts{}, fmt.Errorf("counter: read %s: %w", s.Path, err)
	}

	var counts entity.Counts
	if err := json.Unmarshal(data, &counts); err != nil {
		return entity.Counts{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return counts, nil
}

// Save replaces the file atomically so a crash mid-write leaves the previous
// record in place.
func (s *FileStore) Save(_ context.Context, counts entity.Counts) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("counter: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("counter: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("counter: sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("counter: replace %s: %w", s.Path, err)
	}
	return nil
}
