// Package state persists the last notified appointment date.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/david/termin-watch/internal/models"
)

// Store reads and writes the last known date. Load returns nil when no
// date has been stored yet.
type Store interface {
	Load() (*models.Date, error)
	Save(d models.Date) error
}

// FileStore keeps the date as a single YYYY-MM-DD line.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load returns nil, nil for a missing or empty file. Malformed content is
// an error; callers treat it like a missing file.
func (s *FileStore) Load() (*models.Date, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", s.Path, err)
	}

	line := strings.TrimSpace(string(data))
	if line == "" {
		return nil, nil
	}
	d, err := models.ParseISO(line)
	if err != nil {
		return nil, fmt.Errorf("malformed state %s: %w", s.Path, err)
	}
	return &d, nil
}

// Save writes through a temp file in the same directory and renames it
// over the old file.
func (s *FileStore) Save(d models.Date) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.WriteString(d.String() + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace state %s: %w", s.Path, err)
	}
	return nil
}
