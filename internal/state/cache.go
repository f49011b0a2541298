// Package state persists the last fetched snapshot so repeated invocations
// inside the TTL window skip the network.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codex-meter/codex-meter/internal/domain"
)

var ErrNotFound = errors.New("cache not found")

type Entry struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Snapshot  domain.Snapshot `json:"snapshot"`
}

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Load() (*Entry, error) {
	path := s.path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read cache file %s: %w", path, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", path, err)
	}
	return &entry, nil
}

// Save writes the snapshot atomically with 0600 so a half-written file never
// replaces a good one.
func (s *Store) Save(snapshot domain.Snapshot, fetchedAt time.Time) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", s.dir, err)
	}

	payload, err := json.MarshalIndent(Entry{FetchedAt: fetchedAt.UTC(), Snapshot: snapshot}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache payload: %w", err)
	}
	payload = append(payload, '\n')

	tmpFile, err := os.CreateTemp(s.dir, "usage-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("chmod temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path()); err != nil {
		return fmt.Errorf("replace cache file %s: %w", s.path(), err)
	}
	return nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, "usage.json")
}
