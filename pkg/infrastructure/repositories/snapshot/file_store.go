// Package snapshot persists master-data collections, one logical file or row per
// entity type, replacing the whole collection on every save.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/aps/pkg/domain/repositories"
)

// FileStore keeps one YAML document per entity kind inside a directory
type FileStore struct {
	dir string
}

// Verify interface compliance
var _ repositories.SnapshotStore = (*FileStore)(nil)

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file backing a kind
func (s *FileStore) Path(kind string) string {
	return filepath.Join(s.dir, kind+".yaml")
}

// Load decodes the kind's file into out; a missing file is not an error
func (s *FileStore) Load(kind string, out any) (bool, error) {
	data, err := os.ReadFile(s.Path(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s snapshot: %w", kind, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("invalid %s snapshot yaml: %w", kind, err)
	}
	return true, nil
}

// Save replaces the kind's file atomically via a temp file and rename
func (s *FileStore) Save(kind string, records any) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}
	tmp, err := os.CreateTemp(s.dir, kind+"-*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", kind, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s snapshot: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.Path(kind))
}
