package snapshot

import (
	"fmt"
	"io"

	"github.com/vsinha/aps/pkg/domain/repositories"
)

// Backend names accepted by Open
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Open builds the configured store. The returned closer is never nil.
func Open(backend, dir, sqlitePath string) (repositories.SnapshotStore, io.Closer, error) {
	switch backend {
	case BackendYAML, "":
		s, err := NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return s, io.NopCloser(nil), nil
	case BackendSQLite:
		s, err := OpenSQLite(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s (expected yaml or sqlite)", backend)
	}
}
