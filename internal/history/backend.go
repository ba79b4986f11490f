package history

import (
	"strings"

	"github.com/unkn0wn-root/ember/internal/errdef"
)

const defaultMaxEntries = 200

// Backend is the storage used to record runs. Store and SQLStore implement it.
type Backend interface {
	Append(entry Entry) error
	Recent(n int) ([]Entry, error)
	ByFile(path string) ([]Entry, error)
	Delete(id string) (bool, error)
	Close() error
}

var (
	_ Backend = (*Store)(nil)
	_ Backend = (*SQLStore)(nil)
)

// Open returns the backend named by kind ("json" or "sqlite").
func Open(kind, path string, maxEntries int) (Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errdef.New(errdef.CodeHistory, "history path is empty")
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "json":
		st := NewStore(path, maxEntries)
		if err := st.Load(); err != nil {
			return nil, err
		}
		return st, nil
	case "sqlite":
		return OpenSQL(path, maxEntries)
	default:
		return nil, errdef.New(errdef.CodeHistory, "unknown history backend %q", kind)
	}
}
