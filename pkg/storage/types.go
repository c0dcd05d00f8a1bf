package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a named file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidName is returned for names that cannot address a stored file.
	ErrInvalidName = errors.New("invalid file name")

	// ErrClosed is returned by backends used after Close.
	ErrClosed = errors.New("storage closed")
)

// Backend stores named blobs. Implementations must be safe for concurrent use.
type Backend interface {
	// Save writes data under name, replacing any previous content.
	Save(ctx context.Context, name string, data []byte) error

	// Read returns the content stored under name, or ErrNotFound.
	Read(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether name is stored.
	Exists(ctx context.Context, name string) bool

	// Size returns the stored length of name, or -1 when it is missing.
	Size(ctx context.Context, name string) int64

	// List returns all stored names in lexical order.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindFileSystem = "filesystem"
	KindSQLite     = "sqlite"
)

// Driver names registered by the SQLite driver imports.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// Options selects and configures a backend.
type Options struct {
	// Kind is "filesystem" or "sqlite". Default: filesystem.
	Kind string

	// Directory holds stored files for the filesystem backend.
	Directory string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// SQLiteDriver is "sqlite" (modernc) or "sqlite3" (mattn). Default: sqlite.
	SQLiteDriver string

	// BusyTimeout is how long SQLite waits on a locked database.
	BusyTimeout time.Duration
}

// Open creates the backend described by opts.
func Open(opts Options) (Backend, error) {
	switch opts.Kind {
	case "", KindFileSystem:
		return NewFileSystem(opts.Directory)
	case KindSQLite:
		return NewSQLiteBackend(SQLiteConfig{
			Path:        opts.SQLitePath,
			Driver:      opts.SQLiteDriver,
			BusyTimeout: opts.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Kind)
	}
}

// BaseName returns the last element of a slash-separated path, the way
// uploads and downloads address stored files. It returns "" when nothing
// usable remains.
func BaseName(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	name := path.Base(p)
	if err := validateName(name); err != nil {
		return ""
	}
	return name
}

// tempPrefix marks in-progress filesystem writes. Names carrying it are
// reserved on every backend.
const tempPrefix = ".upload-"

func validateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.HasPrefix(name, tempPrefix):
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return nil
}
