package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDirectory is where the filesystem backend keeps files.
const DefaultDirectory = "./Files"

// FileSystem stores each name as a regular file inside one directory.
type FileSystem struct {
	dir string
}

// NewFileSystem creates the directory if needed and returns a backend rooted
// there.
func NewFileSystem(dir string) (*FileSystem, error) {
	if dir == "" {
		dir = DefaultDirectory
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileSystem{dir: dir}, nil
}

// Dir returns the backing directory.
func (f *FileSystem) Dir() string {
	return f.dir
}

// Save writes data to a temporary file and renames it into place so readers
// never see a partial file.
func (f *FileSystem) Save(_ context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(f.dir, name)); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}

func (f *FileSystem) Read(_ context.Context, name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (f *FileSystem) Exists(_ context.Context, name string) bool {
	info, ok := f.stat(name)
	return ok && info.Mode().IsRegular()
}

func (f *FileSystem) Size(_ context.Context, name string) int64 {
	info, ok := f.stat(name)
	if !ok || !info.Mode().IsRegular() {
		return -1
	}
	return info.Size()
}

func (f *FileSystem) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op.
func (f *FileSystem) Close() error {
	return nil
}

func (f *FileSystem) stat(name string) (fs.FileInfo, bool) {
	if validateName(name) != nil {
		return nil, false
	}
	info, err := os.Stat(filepath.Join(f.dir, name))
	if err != nil {
		return nil, false
	}
	return info, true
}
