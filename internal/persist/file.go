package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File keeps the snapshot as a plain text file.
type File struct {
	path string
}

// NewFile returns a store writing to path. The file is created on first save.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading snapshot %s: %w", f.path, err)
	}
	return string(data), nil
}

// Save replaces the file atomically through a temporary file in the same directory.
func (f *File) Save(content string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary snapshot: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing snapshot %s: %w", f.path, err)
	}
	return nil
}

func (f *File) Close() error { return nil }
