package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"relay_bot/internal/model"
)

// File implements Storage as a JSON file on disk. Saves go through a
// temporary file and a rename so readers never see a partial document.
type File struct {
	path string
}

// NewFile returns a File store at path. The file is created on first Save.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads and decodes the file.
func (f *File) Load(_ context.Context) (model.Document, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.DefaultDocument(), nil
	}
	if err != nil {
		return model.DefaultDocument(), fmt.Errorf("read %s: %w", f.path, err)
	}
	return Decode(data)
}

// Save atomically replaces the file contents.
func (f *File) Save(_ context.Context, doc model.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// Close is a no-op.
func (f *File) Close() error {
	return nil
}
