// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"strings"

	"relay_bot/internal/model"
)

// Storage persists the whole document. Every Save is a full overwrite.
type Storage interface {
	// Load returns the stored document, or a default document when none
	// exists. A document that cannot be decoded yields the default document
	// together with a non-nil error.
	Load(ctx context.Context) (model.Document, error)
	Save(ctx context.Context, doc model.Document) error
	Close() error
}

// Open picks a backend from the path: a ".json" suffix selects a plain JSON
// file, anything else a SQLite database.
func Open(path string) (Storage, error) {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return NewFile(path), nil
	}
	return NewSQLite(path)
}
