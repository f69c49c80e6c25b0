package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"relay_bot/internal/model"
	"relay_bot/migrations"
)

const (
	timeLayout   = "2006-01-02T15:04:05Z"
	documentName = "state"
)

// SQLite implements Storage as a single JSON row in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load reads the stored document.
func (s *SQLite) Load(ctx context.Context) (model.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE name = ?`, documentName,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultDocument(), nil
	}
	if err != nil {
		return model.DefaultDocument(), fmt.Errorf("query document: %w", err)
	}
	return Decode([]byte(body))
}

// Save overwrites the stored document in a single statement.
func (s *SQLite) Save(ctx context.Context, doc model.Document) error {
	body, err := Encode(doc)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		documentName, string(body), now,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// UpdatedAt returns when the document was last saved. The zero time means
// it was never saved.
func (s *SQLite) UpdatedAt(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM documents WHERE name = ?`, documentName,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query updated_at: %w", err)
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return t, nil
}
