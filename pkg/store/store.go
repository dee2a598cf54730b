// Package store implements the console's persisted state: a local SQLite
// file holding one JSON document per logical key. Every read and write is a
// full-value round trip; there are no partial updates. The service is the
// only writer, so no cross-process coordination is attempted.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Document keys. Each key holds one independently seeded JSON value.
const (
	KeyModels             = "models"
	KeyModelPolicy        = "model_policy"
	KeyPromptTemplates    = "prompt_templates"
	KeyPromptCategories   = "prompt_categories"
	KeyOntologies         = "ontologies"
	KeyOntologyCategories = "ontology_categories"
	KeyOntologyVersions   = "ontology_versions"
	KeyKnowledgeGraph     = "knowledge_graph"
	KeyGraphLayout        = "graph_layout"
)

// Store is a key-value document store over a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// pending migrations. Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent handler goroutines.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get reads the raw JSON document stored under key. The second return is
// false when the key has never been written.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM console_documents WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read document %s: %w", key, err)
	}
	return json.RawMessage(value), true, nil
}

// GetInto reads and unmarshals the document under key into out.
// Returns false without touching out when the key is absent.
func (s *Store) GetInto(ctx context.Context, key string, out any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("failed to decode document %s: %w", key, err)
	}
	return true, nil
}

// Count returns how many documents the store currently holds.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM console_documents`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Set marshals value and replaces the document under key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO console_documents (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, string(raw))
	if err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent writes value under key only when the key has never been
// written. Returns true when the write happened. An existing key is left
// untouched even if its value is empty or modified.
func (s *Store) SetIfAbsent(ctx context.Context, key string, value any) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to encode document %s: %w", key, err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO console_documents (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO NOTHING`,
		key, string(raw))
	if err != nil {
		return false, fmt.Errorf("failed to seed document %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to seed document %s: %w", key, err)
	}
	return n > 0, nil
}
