// Package kv provides a persistent key-value store with JSON serialization,
// backed by the application's SQLite database.
package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/medchat/medchat/internal/db"
)

// Well-known keys persisted by the application.
const (
	KeyTheme    = "theme"
	KeyLanguage = "language"
	KeyHistory  = "chatHistory"
)

// ErrNotFound is returned when a key is not present in the store.
var ErrNotFound = errors.New("key not found")

// Store is a JSON key-value store over SQLite.
type Store struct {
	db *db.DB
}

// NewStore creates a new key-value store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get reads the value for key and JSON-decodes it into dest.
// Returns ErrNotFound when the key is absent.
func (s *Store) Get(ctx context.Context, key string, dest any) error {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("reading key %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decoding key %q: %w", key, err)
	}
	return nil
}

// Set JSON-encodes value and upserts it under key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding key %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

// ErrUnchanged can be returned from an Update function to abandon the
// write; Update then reports success without touching the row.
var ErrUnchanged = errors.New("value unchanged")

// Update applies a read-modify-write on key inside a single transaction,
// so two processes mutating the same key cannot lose each other's writes.
// fn receives the current raw JSON (nil when the key is absent) and
// returns the value to store.
func (s *Store) Update(ctx context.Context, key string, fn func(raw []byte) (any, error)) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var raw sql.NullString
		err := tx.QueryRowContext(ctx,
			"SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("reading key %q: %w", key, err)
		}

		var current []byte
		if raw.Valid {
			current = []byte(raw.String)
		}
		value, err := fn(current)
		if err != nil {
			return err
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding key %q: %w", key, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(encoded), time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("writing key %q: %w", key, err)
		}
		return nil
	})
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	return err
}

// Delete removes key from the store. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}
	return nil
}
