package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		database, err := Open(dbPath)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer func() { _ = database.Close() }()

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "nested", "dir", "test.db")

		database, err := Open(dbPath)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer func() { _ = database.Close() }()

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created in nested directory")
		}
	})

	t.Run("runs migrations", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		database, err := Open(dbPath)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer func() { _ = database.Close() }()

		var tableName string
		err = database.QueryRowContext(context.Background(),
			"SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&tableName)
		if err != nil {
			t.Fatalf("kv table not created: %v", err)
		}
	})

	t.Run("reopening existing database is idempotent", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		first, err := Open(dbPath)
		if err != nil {
			t.Fatalf("first Open() error = %v", err)
		}
		if err := first.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		second, err := Open(dbPath)
		if err != nil {
			t.Fatalf("second Open() error = %v", err)
		}
		defer func() { _ = second.Close() }()
	})
}

func TestWithTx(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := Open(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = database.Close() }()

	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		err := database.WithTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
				"tx-key", `"v"`, 0)
			return err
		})
		if err != nil {
			t.Fatalf("WithTx() error = %v", err)
		}

		var value string
		err = database.QueryRowContext(ctx,
			"SELECT value FROM kv WHERE key = ?", "tx-key").Scan(&value)
		if err != nil {
			t.Fatalf("row not committed: %v", err)
		}
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := database.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
				"rollback-key", `"v"`, 0); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx() error = %v, want %v", err, boom)
		}

		var value string
		err = database.QueryRowContext(ctx,
			"SELECT value FROM kv WHERE key = ?", "rollback-key").Scan(&value)
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("expected no row after rollback, got err = %v", err)
		}
	})
}
