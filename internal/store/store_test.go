package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sappho.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestTx_CommitAndRollback(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.DB().Exec(`CREATE TABLE notes (body TEXT)`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO notes (body) VALUES ('kept')`)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boom := errors.New("boom")
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO notes (body) VALUES ('discarded')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx error = %v, want %v", err, boom)
	}

	var count int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1 (rollback must discard the second insert)", count)
	}
}

func TestMigrate_AppliesOncePerComponent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	applied := 0
	migrations := []Migration{
		{
			Version:     1,
			Description: "create notes",
			Up: func(tx *sql.Tx) error {
				applied++
				_, err := tx.Exec(`CREATE TABLE notes (body TEXT)`)
				return err
			},
		},
	}

	if err := s.Migrate(ctx, "library", migrations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Migrate(ctx, "library", migrations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied != 1 {
		t.Errorf("migration ran %d times, want 1", applied)
	}

	var count int
	err := s.DB().QueryRow(
		`SELECT COUNT(*) FROM _migrations WHERE component = 'library' AND version = 1`,
	).Scan(&count)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("_migrations rows = %d, want 1", count)
	}
}

func TestMigrate_FailedMigrationRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Migrate(ctx, "library", []Migration{
		{Version: 1, Description: "fails", Up: func(tx *sql.Tx) error { return boom }},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Migrate error = %v, want %v", err, boom)
	}

	var count int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&count); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("failed migration was recorded (%d rows)", count)
	}
}

func TestCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sappho.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if _, err := s.DB().Exec(`CREATE TABLE notes (body TEXT)`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.DB().Exec(`INSERT INTO notes (body) VALUES ('x')`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Checkpoint(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// After a TRUNCATE checkpoint all pages live in the main file.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Size() == 0 {
		t.Error("main database file is empty after checkpoint")
	}
}
