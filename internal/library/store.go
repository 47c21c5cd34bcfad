// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library is the local store of works and their notes. It plays the
// role of the host reference manager: the resolution engine reads work
// fields from it and asks it to create or update TL;DR notes.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tldr-engine/pkg/types"
)

var (
	// ErrWorkNotFound is returned when a work key is not in the library.
	ErrWorkNotFound = errors.New("work not found")

	// ErrNoteNotFound is returned when a note key is not in the library.
	ErrNoteNotFound = errors.New("note not found")
)

// Library manages the SQLite database holding works, notes and outcomes.
type Library struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the library database at cfg.DBPath and creates the
// schema if it does not exist.
func Open(cfg types.LibraryConfig) (*Library, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("library database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps read-modify-write sequences serialized.
	db.SetMaxOpenConns(1)

	l := &Library{db: db, now: time.Now}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Library) Close() error {
	return l.db.Close()
}

func (l *Library) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS works (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			abstract TEXT NOT NULL DEFAULT '',
			added_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			key TEXT PRIMARY KEY,
			work_key TEXT NOT NULL REFERENCES works(key) ON DELETE CASCADE,
			body TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_work_key ON notes(work_key)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			work_key TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			note_key TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// AddWork inserts w or updates the title and abstract of an existing work
// with the same key. Insertion order is preserved for updates.
func (l *Library) AddWork(ctx context.Context, w types.Work) error {
	if w.Key == "" {
		return fmt.Errorf("work key is empty")
	}
	added := w.AddedAt
	if added.IsZero() {
		added = l.now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO works (key, title, abstract, added_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET title=excluded.title, abstract=excluded.abstract`,
		w.Key, w.Title, w.Abstract, added.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting work %s: %w", w.Key, err)
	}
	return nil
}

// Work returns the work with key.
func (l *Library) Work(ctx context.Context, key string) (types.Work, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT key, title, abstract, added_at FROM works WHERE key = ?`, key)
	w, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Work{}, fmt.Errorf("%s: %w", key, ErrWorkNotFound)
	}
	return w, err
}

// Works returns all works in the order they were added.
func (l *Library) Works(ctx context.Context) ([]types.Work, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT key, title, abstract, added_at FROM works ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing works: %w", err)
	}
	defer rows.Close()

	var works []types.Work
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWork(s scanner) (types.Work, error) {
	var w types.Work
	var added string
	if err := s.Scan(&w.Key, &w.Title, &w.Abstract, &added); err != nil {
		return types.Work{}, err
	}
	if t, err := time.Parse(time.RFC3339Nano, added); err == nil {
		w.AddedAt = t
	}
	return w, nil
}

// DeleteWork removes a work and its notes.
func (l *Library) DeleteWork(ctx context.Context, key string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM works WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting work %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", key, ErrWorkNotFound)
	}
	return nil
}

// Notes returns the keys of the notes attached to workKey.
func (l *Library) Notes(ctx context.Context, workKey string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT key FROM notes WHERE work_key = ? ORDER BY updated_at, key`, workKey)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Note returns the note with key.
func (l *Library) Note(ctx context.Context, key string) (types.Note, error) {
	var n types.Note
	var updated string
	err := l.db.QueryRowContext(ctx,
		`SELECT key, work_key, body, updated_at FROM notes WHERE key = ?`, key,
	).Scan(&n.Key, &n.WorkKey, &n.Body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Note{}, fmt.Errorf("%s: %w", key, ErrNoteNotFound)
	}
	if err != nil {
		return types.Note{}, fmt.Errorf("reading note %s: %w", key, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		n.UpdatedAt = t
	}
	return n, nil
}

// DeleteNote removes the note with key. A missing note is not an error.
func (l *Library) DeleteNote(ctx context.Context, key string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM notes WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting note %s: %w", key, err)
	}
	return nil
}

// SaveNote writes body to noteKey when that note exists under workKey, and
// otherwise creates a new note under workKey with a fresh key. The work
// must exist. The write happens in one transaction.
func (l *Library) SaveNote(ctx context.Context, workKey, noteKey, body string) (string, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM works WHERE key = ?`, workKey).Scan(&exists); err != nil {
		return "", fmt.Errorf("checking work %s: %w", workKey, err)
	}
	if exists == 0 {
		return "", fmt.Errorf("%s: %w", workKey, ErrWorkNotFound)
	}

	now := l.now().UTC().Format(time.RFC3339Nano)
	if noteKey != "" {
		res, err := tx.ExecContext(ctx,
			`UPDATE notes SET body = ?, updated_at = ? WHERE key = ? AND work_key = ?`,
			body, now, noteKey, workKey)
		if err != nil {
			return "", fmt.Errorf("updating note %s: %w", noteKey, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			noteKey = ""
		}
	}
	if noteKey == "" {
		noteKey = newNoteKey()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notes (key, work_key, body, updated_at) VALUES (?, ?, ?, ?)`,
			noteKey, workKey, body, now)
		if err != nil {
			return "", fmt.Errorf("creating note: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing note: %w", err)
	}
	return noteKey, nil
}

func newNoteKey() string {
	return uuid.NewString()
}
