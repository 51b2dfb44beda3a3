// Package store persists editing sessions in SQLite so a served session
// survives restarts and a CLI run can pick up where another left off.
//
// Usage:
//
//	st, err := store.Open("smartdoc.db", log)
//	err = st.Save(ctx, sess.State())
//	state, err := st.Load(ctx, id)
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/gaurav-prasanna/smartdoc/core/session"
)

// ErrNotFound is returned by Load and Delete for unknown session ids.
var ErrNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_updated ON sessions(updated_at);
`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Entry is one row of List.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is a SQLite-backed session store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// Open opens (creating if needed) the database at path. ":memory:" opens a
// private in-memory database.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	log.Debug("Session store opened", zap.String("path", path))
	return &Store{db: db, log: log.Named("store"), now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts or replaces the state under st.ID.
func (s *Store) Save(ctx context.Context, st session.State) error {
	if st.ID == "" {
		return errors.New("store: state has no id")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("store: encoding state: %w", err)
	}
	title := ""
	if st.Document != nil {
		title = st.Document.Title
	}
	now := s.now().UnixMilli()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		st.ID, title, string(data), now, now)
	if err != nil {
		return fmt.Errorf("store: saving %s: %w", st.ID, err)
	}
	s.log.Debug("Session saved", zap.String("session", st.ID), zap.Int("bytes", len(data)))
	return nil
}

// Load returns the saved state for id.
func (s *Store) Load(ctx context.Context, id string) (session.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return session.State{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return session.State{}, fmt.Errorf("store: loading %s: %w", id, err)
	}
	var st session.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return session.State{}, fmt.Errorf("store: decoding %s: %w", id, err)
	}
	return st, nil
}

// List returns saved sessions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, updated_at FROM sessions ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: listing: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Title, &ms); err != nil {
			return nil, fmt.Errorf("store: listing: %w", err)
		}
		e.UpdatedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the session id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: deleting %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
