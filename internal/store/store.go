// Package store is the local key/value persistence layer.
//
// State that must survive restarts (session token, active course and
// lesson, theme, first-run flag) lives in a SQLite database under the
// data directory, alongside a best-effort log of completed turns.
// Semantics are deliberately weak: last writer wins, and the user may
// wipe the directory at any time - nothing here is a durability
// guarantee.
//
// A flock on the data directory keeps a second wofa process from
// writing the same database; it provides no cross-process state sync.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wofa-ai/wofa/internal/log"
)

// Well-known keys. The names match the web client's localStorage keys
// so the two clients stay conceptually interchangeable.
const (
	KeyToken        = "token"
	KeyActiveCourse = "activeCourse"
	KeyActiveLesson = "activeLesson"
	KeyTheme        = "theme"
	KeyWelcomed     = "welcomed"
)

var (
	// ErrKeyNotFound indicates the key has no stored value.
	ErrKeyNotFound = errors.New("key not found")

	// ErrLocked indicates another wofa process holds the data directory.
	ErrLocked = errors.New("data directory locked by another instance")
)

// Store is a SQLite-backed key/value store plus the turn history log.
type Store struct {
	db     *sql.DB
	lock   *flock.Flock
	logger log.Logger
}

// Open opens (creating if necessary) the store under dataDir and runs
// pending schema migrations. Fails with ErrLocked if another process
// holds the directory.
func Open(dataDir string, logger log.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, "wofa.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring data directory lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dataDir)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "wofa.db"))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// modernc.org/sqlite serializes through a single connection anyway;
	// cap the pool so busy errors cannot occur.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrateSchema(db); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{db: db, lock: lock, logger: logger}, nil
}

// Close releases the database and the directory lock.
func (s *Store) Close() error {
	dbErr := s.db.Close()
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("releasing data directory lock", "error", err)
	}
	return dbErr
}

// Get returns the value for key, or ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("reading key %q: %w", key, err)
	}
	return value, nil
}

// GetDefault returns the value for key, or fallback when absent or on
// any read failure - persistence is best-effort and absence is normal.
func (s *Store) GetDefault(ctx context.Context, key, fallback string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("reading persisted key", "key", key, "error", err)
		}
		return fallback
	}
	return value
}

// Set stores value under key, replacing any prior value (last writer
// wins).
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}
	return nil
}

// Clear removes every stored key. Used by logout; the turn history is
// kept.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	return nil
}

// TurnRecord is one completed question/answer exchange.
type TurnRecord struct {
	ID        string
	Question  string
	Answer    string
	Course    string
	Lesson    string
	CreatedAt time.Time
}

// RecordTurn logs a completed exchange. Best-effort: callers log and
// continue on failure.
func (s *Store) RecordTurn(ctx context.Context, question, answer, course, lesson string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (id, question, answer, course, lesson, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), question, answer, course, lesson, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit exchanges, newest first.
func (s *Store) RecentTurns(ctx context.Context, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, answer, course, lesson, created_at
		FROM turns ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		var r TurnRecord
		if err := rows.Scan(&r.ID, &r.Question, &r.Answer, &r.Course, &r.Lesson, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	return records, nil
}
