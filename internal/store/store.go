// Package store provides SQLite persistence for recent searches.
//
// Only submitted query strings are kept. Results are never stored.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	// MaxEntries is how many distinct queries are retained.
	MaxEntries = 10
	// MaxAge is how long a query stays eligible for suggestions.
	MaxAge = 7 * 24 * time.Hour
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Search is one remembered query.
type Search struct {
	Query      string
	SearchedAt time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	} else {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		query TEXT PRIMARY KEY,
		searched_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_searches_at ON searches(searched_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Record remembers query as searched at t. Repeating a query moves it to
// the front. Only the newest MaxEntries queries are kept. Blank queries are
// ignored.
func (s *Store) Record(query string, t time.Time) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO searches (query, searched_at) VALUES (?, ?)
		ON CONFLICT(query) DO UPDATE SET searched_at = excluded.searched_at
	`, query, t.UnixMilli()); err != nil {
		return fmt.Errorf("record search: %w", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM searches WHERE query NOT IN (
			SELECT query FROM searches ORDER BY searched_at DESC LIMIT ?
		)
	`, MaxEntries); err != nil {
		return fmt.Errorf("prune searches: %w", err)
	}

	return tx.Commit()
}

// Recent returns up to limit queries searched within MaxAge of now,
// newest first. limit <= 0 means MaxEntries.
func (s *Store) Recent(now time.Time, limit int) ([]Search, error) {
	return s.query(now, "", limit)
}

// Matching returns up to limit recent queries containing text,
// case-insensitively, newest first.
func (s *Store) Matching(now time.Time, text string, limit int) ([]Search, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return s.query(now, text, limit)
}

// Clear forgets every query.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM searches")
	return err
}

func (s *Store) query(now time.Time, text string, limit int) ([]Search, error) {
	if limit <= 0 || limit > MaxEntries {
		limit = MaxEntries
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT query, searched_at FROM searches
		WHERE searched_at >= ? AND (? = '' OR instr(lower(query), lower(?)) > 0)
		ORDER BY searched_at DESC
		LIMIT ?
	`, now.Add(-MaxAge).UnixMilli(), text, text, limit)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", err)
	}
	defer rows.Close()

	var out []Search
	for rows.Next() {
		var q string
		var ms int64
		if err := rows.Scan(&q, &ms); err != nil {
			return nil, err
		}
		out = append(out, Search{Query: q, SearchedAt: time.UnixMilli(ms)})
	}
	return out, rows.Err()
}
