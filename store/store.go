// Package store caches completed run results in SQLite, keyed by program
// content and input sequence, so repeated runs of the same program and
// inputs skip execution entirely.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chazu/intcode/vm"
)

// Store is a SQLite-backed cache of run results. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens (creating if needed) the cache database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		program_id TEXT NOT NULL,
		inputs TEXT NOT NULL,
		outputs TEXT NOT NULL,
		PRIMARY KEY (program_id, inputs)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Get looks up the cached outputs for a program and input sequence. The
// second result is false on a cache miss.
func (s *Store) Get(program, inputs []vm.Value) ([]vm.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var text string
	err := s.db.QueryRow(
		"SELECT outputs FROM runs WHERE program_id = ? AND inputs = ?",
		ProgramID(program), renderValues(inputs),
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying run: %w", err)
	}

	outputs, err := parseValues(text)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt cached outputs: %w", err)
	}
	return outputs, true, nil
}

// Put records the outputs of a completed run, replacing any previous entry
// for the same program and inputs.
func (s *Store) Put(program, inputs, outputs []vm.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO runs (program_id, inputs, outputs) VALUES (?, ?, ?)",
		ProgramID(program), renderValues(inputs), renderValues(outputs),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
