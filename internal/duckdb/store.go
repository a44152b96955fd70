// Package duckdb persists annotated structural variant events in DuckDB and
// caches parsed transcripts as gob files.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding annotated events.
type Store struct {
	db   *sql.DB
	x    *sqlx.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, x: sqlx.NewDb(db, "duckdb"), path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sv_events (
		source VARCHAR,
		sample VARCHAR,
		chrom VARCHAR,
		start BIGINT,
		end_pos BIGINT,
		event_type VARCHAR,
		size BIGINT,
		reads BIGINT,
		gene VARCHAR,
		gene_region VARCHAR,
		transcripts VARCHAR
	)`)
	return err
}
