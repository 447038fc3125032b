// Package storage persists reconciliation runs to SQLite so past runs
// can be audited without rerunning the engine.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the audit store on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the audit database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath must not be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			card_total INTEGER NOT NULL,
			card_matched INTEGER NOT NULL,
			bank_total INTEGER NOT NULL,
			bank_matched INTEGER NOT NULL,
			ledger_rows INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id),
			source TEXT NOT NULL,
			line_no INTEGER NOT NULL,
			status TEXT NOT NULL,
			method TEXT NOT NULL,
			confidence REAL NOT NULL,
			matched_trade_nos TEXT NOT NULL,
			PRIMARY KEY (run_id, source, line_no)
		)`,
		`CREATE TABLE IF NOT EXISTS ledger (
			run_id TEXT NOT NULL REFERENCES runs(id),
			row_no INTEGER NOT NULL,
			trade_date TEXT NOT NULL,
			trade_time TEXT NOT NULL,
			account TEXT NOT NULL,
			amount TEXT NOT NULL,
			flow TEXT NOT NULL,
			merchant TEXT NOT NULL,
			match_status TEXT NOT NULL,
			match_group_id TEXT NOT NULL,
			PRIMARY KEY (run_id, row_no)
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
