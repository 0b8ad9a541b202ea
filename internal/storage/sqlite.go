// Package storage persists snapshot metadata and the recommendation log
// using SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/daisyflowers/budtender/internal/model"
)

// SQLiteStorage implements persistence using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage opens (or creates) the database at dbPath and ensures
// the schema exists. Use ":memory:" for tests.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath is required")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fetched_at TIMESTAMP NOT NULL,
		product_count INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS recommendations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_key TEXT NOT NULL,
		query TEXT NOT NULL,
		category TEXT NOT NULL,
		product_names TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_recommendations_session ON recommendations(session_key);
	CREATE INDEX IF NOT EXISTS idx_recommendations_created ON recommendations(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordSnapshot stores metadata about a catalog refresh.
func (s *SQLiteStorage) RecordSnapshot(ctx context.Context, snapshot model.Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (fetched_at, product_count) VALUES (?, ?)`,
		snapshot.FetchedAt, len(snapshot.Products))
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// SnapshotCount returns how many refreshes have been recorded.
func (s *SQLiteStorage) SnapshotCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// Recommendation is one served chat answer.
type Recommendation struct {
	CreatedAt    time.Time
	SessionKey   string
	Query        string
	Category     string
	ProductNames []string
	Response     string
	ID           int64
}

// LogRecommendation appends a served recommendation to the log.
func (s *SQLiteStorage) LogRecommendation(ctx context.Context, rec Recommendation) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recommendations (session_key, query, category, product_names, response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionKey, rec.Query, rec.Category, strings.Join(rec.ProductNames, "\n"), rec.Response, createdAt)
	if err != nil {
		return fmt.Errorf("failed to log recommendation: %w", err)
	}
	return nil
}

// RecentRecommendations returns the newest entries, most recent first.
func (s *SQLiteStorage) RecentRecommendations(ctx context.Context, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_key, query, category, product_names, response, created_at
		 FROM recommendations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []Recommendation
	for rows.Next() {
		var rec Recommendation
		var names string
		if err := rows.Scan(&rec.ID, &rec.SessionKey, &rec.Query, &rec.Category, &names, &rec.Response, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		if names != "" {
			rec.ProductNames = strings.Split(names, "\n")
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recommendations: %w", err)
	}
	return recs, nil
}
