// Package store persists job summaries in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jpp0ca/tunebridge/internal/domain"
)

//go:embed sql/schema.sql
var schema string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements ports.JobStore.
type SQLiteStore struct {
	db *sql.DB
}

// Open connects to the SQLite database at path and applies the schema.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// payload is the JSON column holding the kind-specific result.
type payload struct {
	Migration *domain.MigrationResult `json:"migration,omitempty"`
	Merge     *domain.MergeResult     `json:"merge,omitempty"`
}

// Save inserts or replaces the record with rec.ID.
func (s *SQLiteStore) Save(ctx context.Context, rec domain.JobRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: job record has no id", domain.ErrInvalidRequest)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	body, err := json.Marshal(payload{Migration: rec.Migration, Merge: rec.Merge})
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", rec.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO jobs (id, kind, source_provider, dest_provider, status, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), rec.SourceProvider, rec.DestProvider, string(rec.Status),
		string(body), rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record with id. A missing record wraps domain.ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.JobRecord, error) {
	var (
		rec       domain.JobRecord
		kind      string
		status    string
		body      string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, source_provider, dest_provider, status, result, created_at
		FROM jobs WHERE id = ?`, id,
	).Scan(&rec.ID, &kind, &rec.SourceProvider, &rec.DestProvider, &status, &body, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}

	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job %s timestamp: %w", id, err)
	}

	rec.Kind = domain.JobKind(kind)
	rec.Status = domain.JobState(status)
	rec.Migration = p.Migration
	rec.Merge = p.Merge
	rec.CreatedAt = ts
	return &rec, nil
}
