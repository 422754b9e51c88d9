// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a SQLite history of extraction runs and the images
// each run produced. A run is recorded once, after its manifest is written;
// the catalog is never consulted to skip work.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pageshot/pkg/types"
)

const defaultListLimit = 20

// Run summarizes one extraction run.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	SourceDir  string    `json:"source_dir" yaml:"source_dir"`
	OutputDir  string    `json:"output_dir" yaml:"output_dir"`
	Scale      float64   `json:"scale" yaml:"scale"`
	Backend    string    `json:"backend" yaml:"backend"`
	Documents  int       `json:"documents" yaml:"documents"`
	Failed     int       `json:"failed" yaml:"failed"`
	ImageCount int       `json:"images" yaml:"images"`

	// Images is only populated when recording.
	Images []types.ExtractedImage `json:"-" yaml:"-"`
}

// Store manages the catalog database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.CatalogConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("catalog path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			source_dir TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			scale REAL NOT NULL,
			backend TEXT NOT NULL,
			documents INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			images INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS images (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			filename TEXT NOT NULL,
			document TEXT NOT NULL,
			page INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			bytes INTEGER NOT NULL,
			checksum TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_images_document ON images(document)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores run and its images in one transaction. An empty ID is
// replaced with a new UUID; the stored ID is returned.
func (s *Store) RecordRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, source_dir, output_dir, scale, backend, documents, failed, images)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.SourceDir, run.OutputDir, run.Scale, run.Backend,
		run.Documents, run.Failed, len(run.Images),
	); err != nil {
		return "", fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO images (run_id, seq, filename, document, page, width, height, bytes, checksum)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing image insert: %w", err)
	}
	defer stmt.Close()

	for i, img := range run.Images {
		if _, err := stmt.ExecContext(ctx, run.ID, i, img.Filename, img.Document, img.Page,
			img.Width, img.Height, img.Bytes, img.Checksum); err != nil {
			return "", fmt.Errorf("inserting image %s: %w", img.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// Runs returns the most recent runs, newest first. A non-positive limit
// uses the default of 20.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, source_dir, output_dir, scale, backend, documents, failed, images
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.SourceDir, &r.OutputDir,
			&r.Scale, &r.Backend, &r.Documents, &r.Failed, &r.ImageCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("scanning run %s: started_at: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("scanning run %s: finished_at: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Images returns the images recorded for runID in manifest order.
func (s *Store) Images(ctx context.Context, runID string) ([]types.ExtractedImage, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("looking up run %s: %w", runID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("run %s not found", runID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, document, page, width, height, bytes, checksum
		 FROM images WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying images: %w", err)
	}
	defer rows.Close()

	images := []types.ExtractedImage{}
	for rows.Next() {
		var img types.ExtractedImage
		if err := rows.Scan(&img.Filename, &img.Document, &img.Page, &img.Width,
			&img.Height, &img.Bytes, &img.Checksum); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
