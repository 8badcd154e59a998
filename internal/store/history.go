// Package store persists run results: the snapshot file downstream readers
// consume, a SQLite run history, and debug artifacts.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rem79/fear-greed-index/internal/types"
)

// Run is one resolved run as recorded in the history
type Run struct {
	ID            string
	Score         int
	Rating        types.Rating
	Source        types.Provenance
	RatingDerived bool
	RecordedAt    time.Time
}

// History handles all database operations
type History struct {
	db *sql.DB
}

// OpenHistory opens the SQLite history at dbPath, creating it if needed
func OpenHistory(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	h := &History{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history: %w", err)
	}

	return h, nil
}

// Close closes the database connection
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		score INTEGER NOT NULL,
		rating TEXT NOT NULL,
		source TEXT NOT NULL,
		rating_derived BOOLEAN NOT NULL,
		recorded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_recorded_at ON runs(recorded_at);
	`

	_, err := h.db.Exec(schema)
	return err
}

// Append records a resolved run and returns its row
func (h *History) Append(runID uuid.UUID, res types.Result) (Run, error) {
	run := Run{
		ID:            runID.String(),
		Score:         res.Score,
		Rating:        res.Rating,
		Source:        res.Source,
		RatingDerived: res.RatingDerived,
		RecordedAt:    res.LastUpdated.UTC(),
	}

	_, err := h.db.Exec(`
		INSERT INTO runs (id, score, rating, source, rating_derived, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Score, string(run.Rating), string(run.Source), run.RatingDerived, run.RecordedAt)
	if err != nil {
		return Run{}, fmt.Errorf("failed to record run: %w", err)
	}

	return run, nil
}

// Recent returns up to limit runs, newest first
func (h *History) Recent(limit int) ([]Run, error) {
	rows, err := h.db.Query(`
		SELECT id, score, rating, source, rating_derived, recorded_at
		FROM runs
		ORDER BY recorded_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var rating, source string

		if err := rows.Scan(&r.ID, &r.Score, &rating, &source, &r.RatingDerived, &r.RecordedAt); err != nil {
			return nil, err
		}

		r.Rating = types.Rating(rating)
		r.Source = types.Provenance(source)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
