package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rem79/fear-greed-index/internal/types"
)

// ISOLayout matches JavaScript's Date.prototype.toISOString
const ISOLayout = "2006-01-02T15:04:05.000Z"

type snapshotFile struct {
	Stock *snapshotEntry `json:"stock"`
}

// Score is a float because older writers stored the unrounded page value
type snapshotEntry struct {
	Score       float64 `json:"score"`
	Rating      string  `json:"rating"`
	LastUpdated string  `json:"lastUpdated"`
}

// SnapshotFile is the persisted result consumed by downstream readers
type SnapshotFile struct {
	path string
}

func NewSnapshotFile(path string) *SnapshotFile {
	return &SnapshotFile{path: path}
}

// Path returns the file location
func (f *SnapshotFile) Path() string {
	return f.path
}

// ReadSnapshot returns the persisted snapshot, or (nil, nil) when the file
// does not exist
func (f *SnapshotFile) ReadSnapshot() (*types.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var sf snapshotFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if sf.Stock == nil {
		return nil, fmt.Errorf("snapshot %s has no stock entry", f.path)
	}

	score, ok := types.ScoreFromFloat(sf.Stock.Score)
	if !ok {
		return nil, fmt.Errorf("snapshot %s has out of range score %v", f.path, sf.Stock.Score)
	}

	snap := &types.Snapshot{
		Score:  score,
		Rating: sf.Stock.Rating,
	}
	if sf.Stock.LastUpdated != "" {
		// An unparseable timestamp only affects the logged age
		if t, err := time.Parse(time.RFC3339Nano, sf.Stock.LastUpdated); err == nil {
			snap.LastUpdated = t
		}
	}
	return snap, nil
}

// Write replaces the file with res. The content goes to a temp file in the
// same directory first and is renamed over the old file.
func (f *SnapshotFile) Write(res types.Result) error {
	sf := snapshotFile{Stock: &snapshotEntry{
		Score:       float64(res.Score),
		Rating:      res.Rating.String(),
		LastUpdated: res.LastUpdated.UTC().Format(ISOLayout),
	}}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}
