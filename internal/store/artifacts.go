package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ArtifactKind identifies what a debug artifact holds
type ArtifactKind string

const (
	ArtifactMarkup  ArtifactKind = "markup"
	ArtifactText    ArtifactKind = "text"
	ArtifactPayload ArtifactKind = "payload"
	ArtifactTrace   ArtifactKind = "trace"
)

// Artifacts writes debug captures of a run under a cache directory,
// one subdirectory per kind
type Artifacts struct {
	dir string
	now func() time.Time
}

func NewArtifacts(dir string) *Artifacts {
	return &Artifacts{dir: dir, now: time.Now}
}

// generateFilename creates a timestamped filename, prefixed with the run ID
// so that captures of one run sort together
func (a *Artifacts) generateFilename(runID uuid.UUID, ext string) string {
	return a.now().UTC().Format("2006-01-02T15-04-05") + "_" + runID.String()[:8] + ext
}

func (a *Artifacts) kindDir(kind ArtifactKind) (string, error) {
	dir := filepath.Join(a.dir, string(kind))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return dir, nil
}

// SaveText writes content and returns the path of the file
func (a *Artifacts) SaveText(kind ArtifactKind, runID uuid.UUID, content string, ext string) (string, error) {
	dir, err := a.kindDir(kind)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, a.generateFilename(runID, ext))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return path, nil
}

// SaveJSON writes data as indented JSON and returns the path of the file
func SaveJSON[T any](a *Artifacts, kind ArtifactKind, runID uuid.UUID, data T) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal artifact: %w", err)
	}
	return a.SaveText(kind, runID, string(jsonData), ".json")
}

// Latest returns the path to the most recent artifact of kind
func (a *Artifacts) Latest(kind ArtifactKind) (string, error) {
	dir := filepath.Join(a.dir, string(kind))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no %s artifacts", kind)
		}
		return "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	if len(files) == 0 {
		return "", fmt.Errorf("no %s artifacts", kind)
	}

	return filepath.Join(dir, files[len(files)-1]), nil
}
