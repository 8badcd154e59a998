package scraper

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/rem79/fear-greed-index/internal/logger"
	"github.com/rem79/fear-greed-index/internal/types"
)

// PersistedFallback reuses the last persisted result when every live
// strategy failed. A stale value is preferred over a blank or wrong one.
type PersistedFallback struct {
	snapshots SnapshotReader
	log       *logger.Logger
}

func NewPersistedFallback(snapshots SnapshotReader, log *logger.Logger) *PersistedFallback {
	return &PersistedFallback{snapshots: snapshots, log: log}
}

func (p *PersistedFallback) Stage() Stage {
	return StagePersisted
}

func (p *PersistedFallback) Attempt(ctx context.Context) (types.Attempt, error) {
	snap, err := p.snapshots.ReadSnapshot()
	if err != nil {
		return types.NoData("persisted"), fmt.Errorf("failed to read snapshot: %v: %w", err, ErrNoPersistedSnapshot)
	}
	if snap == nil {
		return types.NoData("persisted"), ErrNoPersistedSnapshot
	}
	if !types.ValidScore(snap.Score) {
		return types.NoData("persisted"), fmt.Errorf("stored score %d: %w", snap.Score, ErrNoPersistedSnapshot)
	}

	a := types.Attempt{
		Score:     snap.Score,
		HasScore:  true,
		Source:    "persisted",
		RawRating: snap.Rating,
	}
	if rating, ok := types.NormalizeRating(snap.Rating); ok {
		a.Rating = rating
	}

	p.log.Warnw("live extraction failed, reusing persisted snapshot",
		"score", snap.Score,
		"rating", snap.Rating,
		"age", humanize.Time(snap.LastUpdated),
	)

	return a, nil
}
