// Package scraper extracts the fear & greed score and rating from a rendered
// page by running an ordered chain of strategies.
package scraper

import (
	"context"
	"time"

	"github.com/rem79/fear-greed-index/internal/logger"
	"github.com/rem79/fear-greed-index/internal/types"
)

// Page is the read-only view of a loaded page that the strategies query
type Page interface {
	// ElementText returns the trimmed text of the first element matching
	// selector. ok is false when nothing matched within the bounded wait.
	ElementText(ctx context.Context, selector string) (text string, ok bool, err error)

	// Elements returns every element matching selector
	Elements(ctx context.Context, selector string) ([]types.Element, error)

	// FullText returns the visible text of the whole page
	FullText(ctx context.Context) (string, error)

	// RawMarkup returns the serialized HTML of the page
	RawMarkup(ctx context.Context) (string, error)
}

// SnapshotReader returns the last persisted result, or (nil, nil) when
// nothing was ever persisted
type SnapshotReader interface {
	ReadSnapshot() (*types.Snapshot, error)
}

// Strategy is one stage of the pipeline
type Strategy interface {
	Stage() Stage
	Attempt(ctx context.Context) (types.Attempt, error)
}

// Options configures New
type Options struct {
	Rules       Rules
	Interceptor *Interceptor // nil when the page has no network stream
	Page        Page
	Snapshots   SnapshotReader
	Logger      *logger.Logger
	Now         func() time.Time
}

// New builds the standard pipeline:
// intercepted payload, DOM, live text, markup, persisted snapshot.
func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = logger.Named("scraper")
	}

	var stages []Strategy
	if opts.Interceptor != nil {
		stages = append(stages, opts.Interceptor)
	}
	if opts.Page != nil {
		stages = append(stages,
			NewDOMExtractor(opts.Page, opts.Rules, log),
			NewLiveTextExtractor(opts.Page, opts.Rules),
			NewMarkupExtractor(opts.Page, opts.Rules),
		)
	}
	if opts.Snapshots != nil {
		stages = append(stages, NewPersistedFallback(opts.Snapshots, log))
	}

	return NewPipeline(stages, log, opts.Now)
}
