package scraper

import "errors"

// Per-strategy outcomes. All of them except ErrTerminalExtraction are
// absorbed by the pipeline and only show up in logs and traces.
var (
	ErrNoMatchingPayload   = errors.New("no matching network payload")
	ErrSelectorNotFound    = errors.New("selector not found")
	ErrOutOfRangeScore     = errors.New("score out of range")
	ErrMalformedPayload    = errors.New("malformed payload")
	ErrNoPersistedSnapshot = errors.New("no persisted snapshot")

	// ErrTerminalExtraction is returned when every stage, including the
	// persisted snapshot, came up empty
	ErrTerminalExtraction = errors.New("terminal extraction failure")
)
