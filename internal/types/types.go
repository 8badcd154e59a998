package types

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Provenance names the strategy that produced a value, e.g. "network/nested".
type Provenance string

var plainNumberRe = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

// ValidScore reports whether n is an acceptable index value
func ValidScore(n int) bool {
	return n >= MinScore && n <= MaxScore
}

// ParseScore coerces textual digits like "42", " 42.6 " or "42.0" into a score.
// Decimals are rounded to the nearest integer. Returns false for anything
// that is not a plain unsigned decimal or lands outside [0,100].
func ParseScore(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !plainNumberRe.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return ScoreFromFloat(f)
}

// ScoreFromFloat rounds f and range-checks it
func ScoreFromFloat(f float64) (int, bool) {
	n := int(math.Round(f))
	if !ValidScore(n) {
		return 0, false
	}
	return n, true
}

// Attempt is the outcome of one extraction strategy
type Attempt struct {
	Score     int
	HasScore  bool
	Rating    Rating // empty when no rating was captured
	Source    Provenance
	RawRating string // what the page actually said, before normalization
}

// NoData is the attempt returned when a strategy found nothing
func NoData(src Provenance) Attempt {
	return Attempt{Source: src}
}

// Valid reports whether the attempt carries an acceptable score
func (a Attempt) Valid() bool {
	return a.HasScore && ValidScore(a.Score)
}

// Result is the final output of one extraction run. It is passed by value.
type Result struct {
	Score         int
	Rating        Rating
	LastUpdated   time.Time
	Source        Provenance
	RatingDerived bool
}

// Snapshot is the last persisted result, as read back from storage
type Snapshot struct {
	Score       int
	Rating      string
	LastUpdated time.Time
}

// Element is a DOM element as seen by the extraction strategies
type Element struct {
	Tag   string            `json:"tag"`
	Text  string            `json:"text"`
	Attrs map[string]string `json:"attrs"`

	// Class attributes of the ancestors, nearest first
	AncestorClasses []string `json:"ancestorClasses"`
	// aria-label attributes of the ancestors, nearest first
	AncestorLabels []string `json:"ancestorLabels"`
}

// Attr returns the named attribute, or "" if absent
func (e Element) Attr(name string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[name]
}
