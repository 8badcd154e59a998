package scraper

import (
	"fmt"
	"regexp"
)

// CNN fear & greed page selectors and patterns.
// These are isolated here because the page changes its markup frequently.
// Every value can be overridden from the config file.

const (
	// Primary gauge selectors
	GaugeValue  = `.market-fng-gauge__dial-number-value`
	GaugeRating = `.market-fng-gauge__label`

	// Generic scan
	ScanTags      = `span, div, p, h1, h2, h3, h4`
	AriaValueTags = `[aria-valuenow], [data-value]`

	// Embedded server-rendered data
	EmbeddedBlobs = `script#__NEXT_DATA__, script[type="application/json"], script[type="application/ld+json"]`

	// Network API markers
	ServiceMarker = "fearandgreed"
	IndicatorKey  = "fear_and_greed"
)

// Class-fragment selectors that survive minor class renames
var (
	FragmentValueSelectors = []string{
		`[class*="dial-number-value"]`,
		`[class*="fng-gauge"] [class*="number"]`,
		`[class*="gauge"] [class*="value"]`,
	}
	FragmentRatingSelectors = []string{
		`[class*="fng-gauge__label"]`,
		`[class*="gauge"] [class*="label"]`,
		`[class*="rating"]`,
	}
)

var (
	PathMarkers    = []string{"graphdata", "current"}
	GaugeFragments = []string{"gauge", "indicator", "meter", "dial", "fng"}
	AriaKeywords   = []string{"fear", "greed", "index"}
)

// Rendered-text patterns, tried in order. Each has one capture group for the number.
var TextPatterns = []string{
	`(?i)index\s+is\s+(?:currently\s+)?(?:at|now)\s+(\d{1,3}(?:\.\d+)?)`,
	`(?i)\bnow:\s*(\d{1,3}(?:\.\d+)?)`,
	`(?i)fear\s*(?:&|and)\s*greed\s+index\D{0,80}?(\d{1,3})\b`,
}

// RatingTextPattern recovers a label from prose like "the index is in extreme fear"
const RatingTextPattern = `(?i)(?:is\s+(?:in|at|showing)|sentiment:?|rating:?)\s+(extreme\s+fear|extreme\s+greed|fear|greed|neutral)\b`

// Rules is the data that drives every strategy. Site changes should be a
// Rules update, not a code change.
type Rules struct {
	ServiceMarker string
	PathMarkers   []string
	IndicatorKey  string

	ValueSelectors          []string
	RatingSelectors         []string
	FragmentValueSelectors  []string
	FragmentRatingSelectors []string

	ScanTags       string
	GaugeFragments []string
	AncestorDepth  int

	AriaSelector string
	AriaKeywords []string

	TextPatterns      []*regexp.Regexp
	RatingTextPattern *regexp.Regexp
	BlobSelector      string
}

// DefaultRules returns the built-in rules for the CNN page
func DefaultRules() Rules {
	rules, err := CompileRules(RuleSource{
		ServiceMarker:           ServiceMarker,
		PathMarkers:             PathMarkers,
		IndicatorKey:            IndicatorKey,
		ValueSelectors:          []string{GaugeValue},
		RatingSelectors:         []string{GaugeRating},
		FragmentValueSelectors:  FragmentValueSelectors,
		FragmentRatingSelectors: FragmentRatingSelectors,
		ScanTags:                ScanTags,
		GaugeFragments:          GaugeFragments,
		AncestorDepth:           6,
		AriaSelector:            AriaValueTags,
		AriaKeywords:            AriaKeywords,
		TextPatterns:            TextPatterns,
		RatingTextPattern:       RatingTextPattern,
		BlobSelector:            EmbeddedBlobs,
	})
	if err != nil {
		panic(err) // built-in patterns are constant
	}
	return rules
}

// RuleSource is Rules before regex compilation, as it appears in config
type RuleSource struct {
	ServiceMarker           string
	PathMarkers             []string
	IndicatorKey            string
	ValueSelectors          []string
	RatingSelectors         []string
	FragmentValueSelectors  []string
	FragmentRatingSelectors []string
	ScanTags                string
	GaugeFragments          []string
	AncestorDepth           int
	AriaSelector            string
	AriaKeywords            []string
	TextPatterns            []string
	RatingTextPattern       string
	BlobSelector            string
}

// CompileRules compiles the text patterns of src
func CompileRules(src RuleSource) (Rules, error) {
	patterns := make([]*regexp.Regexp, 0, len(src.TextPatterns))
	for _, p := range src.TextPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return Rules{}, fmt.Errorf("invalid text pattern %q: %w", p, err)
		}
		if re.NumSubexp() < 1 {
			return Rules{}, fmt.Errorf("text pattern %q has no capture group", p)
		}
		patterns = append(patterns, re)
	}

	var ratingRe *regexp.Regexp
	if src.RatingTextPattern != "" {
		re, err := regexp.Compile(src.RatingTextPattern)
		if err != nil {
			return Rules{}, fmt.Errorf("invalid rating pattern %q: %w", src.RatingTextPattern, err)
		}
		if re.NumSubexp() < 1 {
			return Rules{}, fmt.Errorf("rating pattern %q has no capture group", src.RatingTextPattern)
		}
		ratingRe = re
	}

	depth := src.AncestorDepth
	if depth <= 0 {
		depth = 6
	}

	return Rules{
		ServiceMarker:           src.ServiceMarker,
		PathMarkers:             src.PathMarkers,
		IndicatorKey:            src.IndicatorKey,
		ValueSelectors:          src.ValueSelectors,
		RatingSelectors:         src.RatingSelectors,
		FragmentValueSelectors:  src.FragmentValueSelectors,
		FragmentRatingSelectors: src.FragmentRatingSelectors,
		ScanTags:                src.ScanTags,
		GaugeFragments:          src.GaugeFragments,
		AncestorDepth:           depth,
		AriaSelector:            src.AriaSelector,
		AriaKeywords:            src.AriaKeywords,
		TextPatterns:            patterns,
		RatingTextPattern:       ratingRe,
		BlobSelector:            src.BlobSelector,
	}, nil
}
