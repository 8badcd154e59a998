package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rem79/fear-greed-index/internal/logger"
	"github.com/rem79/fear-greed-index/internal/types"
)

var (
	bareNumberRe  = regexp.MustCompile(`^\d{1,3}$`)
	shortNumberRe = regexp.MustCompile(`\b(\d{1,3}(?:\.\d+)?)\b`)
	ratingWordRe  = regexp.MustCompile(`(?i)\b(extreme[\s_-]+fear|extreme[\s_-]+greed|fear|greed|neutral)\b`)
)

// Longest text we will dig a number or label out of. Anything longer is
// prose, which is the text stage's job.
const maxLabelLen = 40

// DOMExtractor probes the rendered page with an ordered list of locator
// strategies. The first strategy to yield a valid score wins; the rating is
// the first one any strategy finds.
type DOMExtractor struct {
	page  Page
	rules Rules
	log   *logger.Logger
}

func NewDOMExtractor(page Page, rules Rules, log *logger.Logger) *DOMExtractor {
	return &DOMExtractor{page: page, rules: rules, log: log}
}

func (d *DOMExtractor) Stage() Stage {
	return StageDOM
}

// domFinding is what one locator strategy recovered
type domFinding struct {
	score     int
	hasScore  bool
	rating    types.Rating
	rawRating string
}

type domProbe struct {
	name string
	run  func(ctx context.Context) (domFinding, error)
}

func (d *DOMExtractor) probes() []domProbe {
	return []domProbe{
		{"primary", func(ctx context.Context) (domFinding, error) {
			return d.selectors(ctx, d.rules.ValueSelectors, d.rules.RatingSelectors)
		}},
		{"fragment", func(ctx context.Context) (domFinding, error) {
			return d.selectors(ctx, d.rules.FragmentValueSelectors, d.rules.FragmentRatingSelectors)
		}},
		{"scan", d.scan},
		{"aria", d.aria},
	}
}

// Attempt runs the probes in order
func (d *DOMExtractor) Attempt(ctx context.Context) (types.Attempt, error) {
	result := types.NoData("dom")

	for _, p := range d.probes() {
		if ctx.Err() != nil {
			break
		}

		found, err := p.run(ctx)
		if err != nil {
			d.log.Debugw("dom probe failed", "probe", p.name, "error", err)
			continue
		}

		if result.Rating == "" && found.rating != "" {
			result.Rating = found.rating
			result.RawRating = found.rawRating
		}
		if !result.HasScore && found.hasScore {
			result.Score = found.score
			result.HasScore = true
			result.Source = types.Provenance("dom/" + p.name)
		}

		if result.HasScore && result.Rating != "" {
			break
		}
	}

	if !result.HasScore {
		return result, fmt.Errorf("no gauge value on page: %w", ErrSelectorNotFound)
	}
	return result, nil
}

// selectors tries each value selector, then each rating selector
func (d *DOMExtractor) selectors(ctx context.Context, valueSels, ratingSels []string) (domFinding, error) {
	var f domFinding

	for _, sel := range valueSels {
		text, ok, err := d.page.ElementText(ctx, sel)
		if err != nil || !ok {
			continue
		}
		if score, ok := scoreFromLabel(text); ok {
			f.score, f.hasScore = score, true
			break
		}
		d.log.Debugw("value element has no usable number", "selector", sel, "text", text)
	}

	for _, sel := range ratingSels {
		text, ok, err := d.page.ElementText(ctx, sel)
		if err != nil || !ok {
			continue
		}
		if rating, ok := ratingFromLabel(text); ok {
			f.rating, f.rawRating = rating, text
			break
		}
	}

	if !f.hasScore && f.rating == "" {
		return f, ErrSelectorNotFound
	}
	return f, nil
}

// scan looks at every small text element for a bare number sitting inside
// something that looks like the gauge
func (d *DOMExtractor) scan(ctx context.Context) (domFinding, error) {
	var f domFinding

	els, err := d.page.Elements(ctx, d.rules.ScanTags)
	if err != nil {
		return f, fmt.Errorf("failed to list elements: %w", err)
	}

	for _, el := range els {
		if f.hasScore && f.rating != "" {
			break
		}
		if !d.underGauge(el) {
			continue
		}

		text := strings.TrimSpace(el.Text)
		if !f.hasScore && bareNumberRe.MatchString(text) {
			if score, ok := types.ParseScore(text); ok {
				f.score, f.hasScore = score, true
				continue
			}
		}
		if f.rating == "" {
			if rating, ok := types.NormalizeRating(text); ok {
				f.rating, f.rawRating = rating, text
			}
		}
	}

	if !f.hasScore && f.rating == "" {
		return f, ErrSelectorNotFound
	}
	return f, nil
}

// aria reads numeric aria-valuenow / data-value attributes on elements
// labelled as the indicator
func (d *DOMExtractor) aria(ctx context.Context) (domFinding, error) {
	var f domFinding

	els, err := d.page.Elements(ctx, d.rules.AriaSelector)
	if err != nil {
		return f, fmt.Errorf("failed to list elements: %w", err)
	}

	for _, el := range els {
		if !d.labelledAsIndicator(el) {
			continue
		}

		for _, attr := range []string{"aria-valuenow", "data-value"} {
			if score, ok := types.ParseScore(el.Attr(attr)); ok {
				f.score, f.hasScore = score, true
				break
			}
		}
		if text := el.Attr("aria-valuetext"); text != "" {
			if rating, ok := ratingFromLabel(text); ok {
				f.rating, f.rawRating = rating, text
			}
		}

		if f.hasScore {
			break
		}
	}

	if !f.hasScore && f.rating == "" {
		return f, ErrSelectorNotFound
	}
	return f, nil
}

func (d *DOMExtractor) underGauge(el types.Element) bool {
	for i, cls := range el.AncestorClasses {
		if i >= d.rules.AncestorDepth {
			break
		}
		if containsAny(strings.ToLower(cls), d.rules.GaugeFragments) {
			return true
		}
	}
	return false
}

func (d *DOMExtractor) labelledAsIndicator(el types.Element) bool {
	labels := append([]string{el.Attr("aria-label")}, el.AncestorLabels...)
	for _, l := range labels {
		if containsAny(strings.ToLower(l), d.rules.AriaKeywords) {
			return true
		}
	}
	return false
}

// scoreFromLabel reads a score from a value element's text. Short texts like
// "42" or "Now: 42" are accepted; long texts are left to the text stage.
func scoreFromLabel(text string) (int, bool) {
	if score, ok := types.ParseScore(text); ok {
		return score, true
	}
	text = strings.TrimSpace(text)
	if len(text) > maxLabelLen {
		return 0, false
	}
	m := shortNumberRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return types.ParseScore(m[1])
}

// ratingFromLabel reads a rating from a short label like "Fear" or
// "Extreme Greed is driving the market"
func ratingFromLabel(text string) (types.Rating, bool) {
	if rating, ok := types.NormalizeRating(text); ok {
		return rating, true
	}
	text = strings.TrimSpace(text)
	if len(text) > maxLabelLen {
		return "", false
	}
	m := ratingWordRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return types.NormalizeRating(m[1])
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if f != "" && strings.Contains(s, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
