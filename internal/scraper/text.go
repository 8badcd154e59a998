package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rem79/fear-greed-index/internal/types"
)

// LiveTextExtractor runs the natural-language patterns over the page's
// visible text
type LiveTextExtractor struct {
	page  Page
	rules Rules
}

func NewLiveTextExtractor(page Page, rules Rules) *LiveTextExtractor {
	return &LiveTextExtractor{page: page, rules: rules}
}

func (t *LiveTextExtractor) Stage() Stage {
	return StageLiveText
}

func (t *LiveTextExtractor) Attempt(ctx context.Context) (types.Attempt, error) {
	text, err := t.page.FullText(ctx)
	if err != nil {
		return types.NoData("text/live"), fmt.Errorf("failed to read page text: %w", err)
	}

	rejected := 0
	for _, re := range t.rules.TextPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			score, ok := types.ParseScore(m[1])
			if !ok {
				rejected++
				continue
			}

			a := types.Attempt{Score: score, HasScore: true, Source: "text/live"}
			if t.rules.RatingTextPattern != nil {
				if rm := t.rules.RatingTextPattern.FindStringSubmatch(text); rm != nil {
					if rating, ok := types.NormalizeRating(rm[1]); ok {
						a.Rating, a.RawRating = rating, rm[1]
					}
				}
			}
			return a, nil
		}
	}

	if rejected > 0 {
		return types.NoData("text/live"), fmt.Errorf("%d candidates in page text: %w", rejected, ErrOutOfRangeScore)
	}
	return types.NoData("text/live"), fmt.Errorf("no pattern matched page text: %w", ErrSelectorNotFound)
}

// MarkupExtractor scans the raw HTML: embedded JSON blobs first, then the
// whole document for loose "score" / "rating" fields
type MarkupExtractor struct {
	page  Page
	rules Rules
}

func NewMarkupExtractor(page Page, rules Rules) *MarkupExtractor {
	return &MarkupExtractor{page: page, rules: rules}
}

func (m *MarkupExtractor) Stage() Stage {
	return StageMarkup
}

func (m *MarkupExtractor) Attempt(ctx context.Context) (types.Attempt, error) {
	markup, err := m.page.RawMarkup(ctx)
	if err != nil {
		return types.NoData("markup"), fmt.Errorf("failed to read page markup: %w", err)
	}
	if strings.TrimSpace(markup) == "" {
		return types.NoData("markup"), fmt.Errorf("empty markup: %w", ErrMalformedPayload)
	}

	rejected := 0

	for _, blob := range m.blobs(markup) {
		res := extractPayload(blob, m.rules.IndicatorKey, "markup/blob")
		rejected += res.rejected
		if res.attempt.Valid() {
			return res.attempt, nil
		}
	}

	a, n := scanFields(markup, "markup/scan")
	rejected += n
	if a.Valid() {
		return a, nil
	}

	if rejected > 0 {
		return types.NoData("markup"), fmt.Errorf("%d candidates in markup: %w", rejected, ErrOutOfRangeScore)
	}
	return types.NoData("markup"), fmt.Errorf("no score field in markup: %w", ErrNoMatchingPayload)
}

// blobs returns the text of embedded data scripts such as __NEXT_DATA__
func (m *MarkupExtractor) blobs(markup string) []string {
	if m.rules.BlobSelector == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var blobs []string
	doc.Find(m.rules.BlobSelector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			blobs = append(blobs, text)
		}
	})
	return blobs
}
