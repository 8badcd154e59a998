package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rem79/fear-greed-index/internal/types"
)

func TestLiveTextExtractor(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantScore  int
		wantRating types.Rating
	}{
		{"currently at", "The Fear & Greed Index is currently at 38, sentiment: fear.", 38, types.Fear},
		{"now label", "Fear & Greed Index Now: 81 Previous close 79", 81, ""},
		{"heading then number", "CNN Fear and Greed Index What emotion is driving the market now? 55", 55, ""},
		{"rating prose", "The index is now 12 and the market is in extreme fear today", 12, types.ExtremeFear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := NewLiveTextExtractor(textPage{text: tt.text}, DefaultRules())

			a, err := x.Attempt(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, a.Score)
			assert.Equal(t, tt.wantRating, a.Rating)
			assert.Equal(t, types.Provenance("text/live"), a.Source)
		})
	}
}

func TestCompileRules_RatingPatternNeedsGroup(t *testing.T) {
	_, err := CompileRules(RuleSource{RatingTextPattern: `(?i)extreme fear`})
	assert.Error(t, err)

	rules, err := CompileRules(RuleSource{
		TextPatterns:      []string{`index is now (\d+)`},
		RatingTextPattern: `(?i)market is in (extreme fear|fear)`,
	})
	require.NoError(t, err)

	x := NewLiveTextExtractor(textPage{text: "The index is now 12 and the market is in extreme fear"}, rules)
	a, err := x.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, a.Score)
	assert.Equal(t, types.ExtremeFear, a.Rating)
}

func TestLiveTextExtractor_Failures(t *testing.T) {
	x := NewLiveTextExtractor(textPage{text: "The index is now 250"}, DefaultRules())
	_, err := x.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrOutOfRangeScore)

	x = NewLiveTextExtractor(textPage{text: "Stocks closed mixed on Monday."}, DefaultRules())
	_, err = x.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrSelectorNotFound)

	x = NewLiveTextExtractor(brokenPage{}, DefaultRules())
	_, err = x.Attempt(context.Background())
	assert.ErrorIs(t, err, errPageGone)
}

func TestLiveTextExtractor_IgnoresScripts(t *testing.T) {
	page := htmlPage(t, `<html><body>
		<script>var msg = "index is now 44";</script>
		<p>Nothing to see</p>
	</body></html>`)
	x := NewLiveTextExtractor(page, DefaultRules())

	_, err := x.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrSelectorNotFound)
}

func TestMarkupExtractor_EmbeddedBlob(t *testing.T) {
	page := htmlPage(t, `<html><body>
		<script id="__NEXT_DATA__" type="application/json">
			{"props":{"pageProps":{"data":{"fear_and_greed":{"score":55.4,"rating":"neutral"}}}}}
		</script>
	</body></html>`)
	x := NewMarkupExtractor(page, DefaultRules())

	a, err := x.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 55, a.Score)
	assert.Equal(t, types.Neutral, a.Rating)
	assert.Equal(t, types.Provenance("markup/blob/nested"), a.Source)
}

func TestMarkupExtractor_SkipsOutOfRangeCandidate(t *testing.T) {
	x := NewMarkupExtractor(textPage{markup: `<div data-x='{"score": 137}'></div><script>f({"score": 64, "rating": "Greed"})</script>`}, DefaultRules())

	a, err := x.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 64, a.Score)
	assert.Equal(t, types.Greed, a.Rating)
	assert.Equal(t, types.Provenance("markup/scan"), a.Source)
}

func TestMarkupExtractor_Failures(t *testing.T) {
	x := NewMarkupExtractor(textPage{markup: `<script>f({"score": 137})</script>`}, DefaultRules())
	_, err := x.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrOutOfRangeScore)

	x = NewMarkupExtractor(textPage{markup: "<html><body>nothing</body></html>"}, DefaultRules())
	_, err = x.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrNoMatchingPayload)

	x = NewMarkupExtractor(textPage{markup: "   "}, DefaultRules())
	_, err = x.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
