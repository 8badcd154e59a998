package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rem79/fear-greed-index/internal/types"
)

func TestDOMExtractor(t *testing.T) {
	tests := []struct {
		name       string
		markup     string
		wantScore  int
		wantRating types.Rating
		wantSource types.Provenance
	}{
		{
			name: "primary selectors",
			markup: `<div class="market-fng-gauge">
				<span class="market-fng-gauge__dial-number-value">42</span>
				<div class="market-fng-gauge__label">Fear</div>
			</div>`,
			wantScore:  42,
			wantRating: types.Fear,
			wantSource: "dom/primary",
		},
		{
			name: "renamed classes",
			markup: `<div class="fng-gauge-v2">
				<span class="fng-gauge-v2__number">66</span>
				<span class="gauge-label">Greed</span>
			</div>`,
			wantScore:  66,
			wantRating: types.Greed,
			wantSource: "dom/fragment",
		},
		{
			name: "bare number inside a meter",
			markup: `<section class="sentiment-meter">
				<div><span>17</span></div>
				<span>Extreme Fear</span>
			</section>`,
			wantScore:  17,
			wantRating: types.ExtremeFear,
			wantSource: "dom/scan",
		},
		{
			name:       "aria attributes",
			markup:     `<div role="meter" aria-label="Fear &amp; Greed Index" aria-valuenow="88" aria-valuetext="Extreme Greed"></div>`,
			wantScore:  88,
			wantRating: types.ExtremeGreed,
			wantSource: "dom/aria",
		},
		{
			name: "rating from the scan probe",
			markup: `<span class="market-fng-gauge__dial-number-value">18</span>
				<section class="sentiment-meter"><span>Extreme Fear</span></section>`,
			wantScore:  18,
			wantRating: types.ExtremeFear,
			wantSource: "dom/primary",
		},
		{
			name: "rating from the aria probe",
			markup: `<span class="market-fng-gauge__dial-number-value">42</span>
				<div aria-label="Fear &amp; Greed Index" data-value="n/a" aria-valuetext="Fear"></div>`,
			wantScore:  42,
			wantRating: types.Fear,
			wantSource: "dom/primary",
		},
		{
			name:       "value without rating",
			markup:     `<span class="market-fng-gauge__dial-number-value">73</span>`,
			wantScore:  73,
			wantSource: "dom/primary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := htmlPage(t, "<html><body>"+tt.markup+"</body></html>")
			d := NewDOMExtractor(page, DefaultRules(), nopLog())

			a, err := d.Attempt(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, a.Score)
			assert.Equal(t, tt.wantRating, a.Rating)
			assert.Equal(t, tt.wantSource, a.Source)
		})
	}
}

func TestDOMExtractor_RejectsOutOfRange(t *testing.T) {
	page := htmlPage(t, `<html><body>
		<span class="market-fng-gauge__dial-number-value">137</span>
	</body></html>`)
	d := NewDOMExtractor(page, DefaultRules(), nopLog())

	a, err := d.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrSelectorNotFound)
	assert.False(t, a.Valid())
}

func TestDOMExtractor_IgnoresNumbersOutsideGauge(t *testing.T) {
	page := htmlPage(t, `<html><body>
		<div class="footer"><span>42</span></div>
		<p>Dow 42</p>
	</body></html>`)
	d := NewDOMExtractor(page, DefaultRules(), nopLog())

	_, err := d.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrSelectorNotFound)
}

func TestDOMExtractor_PageErrors(t *testing.T) {
	d := NewDOMExtractor(brokenPage{}, DefaultRules(), nopLog())

	_, err := d.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrSelectorNotFound)
}

func TestLabels(t *testing.T) {
	score, ok := scoreFromLabel("Now: 42")
	assert.True(t, ok)
	assert.Equal(t, 42, score)

	_, ok = scoreFromLabel("The market closed 312 points higher after a long session today")
	assert.False(t, ok)

	rating, ok := ratingFromLabel("Extreme Greed is driving the market")
	assert.True(t, ok)
	assert.Equal(t, types.ExtremeGreed, rating)

	_, ok = ratingFromLabel("Markets")
	assert.False(t, ok)
}
