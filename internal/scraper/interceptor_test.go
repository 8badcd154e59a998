package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rem79/fear-greed-index/internal/types"
)

const graphURL = "https://production.dataviz.cnn.io/index/fearandgreed/graphdata/2026-10-19"

func TestInterceptor_Matches(t *testing.T) {
	ic := NewInterceptor(DefaultRules(), nopLog())

	tests := []struct {
		url  string
		want bool
	}{
		{graphURL, true},
		{"https://production.dataviz.cnn.io/index/FearAndGreed/current", true},
		{"https://production.dataviz.cnn.io/index/fearandgreed/static/logo.svg", false},
		{"https://www.cnn.com/markets/graphdata", false},
		{"https://www.cnn.com/markets/fear-and-greed", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ic.Matches(tt.url), tt.url)
	}
}

func TestInterceptor_ObserveKeepsLastJSON(t *testing.T) {
	ic := NewInterceptor(DefaultRules(), nopLog())

	_, ok := ic.Last()
	assert.False(t, ok)

	ic.Observe(graphURL, []byte(`{"fear_and_greed":{"score":20}}`))
	ic.Observe(graphURL, []byte(`<html>rate limited</html>`))
	ic.Observe("https://example.com/other", []byte(`{"score":99}`))

	p, ok := ic.Last()
	require.True(t, ok)
	assert.Equal(t, `{"fear_and_greed":{"score":20}}`, p.Body)

	ic.Observe(graphURL, []byte(`{"fear_and_greed":{"score":21}}`))
	p, _ = ic.Last()
	assert.Equal(t, `{"fear_and_greed":{"score":21}}`, p.Body)

	ic.Reset()
	_, ok = ic.Last()
	assert.False(t, ok)
}

func TestInterceptor_Attempt(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantScore  int
		wantRating types.Rating
		wantSource types.Provenance
	}{
		{"nested", `{"fear_and_greed":{"score":42,"rating":"Fear","timestamp":"2026-10-19T12:00:00"}}`, 42, types.Fear, "network/nested"},
		{"nested decimal", `{"fear_and_greed":{"score":42.6,"rating":"fear"},"market_momentum_sp500":{"score":12}}`, 43, types.Fear, "network/nested"},
		{"deeply nested", `{"data":{"indicators":[{"fear_and_greed":{"score":"77","rating":"extreme_greed"}}]}}`, 77, types.ExtremeGreed, "network/nested"},
		{"top level", `{"score":61,"rating":"GREED"}`, 61, types.Greed, "network/top-level"},
		{"no rating", `{"fear_and_greed":{"score":50}}`, 50, "", "network/nested"},
		{"loose scan", `[{"widget":{"score":"12","rating":"extreme-fear"}}]`, 12, types.ExtremeFear, "network/scan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic := NewInterceptor(DefaultRules(), nopLog())
			ic.Observe(graphURL, []byte(tt.body))

			a, err := ic.Attempt(context.Background())
			require.NoError(t, err)
			assert.True(t, a.Valid())
			assert.Equal(t, tt.wantScore, a.Score)
			assert.Equal(t, tt.wantRating, a.Rating)
			assert.Equal(t, tt.wantSource, a.Source)
		})
	}
}

func TestInterceptor_AttemptFailures(t *testing.T) {
	ic := NewInterceptor(DefaultRules(), nopLog())

	_, err := ic.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrNoMatchingPayload)

	ic.Observe(graphURL, []byte(`{"fear_and_greed":{"score":150,"rating":"greed"}}`))
	a, err := ic.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrOutOfRangeScore)
	assert.False(t, a.Valid())

	ic.Observe(graphURL, []byte(`{"fear_and_greed":{"rating":"greed"}}`))
	_, err = ic.Attempt(context.Background())
	assert.ErrorIs(t, err, ErrNoMatchingPayload)
}
