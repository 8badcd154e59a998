package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveRating_Boundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Rating
	}{
		{0, ExtremeFear},
		{25, ExtremeFear},
		{26, Fear},
		{44, Fear},
		{45, Neutral},
		{55, Neutral},
		{56, Greed},
		{74, Greed},
		{75, ExtremeGreed},
		{100, ExtremeGreed},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveRating(tc.score), "score %d", tc.score)
	}
}

func TestDeriveRating_MonotonicOverRange(t *testing.T) {
	prev := -1
	for s := MinScore; s <= MaxScore; s++ {
		r := DeriveRating(s)
		require.True(t, r.Valid(), "score %d derived unknown label %q", s, r)
		require.GreaterOrEqual(t, r.Rank(), prev, "rank dropped at score %d", s)
		prev = r.Rank()
	}
}

func TestNormalizeRating(t *testing.T) {
	cases := map[string]Rating{
		"Fear":           Fear,
		"  GREED ":       Greed,
		"Extreme Fear":   ExtremeFear,
		"extreme_greed":  ExtremeGreed,
		"Extreme-Fear":   ExtremeFear,
		"extreme   fear": ExtremeFear,
		"neutral\n":      Neutral,
	}
	for in, want := range cases {
		got, ok := NormalizeRating(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	for _, in := range []string{"", "unknown", "very greedy", "fearful", "extreme"} {
		_, ok := NormalizeRating(in)
		assert.False(t, ok, "input %q should not normalize", in)
	}
}

func TestParseScore(t *testing.T) {
	valid := map[string]int{
		"0":      0,
		"42":     42,
		" 73 ":   73,
		"42.4":   42,
		"42.6":   43,
		"100":    100,
		"99.999": 100,
	}
	for in, want := range valid {
		got, ok := ParseScore(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	for _, in := range []string{"", "abc", "137", "-1", "100.6", "NaN", "Inf", "4e1", "-0.4", "+42", "0x2A", "42."} {
		_, ok := ParseScore(in)
		assert.False(t, ok, "input %q should be rejected", in)
	}
}

func TestAttemptValid(t *testing.T) {
	assert.False(t, NoData("dom/primary").Valid())
	assert.True(t, Attempt{Score: 0, HasScore: true}.Valid())
	assert.False(t, Attempt{Score: 137, HasScore: true}.Valid())
}
