package types

import "strings"

// Rating is one of the five fixed sentiment labels
type Rating string

const (
	ExtremeFear  Rating = "extreme fear"
	Fear         Rating = "fear"
	Neutral      Rating = "neutral"
	Greed        Rating = "greed"
	ExtremeGreed Rating = "extreme greed"
)

// Ratings lists the labels from most fearful to most greedy
var Ratings = []Rating{ExtremeFear, Fear, Neutral, Greed, ExtremeGreed}

// Rank returns the position of r in Ratings, or -1 for an unknown label
func (r Rating) Rank() int {
	for i, known := range Ratings {
		if r == known {
			return i
		}
	}
	return -1
}

// Valid reports whether r is one of the five labels
func (r Rating) Valid() bool {
	return r.Rank() >= 0
}

func (r Rating) String() string {
	return string(r)
}

var ratingSeparators = strings.NewReplacer("_", " ", "-", " ")

// NormalizeRating lower-cases and trims s and maps it onto the closed set.
// "Extreme Fear", "EXTREME_FEAR" and "extreme-fear" all become ExtremeFear.
// Anything else is reported as absent.
func NormalizeRating(s string) (Rating, bool) {
	s = strings.ToLower(ratingSeparators.Replace(s))
	s = strings.Join(strings.Fields(s), " ")

	r := Rating(s)
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// DeriveRating maps a score onto a label using the fixed thresholds
//
//	0-25 extreme fear, 26-44 fear, 45-55 neutral, 56-74 greed, 75-100 extreme greed
func DeriveRating(score int) Rating {
	switch {
	case score <= 25:
		return ExtremeFear
	case score <= 44:
		return Fear
	case score <= 55:
		return Neutral
	case score <= 74:
		return Greed
	default:
		return ExtremeGreed
	}
}
