package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rem79/fear-greed-index/internal/types"
)

func TestPersistedFallback(t *testing.T) {
	snap := &types.Snapshot{Score: 30, Rating: "fear", LastUpdated: time.Now().Add(-26 * time.Hour)}
	f := NewPersistedFallback(fakeSnapshots{snap: snap}, nopLog())

	a, err := f.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, a.Score)
	assert.Equal(t, types.Fear, a.Rating)
	assert.Equal(t, types.Provenance("persisted"), a.Source)
}

func TestPersistedFallback_UnknownRatingLeftForDerivation(t *testing.T) {
	f := NewPersistedFallback(fakeSnapshots{snap: &types.Snapshot{Score: 90, Rating: "euphoric"}}, nopLog())

	a, err := f.Attempt(context.Background())
	require.NoError(t, err)
	assert.True(t, a.Valid())
	assert.Empty(t, a.Rating)
	assert.Equal(t, "euphoric", a.RawRating)
}

func TestPersistedFallback_Unavailable(t *testing.T) {
	tests := []struct {
		name  string
		snaps fakeSnapshots
	}{
		{"absent", fakeSnapshots{}},
		{"unreadable", fakeSnapshots{err: errors.New("permission denied")}},
		{"out of range", fakeSnapshots{snap: &types.Snapshot{Score: 101, Rating: "greed"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewPersistedFallback(tt.snaps, nopLog())
			a, err := f.Attempt(context.Background())
			assert.ErrorIs(t, err, ErrNoPersistedSnapshot)
			assert.False(t, a.Valid())
		})
	}
}
