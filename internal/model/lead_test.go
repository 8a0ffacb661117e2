package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakdown_Sum(t *testing.T) {
	t.Parallel()

	b := Breakdown{
		FactorCompetitorPlatform: 25,
		FactorReviewVolume:       5,
		FactorHighRating:         10,
	}
	assert.Equal(t, 40, b.Sum())
	assert.Equal(t, 0, Breakdown{}.Sum())
}

func TestBreakdown_StringFollowsFactorOrder(t *testing.T) {
	t.Parallel()

	b := Breakdown{
		FactorAffordablePrice:    10,
		FactorReviewVolume:       15,
		FactorCompetitorPlatform: 25,
	}
	assert.Equal(t, "Competitor Platform:25;Review Volume:15;Affordable Price:10", b.String())
}

func TestParseBreakdown(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		in := Breakdown{
			FactorCompetitorPlatform: 25,
			FactorReviewVolume:       20,
			FactorHighDemandCategory: 20,
			FactorUrbanLocation:      15,
			FactorHighRating:         10,
			FactorAffordablePrice:    10,
		}
		out, err := ParseBreakdown(in.String())
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("empty blob", func(t *testing.T) {
		t.Parallel()
		out, err := ParseBreakdown("  ")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("unknown factor", func(t *testing.T) {
		t.Parallel()
		_, err := ParseBreakdown("Mystery:4")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown score factor")
	})

	t.Run("missing separator", func(t *testing.T) {
		t.Parallel()
		_, err := ParseBreakdown("Review Volume")
		require.Error(t, err)
	})

	t.Run("non-numeric points", func(t *testing.T) {
		t.Parallel()
		_, err := ParseBreakdown("Review Volume:five")
		require.Error(t, err)
	})
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	v, err := ParseVertical(" Restaurants ")
	require.NoError(t, err)
	assert.Equal(t, VerticalRestaurants, v)

	_, err = ParseVertical("pharmacy")
	assert.Error(t, err)

	p, err := ParsePriority("critical")
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, p)
	assert.True(t, p.Urgent())
	assert.False(t, PriorityMedium.Urgent())

	_, err = ParsePriority("P0")
	assert.Error(t, err)

	b, err := ParseReviewBucket("very low")
	require.NoError(t, err)
	assert.Equal(t, ReviewVeryLow, b)
}

func TestPresence_Any(t *testing.T) {
	t.Parallel()

	assert.False(t, Presence{}.Any())
	assert.True(t, Presence{PlatformA: true}.Any())
	assert.True(t, Presence{PlatformB: true}.Any())
}
