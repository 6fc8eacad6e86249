package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankingToElo(t *testing.T) {
	assert.InDelta(t, 2500, RankingToElo(1), 0.001)
	assert.InDelta(t, 2350, RankingToElo(2), 0.001)
	assert.InDelta(t, 2200, RankingToElo(4), 0.001)
	// One 150-point step per doubling of rank.
	assert.InDelta(t, RankingToElo(8)-RankingToElo(16), 150, 0.001)
}

func TestRankingToElo_Floor(t *testing.T) {
	assert.Equal(t, 1000.0, RankingToElo(5000))
	assert.Equal(t, 1000.0, RankingToElo(100000))
}

func TestRankingToElo_NonPositiveRankTreatedAsOne(t *testing.T) {
	assert.Equal(t, RankingToElo(1), RankingToElo(0))
	assert.Equal(t, RankingToElo(1), RankingToElo(-3))
}

func TestRankingToElo_Monotone(t *testing.T) {
	prev := math.Inf(1)
	for rank := 1; rank <= 2000; rank *= 2 {
		elo := RankingToElo(rank)
		assert.LessOrEqual(t, elo, prev, "rank %d", rank)
		prev = elo
	}
}

func TestWinProbability(t *testing.T) {
	assert.InDelta(t, 0.5, WinProbability(1500, 1500), 1e-9)
	// 400 points of advantage is a 10:1 expectation.
	assert.InDelta(t, 10.0/11.0, WinProbability(1900, 1500), 1e-9)
	// Symmetric.
	assert.InDelta(t, 1.0, WinProbability(1700, 1400)+WinProbability(1400, 1700), 1e-9)
}
