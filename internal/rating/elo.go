// Package rating derives player strength ratings: a closed-form conversion
// from tour ranking, and a rolling Performance Elo replayed from actual
// results in the trailing window.
package rating

import "math"

const (
	// DefaultElo seeds players with no ranking at all.
	DefaultElo = 1200.0

	// Rating floor/ceiling kept after replay; realistic inputs never reach
	// either bound but corrupt rank data must not push ratings outside them.
	minElo = 600.0
	maxElo = 2600.0
)

// RankingToElo converts an ATP/WTA ordinal ranking into an Elo estimate.
// Monotone non-increasing in rank: #1 maps to 2500, #2 to 2350, roughly one
// 150-point step per doubling, floored at 1000.
func RankingToElo(rank int) float64 {
	if rank < 1 {
		rank = 1
	}
	elo := 2500 - 150*math.Log2(float64(rank))
	return math.Max(1000, elo)
}

// WinProbability is the standard Elo expectation for a player rated elo
// against an opponent rated oppElo.
func WinProbability(elo, oppElo float64) float64 {
	return 1 / (1 + math.Pow(10, (oppElo-elo)/400))
}

func clampElo(elo float64) float64 {
	return math.Min(maxElo, math.Max(minElo, elo))
}
