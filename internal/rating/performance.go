package rating

import (
	"sort"
	"time"

	"github.com/attaboy/matchedge/internal/classify"
	"github.com/attaboy/matchedge/internal/domain"
)

// tourInferenceRounds bounds the fixed-point pass that resolves ambiguous
// players from their opponents' already-assigned tours.
const tourInferenceRounds = 10

// Input carries everything the recomputation needs. It is assembled by the
// caller from store reads so the replay itself is pure and non-suspending.
type Input struct {
	// Matches inside the rolling window, any order.
	Matches []domain.Match
	// Rankings is the current-ranking cache used when a match row lacks the
	// opponent's rank.
	Rankings map[int64]int
	// PriorTour carries previously assigned tours, used as inference seed.
	PriorTour map[int64]domain.Tour
	// DefaultElo seeds players absent from Rankings. Non-positive falls back
	// to the package default.
	DefaultElo float64
}

// PlayerResult is one player's recomputed rating.
type PlayerResult struct {
	Elo  float64
	Tour domain.Tour
	Rank int
}

// Recompute replays the window chronologically per player and returns updated
// ratings, tours, and dense per-tour performance ranks. Players with no
// matches in the window are absent from the result; the caller leaves their
// stored rating and rank untouched.
func Recompute(in Input) map[int64]PlayerResult {
	byPlayer := map[int64][]domain.Match{}
	for _, m := range in.Matches {
		byPlayer[m.WinnerID] = append(byPlayer[m.WinnerID], m)
		byPlayer[m.LoserID] = append(byPlayer[m.LoserID], m)
	}

	seed := in.DefaultElo
	if seed <= 0 {
		seed = DefaultElo
	}

	elo := make(map[int64]float64, len(byPlayer))
	for id, matches := range byPlayer {
		elo[id] = replayPlayer(id, matches, in.Rankings, seed)
	}

	tours := inferTours(byPlayer, in.PriorTour)

	result := make(map[int64]PlayerResult, len(byPlayer))
	for id := range byPlayer {
		result[id] = PlayerResult{Elo: elo[id], Tour: tours[id]}
	}
	assignRanks(result)
	return result
}

func replayPlayer(id int64, matches []domain.Match, rankings map[int64]int, defaultElo float64) float64 {
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Date.Equal(matches[j].Date) {
			return matches[i].Date.Before(matches[j].Date)
		}
		return matches[i].ID < matches[j].ID
	})

	cur := seedElo(id, rankings, defaultElo)
	for _, m := range matches {
		oppID, oppRank := m.OpponentOf(id)
		oppElo := opponentElo(oppID, oppRank, rankings, defaultElo)

		_, level := classify.Tournament(m.Tournament, m.Date)
		k := classify.KFactor(level)

		expected := WinProbability(cur, oppElo)
		actual := 0.0
		if m.Won(id) {
			actual = 1.0
		}
		cur += k * (actual - expected)
	}
	return clampElo(cur)
}

func seedElo(id int64, rankings map[int64]int, defaultElo float64) float64 {
	if r, ok := rankings[id]; ok && r > 0 {
		return RankingToElo(r)
	}
	return defaultElo
}

func opponentElo(oppID int64, matchRank *int, rankings map[int64]int, defaultElo float64) float64 {
	if matchRank != nil && *matchRank > 0 {
		return RankingToElo(*matchRank)
	}
	if r, ok := rankings[oppID]; ok && r > 0 {
		return RankingToElo(r)
	}
	return defaultElo
}

// inferTours assigns ATP/WTA from tournament name signals, then runs a
// fixed-point pass that resolves ambiguous players by majority of their
// opponents' assigned tours, and finally falls back WTA-aware: a player whose
// assigned opponents are exclusively WTA becomes WTA, everyone else ATP.
func inferTours(byPlayer map[int64][]domain.Match, prior map[int64]domain.Tour) map[int64]domain.Tour {
	tours := make(map[int64]domain.Tour, len(byPlayer))

	for id, matches := range byPlayer {
		womens, mens := 0, 0
		for _, m := range matches {
			if classify.IsWomens(m.Tournament) {
				womens++
			}
			if classify.IsMens(m.Tournament) {
				mens++
			}
		}
		switch {
		case womens > mens:
			tours[id] = domain.TourWTA
		case mens > womens:
			tours[id] = domain.TourATP
		case prior[id] != domain.TourUnknown:
			tours[id] = prior[id]
		default:
			tours[id] = domain.TourUnknown
		}
	}

	for round := 0; round < tourInferenceRounds; round++ {
		changed := false
		for id, matches := range byPlayer {
			if tours[id] != domain.TourUnknown {
				continue
			}
			atp, wta := opponentTourCounts(id, matches, tours)
			switch {
			case wta > atp:
				tours[id] = domain.TourWTA
				changed = true
			case atp > wta:
				tours[id] = domain.TourATP
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for id, matches := range byPlayer {
		if tours[id] != domain.TourUnknown {
			continue
		}
		atp, wta := opponentTourCounts(id, matches, tours)
		if wta > 0 && atp == 0 {
			tours[id] = domain.TourWTA
		} else {
			tours[id] = domain.TourATP
		}
	}
	return tours
}

func opponentTourCounts(id int64, matches []domain.Match, tours map[int64]domain.Tour) (atp, wta int) {
	for _, m := range matches {
		oppID, _ := m.OpponentOf(id)
		switch tours[oppID] {
		case domain.TourATP:
			atp++
		case domain.TourWTA:
			wta++
		}
	}
	return atp, wta
}

// assignRanks sets the dense rank within each tour, highest Elo first.
// Players on equal Elo share a rank.
func assignRanks(result map[int64]PlayerResult) {
	byTour := map[domain.Tour][]int64{}
	for id, r := range result {
		byTour[r.Tour] = append(byTour[r.Tour], id)
	}
	for _, ids := range byTour {
		sort.Slice(ids, func(i, j int) bool {
			if result[ids[i]].Elo != result[ids[j]].Elo {
				return result[ids[i]].Elo > result[ids[j]].Elo
			}
			return ids[i] < ids[j]
		})
		rank := 0
		var prevElo float64
		for i, id := range ids {
			if i == 0 || result[id].Elo != prevElo {
				rank++
			}
			prevElo = result[id].Elo
			r := result[id]
			r.Rank = rank
			result[id] = r
		}
	}
}

// WindowStart returns the inclusive start of the rolling window ending now.
func WindowStart(now time.Time, months int) time.Time {
	return now.AddDate(0, -months, 0)
}
