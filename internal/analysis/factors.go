package analysis

import (
	"math"
	"regexp"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/rating"
)

// Factor weights. Fixed constants summing to 1.00.
const (
	WeightRankingElo      = 0.22
	WeightForm            = 0.12
	WeightSurface         = 0.14
	WeightHeadToHead      = 0.08
	WeightFatigue         = 0.08
	WeightInjury          = 0.06
	WeightOpponentQuality = 0.10
	WeightRecency         = 0.08
	WeightRecentLoss      = 0.06
	WeightMomentum        = 0.06
)

// DefaultRank substitutes for a missing ranking when the other side has one.
// The effective value is configurable per Analyzer; this is the fallback.
const DefaultRank = 1500

const (
	formWindow    = 10
	qualityWindow = 6
	longMatchMins = 180
)

var setToken = regexp.MustCompile(`\d{1,2}-\d{1,2}`)

// eloAdvantage converts the rank-derived Elo gap into a signed advantage.
// Both ranks absent means no signal; a single absent rank falls back to
// defaultRank.
func eloAdvantage(rank1, rank2 *int, defaultRank int) float64 {
	if rank1 == nil && rank2 == nil {
		return 0
	}
	r1, r2 := defaultRank, defaultRank
	if rank1 != nil {
		r1 = *rank1
	}
	if rank2 != nil {
		r2 = *rank2
	}
	p := rating.WinProbability(rating.RankingToElo(r1), rating.RankingToElo(r2))
	return 2 * (p - 0.5)
}

// formScore rates the player's last ten results on a 0-100 scale. The raw win
// rate is adjusted upward for wins over better-ranked opponents and downward,
// more sharply, for losses to worse-ranked opponents.
func formScore(playerID int64, playerRank *int, matches []domain.Match, defaultRank int) (float64, bool) {
	recent := lastN(matches, formWindow)
	if len(recent) == 0 {
		return 0, false
	}
	ownRank := defaultRank
	if playerRank != nil {
		ownRank = *playerRank
	}

	wins, losses := 0, 0
	adjust := 0.0
	for _, m := range recent {
		_, oppRank := m.OpponentOf(playerID)
		if m.Won(playerID) {
			wins++
			if oppRank != nil && *oppRank < ownRank {
				adjust += 3
			}
		} else {
			losses++
			if oppRank != nil && *oppRank > ownRank {
				adjust -= 5
			}
		}
	}
	score := 100*float64(wins)/float64(wins+losses) + adjust
	return clamp(score, 0, 100), true
}

// formAdvantage is the normalized difference of the two form scores.
func formAdvantage(p1ID int64, p1Rank *int, p1Matches []domain.Match, p2ID int64, p2Rank *int, p2Matches []domain.Match, defaultRank int) float64 {
	s1, ok1 := formScore(p1ID, p1Rank, p1Matches, defaultRank)
	s2, ok2 := formScore(p2ID, p2Rank, p2Matches, defaultRank)
	if !ok1 || !ok2 {
		return 0
	}
	return (s1 - s2) / 100
}

// combinedSurfaceRate blends career and recent win rates on a surface:
// 0.6 career + 0.4 recent.
func combinedSurfaceRate(playerID int64, surface domain.Surface, career *domain.SurfaceStats, matches []domain.Match) (float64, bool) {
	recentWins, recentTotal := 0, 0
	for _, m := range matches {
		if m.Surface != surface {
			continue
		}
		recentTotal++
		if m.Won(playerID) {
			recentWins++
		}
	}

	hasCareer := career != nil && career.MatchesPlayed > 0
	hasRecent := recentTotal > 0
	switch {
	case hasCareer && hasRecent:
		return 0.6*career.WinRate + 0.4*float64(recentWins)/float64(recentTotal), true
	case hasCareer:
		return career.WinRate, true
	case hasRecent:
		return float64(recentWins) / float64(recentTotal), true
	}
	return 0, false
}

func surfaceAdvantage(p1, p2 float64, ok1, ok2 bool) float64 {
	if !ok1 || !ok2 {
		return 0
	}
	return p1 - p2
}

// headToHeadAdvantage is the signed share of H2H meetings won by player 1.
func headToHeadAdvantage(p1Wins, p2Wins int) float64 {
	total := p1Wins + p2Wins
	if total == 0 {
		return 0
	}
	return float64(p1Wins-p2Wins) / float64(total)
}

// FatigueScore starts at 100 and deducts for recent workload: 8 points per
// match inside 7 days, 2 per match inside 30 days, and 10 more when the last
// match was under a day ago.
func FatigueScore(playerID int64, matches []domain.Match, now time.Time) float64 {
	score := 100.0
	var lastMatch time.Time
	for _, m := range matches {
		age := now.Sub(m.Date)
		if age < 0 {
			continue
		}
		if age <= 7*24*time.Hour {
			score -= 8
		}
		if age <= 30*24*time.Hour {
			score -= 2
		}
		if m.Date.After(lastMatch) {
			lastMatch = m.Date
		}
	}
	if !lastMatch.IsZero() && now.Sub(lastMatch) < 24*time.Hour {
		score -= 10
	}
	return clamp(score, 0, 100)
}

// FatigueBucket labels a fatigue score for display.
func FatigueBucket(score float64) string {
	switch {
	case score >= 70:
		return "Fresh"
	case score >= 50:
		return "Good"
	case score >= 30:
		return "Moderate"
	default:
		return "Tired"
	}
}

func fatigueAdvantage(p1Score, p2Score float64) float64 {
	return (p1Score - p2Score) / 100
}

// recencyWeight discounts a result by age.
func recencyWeight(age time.Duration) float64 {
	days := age.Hours() / 24
	switch {
	case days <= 7:
		return 1.0
	case days <= 30:
		return 0.7
	case days <= 90:
		return 0.4
	default:
		return 0.2
	}
}

// opponentQualityScore weights the last six results by opponent strength and
// recency: beating a top opponent recently counts most. Normalized to [-1, 1].
func opponentQualityScore(playerID int64, matches []domain.Match, now time.Time) (float64, bool) {
	recent := lastN(matches, qualityWindow)
	if len(recent) == 0 {
		return 0, false
	}
	signed, total := 0.0, 0.0
	for _, m := range recent {
		_, oppRank := m.OpponentOf(playerID)
		r := 200
		if oppRank != nil && *oppRank < 200 {
			r = *oppRank
		}
		w := (1 + float64(200-r)/200) * recencyWeight(now.Sub(m.Date))
		total += w
		if m.Won(playerID) {
			signed += w
		} else {
			signed -= w
		}
	}
	if total == 0 {
		return 0, false
	}
	return signed / total, true
}

func opponentQualityAdvantage(s1, s2 float64, ok1, ok2 bool) float64 {
	if !ok1 && !ok2 {
		return 0
	}
	return s1 - s2
}

// recencyScore is the time-weighted win/loss balance of recent results.
func recencyScore(playerID int64, matches []domain.Match, now time.Time) (float64, bool) {
	recent := lastN(matches, formWindow)
	if len(recent) == 0 {
		return 0, false
	}
	signed, total := 0.0, 0.0
	for _, m := range recent {
		w := recencyWeight(now.Sub(m.Date))
		total += w
		if m.Won(playerID) {
			signed += w
		} else {
			signed -= w
		}
	}
	return signed / total, true
}

func recencyAdvantage(s1, s2 float64, ok1, ok2 bool) float64 {
	if !ok1 && !ok2 {
		return 0
	}
	return s1 - s2
}

// recentLossPenalty inspects the most recent result. A fresh loss carries a
// penalty that decays over a week, with an extra hit for a long, draining
// defeat.
func recentLossPenalty(playerID int64, matches []domain.Match, now time.Time) float64 {
	if len(matches) == 0 {
		return 0
	}
	last := matches[0]
	for _, m := range matches[1:] {
		if m.Date.After(last.Date) {
			last = m
		}
	}
	if last.Won(playerID) {
		return 0
	}
	age := now.Sub(last.Date)
	penalty := 0.0
	switch {
	case age <= 3*24*time.Hour:
		penalty = 0.10
	case age <= 7*24*time.Hour:
		penalty = 0.05
	default:
		return 0
	}
	if isLongMatch(last) {
		penalty += 0.05
	}
	return penalty
}

// isLongMatch treats a five-set scoreline or three hours on court as a
// draining match.
func isLongMatch(m domain.Match) bool {
	if m.Minutes != nil && *m.Minutes >= longMatchMins {
		return true
	}
	return len(setToken.FindAllString(m.Score, -1)) >= 5
}

// momentumBonus rewards wins on the upcoming match's surface inside the last
// two weeks: 0.03 each, capped at 0.10.
func momentumBonus(playerID int64, surface domain.Surface, matches []domain.Match, now time.Time) float64 {
	bonus := 0.0
	for _, m := range matches {
		age := now.Sub(m.Date)
		if age < 0 || age > 14*24*time.Hour {
			continue
		}
		if m.Surface == surface && m.Won(playerID) {
			bonus += 0.03
		}
	}
	return math.Min(bonus, 0.10)
}

// lastN returns the n most recent matches, assuming newest-first order from
// the store.
func lastN(matches []domain.Match, n int) []domain.Match {
	if len(matches) <= n {
		return matches
	}
	return matches[:n]
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
