// Package analysis implements the ten-factor match-winner probability model.
// Every factor is a pure function of store state at call time; a factor with
// insufficient data contributes zero advantage and its weight is not
// redistributed.
package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
)

// DataSource is the read view the analyzer borrows from the store.
type DataSource interface {
	GetPlayer(ctx context.Context, id int64) (*domain.Player, error)
	GetPlayerMatches(ctx context.Context, id int64, since time.Time, limit int) ([]domain.Match, error)
	HeadToHead(ctx context.Context, p1ID, p2ID int64) (p1Wins, p2Wins int, err error)
	GetSurfaceStats(ctx context.Context, playerID int64, surface domain.Surface) (*domain.SurfaceStats, error)
}

// Factor is one weighted signal. Advantage is signed in [-1, 1], positive
// favoring player 1.
type Factor struct {
	Name      string  `json:"name"`
	Weight    float64 `json:"weight"`
	Advantage float64 `json:"advantage"`
}

// Result is the computed probability split for a matchup.
type Result struct {
	P1Probability     float64  `json:"p1_probability"`
	P2Probability     float64  `json:"p2_probability"`
	WeightedAdvantage float64  `json:"weighted_advantage"`
	Factors           []Factor `json:"factors"`

	// Echoed market context when odds were supplied with the request.
	P1ImpliedProbability *float64 `json:"p1_implied_probability,omitempty"`
	P2ImpliedProbability *float64 `json:"p2_implied_probability,omitempty"`
}

// Request identifies the matchup to analyze. Odds are optional annotations.
type Request struct {
	Player1ID    int64
	Player2ID    int64
	Surface      domain.Surface
	Tournament   string
	Player1Odds  *float64
	Player2Odds  *float64
}

const (
	// logisticSlope converts the weighted advantage into a probability.
	logisticSlope = 3.0

	// Probabilities are clamped away from certainty.
	minProbability = 0.02
	maxProbability = 0.98

	// matchFetchLimit bounds how much history a single analysis reads; the
	// widest factor window is ten matches, fetched with slack for surface
	// and momentum filters.
	matchFetchLimit = 30
)

// Analyzer computes win probabilities from store data.
type Analyzer struct {
	src DataSource
	// windowMonths bounds how far back factor inputs reach.
	windowMonths int
	// defaultRank substitutes for a missing ranking.
	defaultRank int
	now         func() time.Time
}

// NewAnalyzer creates an Analyzer reading from src with the given rolling
// window in months. A non-positive defaultRank falls back to DefaultRank.
func NewAnalyzer(src DataSource, windowMonths, defaultRank int) *Analyzer {
	if defaultRank <= 0 {
		defaultRank = DefaultRank
	}
	return &Analyzer{src: src, windowMonths: windowMonths, defaultRank: defaultRank, now: time.Now}
}

// Calculate produces P(player1 wins) for the matchup. Deterministic: equal
// store state and request always yield equal output.
func (a *Analyzer) Calculate(ctx context.Context, req Request) (*Result, error) {
	if req.Player1ID == req.Player2ID {
		return nil, domain.ErrInvalidData("cannot analyze a player against themselves")
	}
	now := a.now()
	since := now.AddDate(0, -a.windowMonths, 0)

	p1, err := a.src.GetPlayer(ctx, req.Player1ID)
	if err != nil {
		return nil, fmt.Errorf("load player 1: %w", err)
	}
	p2, err := a.src.GetPlayer(ctx, req.Player2ID)
	if err != nil {
		return nil, fmt.Errorf("load player 2: %w", err)
	}
	if p1 == nil || p2 == nil {
		return nil, domain.ErrNotFound("player", fmt.Sprintf("%d/%d", req.Player1ID, req.Player2ID))
	}

	m1, err := a.src.GetPlayerMatches(ctx, p1.ID, since, matchFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("load player 1 matches: %w", err)
	}
	m2, err := a.src.GetPlayerMatches(ctx, p2.ID, since, matchFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("load player 2 matches: %w", err)
	}

	h2h1, h2h2, err := a.src.HeadToHead(ctx, p1.ID, p2.ID)
	if err != nil {
		return nil, fmt.Errorf("load head-to-head: %w", err)
	}

	var stats1, stats2 *domain.SurfaceStats
	if req.Surface != domain.SurfaceUnknown {
		if stats1, err = a.src.GetSurfaceStats(ctx, p1.ID, req.Surface); err != nil {
			return nil, fmt.Errorf("load player 1 surface stats: %w", err)
		}
		if stats2, err = a.src.GetSurfaceStats(ctx, p2.ID, req.Surface); err != nil {
			return nil, fmt.Errorf("load player 2 surface stats: %w", err)
		}
	}

	sr1, srOK1 := combinedSurfaceRate(p1.ID, req.Surface, stats1, m1)
	sr2, srOK2 := combinedSurfaceRate(p2.ID, req.Surface, stats2, m2)
	oq1, oqOK1 := opponentQualityScore(p1.ID, m1, now)
	oq2, oqOK2 := opponentQualityScore(p2.ID, m2, now)
	rc1, rcOK1 := recencyScore(p1.ID, m1, now)
	rc2, rcOK2 := recencyScore(p2.ID, m2, now)

	factors := []Factor{
		{"ranking_elo", WeightRankingElo, eloAdvantage(p1.CurrentRanking, p2.CurrentRanking, a.defaultRank)},
		{"form", WeightForm, formAdvantage(p1.ID, p1.CurrentRanking, m1, p2.ID, p2.CurrentRanking, m2, a.defaultRank)},
		{"surface", WeightSurface, surfaceAdvantage(sr1, sr2, srOK1, srOK2)},
		{"head_to_head", WeightHeadToHead, headToHeadAdvantage(h2h1, h2h2)},
		{"fatigue", WeightFatigue, fatigueAdvantage(FatigueScore(p1.ID, m1, now), FatigueScore(p2.ID, m2, now))},
		{"injury", WeightInjury, p2.InjuryPenalty - p1.InjuryPenalty},
		{"opponent_quality", WeightOpponentQuality, opponentQualityAdvantage(oq1, oq2, oqOK1, oqOK2)},
		{"recency", WeightRecency, recencyAdvantage(rc1, rc2, rcOK1, rcOK2)},
		{"recent_loss", WeightRecentLoss, recentLossPenalty(p2.ID, m2, now) - recentLossPenalty(p1.ID, m1, now)},
		{"momentum", WeightMomentum, momentumBonus(p1.ID, req.Surface, m1, now) - momentumBonus(p2.ID, req.Surface, m2, now)},
	}

	weighted := 0.0
	for _, f := range factors {
		weighted += f.Weight * f.Advantage
	}

	p1Prob := clamp(1/(1+math.Exp(-logisticSlope*weighted)), minProbability, maxProbability)
	result := &Result{
		P1Probability:     p1Prob,
		P2Probability:     1 - p1Prob,
		WeightedAdvantage: weighted,
		Factors:           factors,
	}
	if req.Player1Odds != nil && *req.Player1Odds > 1 {
		implied := 1 / *req.Player1Odds
		result.P1ImpliedProbability = &implied
	}
	if req.Player2Odds != nil && *req.Player2Odds > 1 {
		implied := 1 / *req.Player2Odds
		result.P2ImpliedProbability = &implied
	}
	return result, nil
}
