// Package suggest converts model probabilities and market odds into ranked,
// staked bet candidates.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/attaboy/matchedge/internal/analysis"
	"github.com/attaboy/matchedge/internal/classify"
	"github.com/attaboy/matchedge/internal/domain"
)

// Config holds the staking knobs. Defaults mirror production settings.
type Config struct {
	EVThreshold   float64 // strict lower bound on expected value
	KellyFraction float64 // fractional Kelly multiplier
	BankrollUnits float64 // bankroll expressed in staking units
	MinStakeUnits float64
	MaxStakeUnits float64

	// SharpGate drops candidates whose edge disappears against the sharp
	// reference price. Markets without a sharp annotation pass untouched.
	SharpGate bool
}

// DefaultConfig returns the standard staking configuration.
func DefaultConfig() Config {
	return Config{
		EVThreshold:   0.05,
		KellyFraction: 0.25,
		BankrollUnits: 100,
		MinStakeUnits: 0.5,
		MaxStakeUnits: 3,
	}
}

// Per-model stake caps inside the global clamp. ModelC backs underdogs, so
// it carries the tightest cap.
var modelStakeCaps = map[domain.Model]float64{
	domain.ModelA: 2.0,
	domain.ModelB: 2.0,
	domain.ModelC: 1.0,
}

// Candidate is one recommended bet.
type Candidate struct {
	Market             domain.UpcomingMatch `json:"market"`
	PlayerID           int64                `json:"player_id"`
	Selection          string               `json:"selection"`
	Odds               float64              `json:"odds"`
	OurProbability     float64              `json:"our_probability"`
	ImpliedProbability float64              `json:"implied_probability"`
	ExpectedValue      float64              `json:"expected_value"`
	KellyStakePct      float64              `json:"kelly_stake_pct"`
	RecommendedUnits   float64              `json:"recommended_units"`
	Model              domain.Model         `json:"model"`
}

// Engine is the probability model the suggester consults.
type Engine interface {
	Calculate(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// PlayerSource supplies rankings for the ModelC gate.
type PlayerSource interface {
	GetPlayer(ctx context.Context, id int64) (*domain.Player, error)
}

// Suggester evaluates upcoming markets against the probability model.
type Suggester struct {
	engine  Engine
	players PlayerSource
	cfg     Config
	logger  *slog.Logger
}

// NewSuggester creates a Suggester.
func NewSuggester(engine Engine, players PlayerSource, cfg Config, logger *slog.Logger) *Suggester {
	return &Suggester{engine: engine, players: players, cfg: cfg, logger: logger}
}

// Suggest analyzes every market with both prices and returns value candidates
// sorted by EV descending, ties broken by higher Kelly stake then earlier
// start time. Duplicate (tournament, description, selection) triples within
// the batch are suppressed.
func (s *Suggester) Suggest(ctx context.Context, markets []domain.UpcomingMatch) ([]Candidate, error) {
	var out []Candidate
	seen := map[string]bool{}

	for i := range markets {
		m := &markets[i]
		if !m.HasBothOdds() {
			continue
		}
		// A zero id means the runner name never resolved; there is no data
		// to analyze until the player shows up in results.
		if m.Player1ID == 0 || m.Player2ID == 0 {
			continue
		}
		result, err := s.engine.Calculate(ctx, analysis.Request{
			Player1ID:   m.Player1ID,
			Player2ID:   m.Player2ID,
			Surface:     m.Surface,
			Tournament:  m.Tournament,
			Player1Odds: m.Player1Odds,
			Player2Odds: m.Player2Odds,
		})
		if err != nil {
			// A single unanalyzable market must not sink the batch.
			s.logger.Warn("skipping market", "market_id", m.MarketID, "error", err)
			continue
		}

		sides := []struct {
			playerID int64
			name     string
			odds     float64
			ourProb  float64
			oppID    int64
			sharp    *float64
		}{
			{m.Player1ID, m.Player1Name, *m.Player1Odds, result.P1Probability, m.Player2ID, m.SharpP1Odds},
			{m.Player2ID, m.Player2Name, *m.Player2Odds, result.P2Probability, m.Player1ID, m.SharpP2Odds},
		}

		for _, side := range sides {
			cand, ok, err := s.evaluate(ctx, m, side.playerID, side.oppID, side.name, side.odds, side.ourProb, side.sharp)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			key := m.Tournament + "|" + m.Description() + "|" + cand.Selection
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, *cand)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ExpectedValue != out[j].ExpectedValue {
			return out[i].ExpectedValue > out[j].ExpectedValue
		}
		if out[i].KellyStakePct != out[j].KellyStakePct {
			return out[i].KellyStakePct > out[j].KellyStakePct
		}
		return out[i].Market.StartTime.Before(out[j].Market.StartTime)
	})
	return out, nil
}

func (s *Suggester) evaluate(ctx context.Context, m *domain.UpcomingMatch, playerID, oppID int64, name string, odds, ourProb float64, sharpOdds *float64) (*Candidate, bool, error) {
	implied := 1 / odds
	ev := ExpectedValue(ourProb, odds)
	if ev <= s.cfg.EVThreshold {
		return nil, false, nil
	}
	// The gate requires our probability to clear even the sharp book's
	// implied price, not just the exchange's.
	if s.cfg.SharpGate && sharpOdds != nil && *sharpOdds > 1 && ourProb <= 1 / *sharpOdds {
		return nil, false, nil
	}

	model, err := s.assignModel(ctx, m, playerID, oppID, odds, ourProb, ourProb-implied)
	if err != nil {
		return nil, false, err
	}
	if model == domain.ModelNone {
		return nil, false, nil
	}

	kelly := KellyFraction(ourProb, odds) * s.cfg.KellyFraction
	units := s.stakeUnits(kelly, model)

	return &Candidate{
		Market:             *m,
		PlayerID:           playerID,
		Selection:          name,
		Odds:               odds,
		OurProbability:     ourProb,
		ImpliedProbability: implied,
		ExpectedValue:      ev,
		KellyStakePct:      kelly,
		RecommendedUnits:   units,
		Model:              model,
	}, true, nil
}

// assignModel applies the mutually exclusive model gates in order; the first
// match wins and no match discards the candidate.
func (s *Suggester) assignModel(ctx context.Context, m *domain.UpcomingMatch, playerID, oppID int64, odds, ourProb, edge float64) (domain.Model, error) {
	_, level := classify.Tournament(m.Tournament, m.StartTime)

	if ourProb >= 0.55 && edge >= 0.08 && odds <= 3.0 && mainTourLevel(level) {
		return domain.ModelA, nil
	}
	if ourProb >= 0.45 && ourProb < 0.55 && edge >= 0.10 && odds >= 2.0 && odds <= 4.0 {
		return domain.ModelB, nil
	}
	if edge >= 0.12 {
		underdog, err := s.rankGap(ctx, playerID, oppID)
		if err != nil {
			return domain.ModelNone, err
		}
		if underdog {
			return domain.ModelC, nil
		}
	}
	return domain.ModelNone, nil
}

// rankGap reports whether the opponent is higher-ranked by at least 50
// positions, the ModelC precondition. Missing rankings disqualify.
func (s *Suggester) rankGap(ctx context.Context, playerID, oppID int64) (bool, error) {
	player, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		return false, fmt.Errorf("load selection player: %w", err)
	}
	opp, err := s.players.GetPlayer(ctx, oppID)
	if err != nil {
		return false, fmt.Errorf("load opponent: %w", err)
	}
	if player == nil || opp == nil || player.CurrentRanking == nil || opp.CurrentRanking == nil {
		return false, nil
	}
	return *player.CurrentRanking-*opp.CurrentRanking >= 50, nil
}

func mainTourLevel(level domain.Level) bool {
	switch level {
	case domain.LevelGrandSlam, domain.LevelMasters, domain.LevelATP, domain.LevelWTA:
		return true
	}
	return false
}

// stakeUnits converts a fractional-Kelly share of bankroll into whole-or-half
// staking units, clamped to the configured band and the per-model cap.
func (s *Suggester) stakeUnits(kelly float64, model domain.Model) float64 {
	units := kelly * s.cfg.BankrollUnits
	units = math.Round(units*2) / 2
	if limit, ok := modelStakeCaps[model]; ok && units > limit {
		units = limit
	}
	if units < s.cfg.MinStakeUnits {
		units = s.cfg.MinStakeUnits
	}
	if units > s.cfg.MaxStakeUnits {
		units = s.cfg.MaxStakeUnits
	}
	return units
}

// ExpectedValue is the per-unit-stake EV of backing at decimal odds with true
// probability p.
func ExpectedValue(p, odds float64) float64 {
	return p*(odds-1) - (1 - p)
}

// KellyFraction is the full-Kelly bankroll share: (p·b − q) / b with
// b = odds − 1. Negative edges return 0.
func KellyFraction(p, odds float64) float64 {
	b := odds - 1
	if b <= 0 {
		return 0
	}
	k := (p*b - (1 - p)) / b
	if k < 0 {
		return 0
	}
	return k
}

// BetFromCandidate materializes a Bet record from a candidate.
func BetFromCandidate(c Candidate, placedAt time.Time) domain.Bet {
	return domain.Bet{
		MatchDate:          c.Market.StartTime,
		Tournament:         c.Market.Tournament,
		Description:        c.Market.Description(),
		Selection:          c.Selection,
		Odds:               c.Odds,
		Stake:              c.RecommendedUnits,
		OurProbability:     c.OurProbability,
		ImpliedProbability: c.ImpliedProbability,
		EVAtPlacement:      c.ExpectedValue,
		Model:              c.Model,
		PlacedAt:           placedAt,
	}
}
