package domain

import (
	"time"

	"github.com/google/uuid"
)

// Model is the staking model that qualified a bet. ModelNone candidates are
// discarded by the suggester and only appear on manually entered bets.
type Model string

const (
	ModelA    Model = "ModelA"
	ModelB    Model = "ModelB"
	ModelC    Model = "ModelC"
	ModelNone Model = "None"
)

// BetResult is the settled outcome of a bet.
type BetResult string

const (
	BetWin  BetResult = "Win"
	BetLoss BetResult = "Loss"
	BetVoid BetResult = "Void"
)

// Bet is a bets row. Result and ProfitLoss are nil until settlement; a bet is
// settled exactly once.
type Bet struct {
	ID                 uuid.UUID  `json:"id"`
	MatchDate          time.Time  `json:"match_date"`
	Tournament         string     `json:"tournament"`
	Description        string     `json:"match_description"`
	Selection          string     `json:"selection"`
	Odds               float64    `json:"odds"`
	Stake              float64    `json:"stake"`
	OurProbability     float64    `json:"our_probability"`
	ImpliedProbability float64    `json:"implied_probability"`
	EVAtPlacement      float64    `json:"ev_at_placement"`
	Model              Model      `json:"model"`
	Result             *BetResult `json:"result,omitempty"`
	ProfitLoss         *float64   `json:"profit_loss,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	PlacedAt           time.Time  `json:"placed_at"`
	SettledAt          *time.Time `json:"settled_at,omitempty"`
}

// Settled reports whether the bet already has a result.
func (b *Bet) Settled() bool { return b.Result != nil }

// ProfitLossFor computes the deterministic P&L for a result given the bet's
// stake, odds, and the exchange commission rate on winnings.
func (b *Bet) ProfitLossFor(result BetResult, commission float64) float64 {
	switch result {
	case BetWin:
		return b.Stake * (b.Odds - 1) * (1 - commission)
	case BetLoss:
		return -b.Stake
	default:
		return 0
	}
}
