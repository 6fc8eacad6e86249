package domain

import "time"

// MarketStatus mirrors the exchange's market lifecycle.
type MarketStatus string

const (
	MarketActive    MarketStatus = "ACTIVE"
	MarketSuspended MarketStatus = "SUSPENDED"
	MarketClosed    MarketStatus = "CLOSED"
)

// UpcomingMatch is a captured market snapshot for a head-to-head match-winner
// market. Player order is fixed at first capture and preserved across
// subsequent upserts so sides never swap.
type UpcomingMatch struct {
	MarketID    string    `json:"market_id"`
	Tournament  string    `json:"tournament"`
	StartTime   time.Time `json:"start_time"`
	Surface     Surface   `json:"surface"`
	Player1ID   int64     `json:"player1_id"`
	Player2ID   int64     `json:"player2_id"`
	Player1Name string    `json:"player1_name"`
	Player2Name string    `json:"player2_name"`
	Player1Odds *float64  `json:"player1_odds,omitempty"`
	Player2Odds *float64  `json:"player2_odds,omitempty"`

	// Liquidity at capture time, exchange units.
	TotalMatched   *float64 `json:"total_matched,omitempty"`
	TotalAvailable *float64 `json:"total_available,omitempty"`

	// Optional sharp-book reference odds, annotation only.
	SharpP1Odds *float64 `json:"sharp_p1_odds,omitempty"`
	SharpP2Odds *float64 `json:"sharp_p2_odds,omitempty"`

	Status     MarketStatus `json:"status"`
	CapturedAt time.Time    `json:"captured_at"`
}

// HasBothOdds reports whether the snapshot carries a usable price on each
// side, the precondition for suggestion.
func (u *UpcomingMatch) HasBothOdds() bool {
	return u.Player1Odds != nil && u.Player2Odds != nil &&
		*u.Player1Odds > 1.0 && *u.Player2Odds > 1.0
}

// Description renders the market as "Player1 v Player2" for bet records and
// duplicate checks.
func (u *UpcomingMatch) Description() string {
	return u.Player1Name + " v " + u.Player2Name
}
