package domain

import "time"

// Hand is a player's dominant hand.
type Hand string

const (
	HandLeft    Hand = "L"
	HandRight   Hand = "R"
	HandUnknown Hand = "U"
)

// Tour identifies the professional tour a player competes on.
type Tour string

const (
	TourATP     Tour = "ATP"
	TourWTA     Tour = "WTA"
	TourUnknown Tour = ""
)

// Player represents a players row. Positive IDs are canonical rostered
// players; negative IDs are placeholders created by ingestion for names the
// resolver could not map.
type Player struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Country         string     `json:"country,omitempty"`
	Hand            Hand       `json:"hand"`
	HeightCM        *int       `json:"height_cm,omitempty"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	CurrentRanking  *int       `json:"current_ranking,omitempty"`
	PeakRanking     *int       `json:"peak_ranking,omitempty"`
	Tour            Tour       `json:"tour,omitempty"`
	PerformanceElo  float64    `json:"performance_elo"`
	PerformanceRank *int       `json:"performance_rank,omitempty"`
	// InjuryPenalty is a hand-entered 0..1 handicap applied by the injury
	// factor; 0 means fit.
	InjuryPenalty float64   `json:"injury_penalty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsPlaceholder reports whether the player was auto-created by ingestion and
// has not yet been merged into a canonical record.
func (p *Player) IsPlaceholder() bool { return p.ID < 0 }

// PlayerAlias maps a retired or duplicate player ID to its canonical record.
// Alias depth is always exactly one hop; the store resolves transitively on
// insert so chains never form.
type PlayerAlias struct {
	AliasID     int64     `json:"alias_id"`
	CanonicalID int64     `json:"canonical_id"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

// SurfaceStats is the per-player-per-surface aggregate, recomputed after bulk
// imports rather than maintained incrementally.
type SurfaceStats struct {
	PlayerID      int64   `json:"player_id"`
	Surface       Surface `json:"surface"`
	MatchesPlayed int     `json:"matches_played"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
}
