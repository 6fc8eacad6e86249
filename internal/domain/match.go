package domain

import (
	"strings"
	"time"
)

// Surface is a court surface from the closed set.
type Surface string

const (
	SurfaceHard    Surface = "Hard"
	SurfaceClay    Surface = "Clay"
	SurfaceGrass   Surface = "Grass"
	SurfaceCarpet  Surface = "Carpet"
	SurfaceUnknown Surface = ""
)

// NormalizeSurface maps free-form surface strings onto the closed set.
// Unrecognized values normalize to SurfaceUnknown.
func NormalizeSurface(s string) Surface {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hard", "indoor hard", "outdoor hard", "i.hard", "h":
		return SurfaceHard
	case "clay", "red clay", "green clay", "c":
		return SurfaceClay
	case "grass", "g":
		return SurfaceGrass
	case "carpet", "indoor carpet", "cpt":
		return SurfaceCarpet
	}
	return SurfaceUnknown
}

// Level is the tournament importance tier.
type Level string

const (
	LevelGrandSlam  Level = "Grand Slam"
	LevelMasters    Level = "Masters"
	LevelATP        Level = "ATP"
	LevelWTA        Level = "WTA"
	LevelChallenger Level = "Challenger"
	LevelITF        Level = "ITF"
	LevelOther      Level = "Other"
)

// Match is a completed match row. Idempotent by ID: re-inserting an existing
// ID is a no-op.
type Match struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	Tournament string    `json:"tournament"`
	Surface    Surface   `json:"surface"`
	Round      string    `json:"round,omitempty"`
	WinnerID   int64     `json:"winner_id"`
	LoserID    int64     `json:"loser_id"`
	WinnerRank *int      `json:"winner_rank,omitempty"`
	LoserRank  *int      `json:"loser_rank,omitempty"`
	Score      string    `json:"score,omitempty"`
	Minutes    *int      `json:"minutes,omitempty"`
	BestOf     *int      `json:"best_of,omitempty"`
}

// Won reports whether the given player (or any of its aliases already folded
// to canonical form) won this match.
func (m *Match) Won(playerID int64) bool { return m.WinnerID == playerID }

// OpponentOf returns the other player's ID and rank relative to playerID.
func (m *Match) OpponentOf(playerID int64) (int64, *int) {
	if m.WinnerID == playerID {
		return m.LoserID, m.LoserRank
	}
	return m.WinnerID, m.WinnerRank
}

// RankOf returns the recorded rank for playerID in this match, if any.
func (m *Match) RankOf(playerID int64) *int {
	if m.WinnerID == playerID {
		return m.WinnerRank
	}
	return m.LoserRank
}

// Tournament is a tournaments row: a classified event discovered during
// ingestion, reused for K-factor and model-gate lookups.
type TournamentInfo struct {
	Name      string    `json:"name"`
	Surface   Surface   `json:"surface"`
	Level     Level     `json:"level"`
	FirstSeen time.Time `json:"first_seen"`
}
