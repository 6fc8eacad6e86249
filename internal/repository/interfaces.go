package repository

import (
	"context"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PlayerRepository provides access to players, player_aliases, and
// name_mappings.
type PlayerRepository interface {
	// FindByID returns the raw row without alias resolution.
	FindByID(ctx context.Context, db DBTX, id int64) (*domain.Player, error)

	// CanonicalID follows at most one alias hop.
	CanonicalID(ctx context.Context, db DBTX, id int64) (int64, error)

	// Search matches names case- and diacritic-insensitively.
	Search(ctx context.Context, db DBTX, query string, limit int) ([]domain.Player, error)

	// Create inserts a canonical player.
	Create(ctx context.Context, db DBTX, p *domain.Player) error

	// CreatePlaceholder allocates the next negative placeholder ID for a
	// name ingestion could not resolve.
	CreatePlaceholder(ctx context.Context, db DBTX, name string, tour domain.Tour) (*domain.Player, error)

	// AliasesOf returns all alias IDs pointing at canonical id.
	AliasesOf(ctx context.Context, db DBTX, id int64) ([]int64, error)

	// AddAlias inserts a depth-1 alias, resolving canonicalID transitively
	// first. Rejects cycles; idempotent on re-insert.
	AddAlias(ctx context.Context, db DBTX, aliasID, canonicalID int64, source string) error

	// UpdateRating sets performance Elo, tour, and rank.
	UpdateRating(ctx context.Context, db DBTX, id int64, elo float64, tour domain.Tour, rank int) error

	// FindIDsByKey resolves a folded name key against player names, aliases,
	// and user mappings, filtered by tour hint when not TourUnknown.
	FindIDsByKey(ctx context.Context, db DBTX, key string, hint domain.Tour) ([]int64, error)

	// Rankings returns the current-ranking cache for Elo recomputation.
	Rankings(ctx context.Context, db DBTX) (map[int64]int, error)

	// Tours returns previously assigned tours.
	Tours(ctx context.Context, db DBTX) (map[int64]domain.Tour, error)
}

// MatchRepository provides access to matches, tournaments, and
// player_surface_stats.
type MatchRepository interface {
	// Insert writes a match; re-inserting an existing ID is a no-op.
	// Returns whether a row was written.
	Insert(ctx context.Context, db DBTX, m *domain.Match) (bool, error)

	FindByID(ctx context.Context, db DBTX, id string) (*domain.Match, error)

	// ListForPlayer returns matches for the canonical player and all of its
	// aliases since the given date, newest first.
	ListForPlayer(ctx context.Context, db DBTX, playerIDs []int64, since time.Time, limit int) ([]domain.Match, error)

	// ListBetween returns matches in the inclusive date range.
	ListBetween(ctx context.Context, db DBTX, from, to time.Time) ([]domain.Match, error)

	// HeadToHead counts meetings between the two canonical id sets.
	HeadToHead(ctx context.Context, db DBTX, p1IDs, p2IDs []int64) (p1Wins, p2Wins int, err error)

	// UpsertTournament records a classified tournament.
	UpsertTournament(ctx context.Context, db DBTX, t *domain.TournamentInfo) error

	// RecomputeSurfaceStats rebuilds player_surface_stats from matches.
	RecomputeSurfaceStats(ctx context.Context, db DBTX) error

	// SurfaceStats returns the aggregate for one player and surface.
	SurfaceStats(ctx context.Context, db DBTX, playerID int64, surface domain.Surface) (*domain.SurfaceStats, error)
}

// UpcomingRepository provides access to upcoming_matches snapshots.
type UpcomingRepository interface {
	// Upsert writes a market snapshot keyed by market ID, preserving the
	// original player order on update. A side stored with id 0 adopts a
	// later-resolved id.
	Upsert(ctx context.Context, db DBTX, u *domain.UpcomingMatch) error

	// ListOpen returns non-closed markets with a start time after cutoff.
	ListOpen(ctx context.Context, db DBTX, cutoff time.Time) ([]domain.UpcomingMatch, error)

	// AnnotateSharpOdds attaches reference-book odds to a market.
	AnnotateSharpOdds(ctx context.Context, db DBTX, marketID string, p1Odds, p2Odds float64) error

	// DeleteStale drops markets whose start time passed before cutoff.
	DeleteStale(ctx context.Context, db DBTX, cutoff time.Time) (int64, error)
}

// BetRepository provides access to bets.
type BetRepository interface {
	Insert(ctx context.Context, db DBTX, b *domain.Bet) error

	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Bet, error)

	// Duplicate checks the (description, selection, match_date, tournament)
	// uniqueness contract.
	Duplicate(ctx context.Context, db DBTX, description, selection string, matchDate time.Time, tournament string) (bool, error)

	ListPending(ctx context.Context, db DBTX) ([]domain.Bet, error)

	List(ctx context.Context, db DBTX, limit int) ([]domain.Bet, error)

	// Settle records the result exactly once; returns false when already
	// settled.
	Settle(ctx context.Context, db DBTX, id uuid.UUID, result domain.BetResult, profitLoss float64, settledAt time.Time) (bool, error)

	// BackfillModelTags re-derives the model for historical bets missing it.
	BackfillModelTags(ctx context.Context, db DBTX) (int64, error)
}

// MetadataRepository provides the metadata key/value table and the
// append-only validation log.
type MetadataRepository interface {
	Get(ctx context.Context, db DBTX, key string) (string, bool, error)
	Set(ctx context.Context, db DBTX, key, value string) error

	AppendValidation(ctx context.Context, db DBTX, source, reason, payload string) error
	RecentValidation(ctx context.Context, db DBTX, limit int) ([]ValidationEntry, error)
}

// ValidationEntry is one validation_log row.
type ValidationEntry struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	Reason    string    `json:"reason"`
	Payload   string    `json:"payload,omitempty"`
}
