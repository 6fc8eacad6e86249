package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/rating"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the single owner of persistence. Every other component borrows
// read views and submits writes through it; writes are transactional per
// call.
type Store struct {
	pool     *pgxpool.Pool
	players  PlayerRepository
	matches  MatchRepository
	upcoming UpcomingRepository
	bets     BetRepository
	metadata MetadataRepository
	logger   *slog.Logger
}

// NewStore wires a Store over the given pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{
		pool:     pool,
		players:  NewPlayerRepository(),
		matches:  NewMatchRepository(),
		upcoming: NewUpcomingRepository(),
		bets:     NewBetRepository(),
		metadata: NewMetadataRepository(),
		logger:   logger,
	}
}

// Pool exposes the underlying pool for health checks.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Players

// GetPlayer returns the canonical record after at most one alias hop.
func (s *Store) GetPlayer(ctx context.Context, id int64) (*domain.Player, error) {
	canonical, err := s.players.CanonicalID(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	return s.players.FindByID(ctx, s.pool, canonical)
}

// SearchPlayers matches name substrings, case- and diacritic-insensitive.
func (s *Store) SearchPlayers(ctx context.Context, query string, limit int) ([]domain.Player, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	return s.players.Search(ctx, s.pool, query, limit)
}

// CreatePlayer inserts a canonical player.
func (s *Store) CreatePlayer(ctx context.Context, p *domain.Player) error {
	return s.players.Create(ctx, s.pool, p)
}

// CreatePlaceholder materializes a negative-ID placeholder for an unresolved
// name.
func (s *Store) CreatePlaceholder(ctx context.Context, name string, tour domain.Tour) (*domain.Player, error) {
	return s.players.CreatePlaceholder(ctx, s.pool, name, tour)
}

// AddPlayerAlias inserts a depth-1 alias; cycles are rejected and re-inserts
// of the same mapping are no-ops.
func (s *Store) AddPlayerAlias(ctx context.Context, aliasID, canonicalID int64, source string) error {
	return s.players.AddAlias(ctx, s.pool, aliasID, canonicalID, source)
}

// FindPlayerIDsByKey implements the resolver's store lookup.
func (s *Store) FindPlayerIDsByKey(ctx context.Context, key string, hint domain.Tour) ([]int64, error) {
	return s.players.FindIDsByKey(ctx, s.pool, key, hint)
}

// Matches

// canonicalFamily is the canonical id plus every alias pointing at it, for
// queries that must see matches recorded under old ids.
func (s *Store) canonicalFamily(ctx context.Context, id int64) ([]int64, error) {
	canonical, err := s.players.CanonicalID(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	aliases, err := s.players.AliasesOf(ctx, s.pool, canonical)
	if err != nil {
		return nil, err
	}
	return append([]int64{canonical}, aliases...), nil
}

// GetPlayerMatches returns the canonical player's matches, including those
// recorded under alias ids, newest first.
func (s *Store) GetPlayerMatches(ctx context.Context, id int64, since time.Time, limit int) ([]domain.Match, error) {
	family, err := s.canonicalFamily(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.matches.ListForPlayer(ctx, s.pool, family, since, limit)
}

// GetRecentMatches returns matches across all players from the last N days.
func (s *Store) GetRecentMatches(ctx context.Context, days int) ([]domain.Match, error) {
	now := time.Now()
	return s.matches.ListBetween(ctx, s.pool, now.AddDate(0, 0, -days), now)
}

// GetMatchesBetween returns matches in the inclusive date range.
func (s *Store) GetMatchesBetween(ctx context.Context, from, to time.Time) ([]domain.Match, error) {
	return s.matches.ListBetween(ctx, s.pool, from, to)
}

// GetMatch returns a match by id, nil when absent.
func (s *Store) GetMatch(ctx context.Context, id string) (*domain.Match, error) {
	return s.matches.FindByID(ctx, s.pool, id)
}

// HeadToHead counts meetings between the two players, alias-aware.
func (s *Store) HeadToHead(ctx context.Context, p1ID, p2ID int64) (int, int, error) {
	f1, err := s.canonicalFamily(ctx, p1ID)
	if err != nil {
		return 0, 0, err
	}
	f2, err := s.canonicalFamily(ctx, p2ID)
	if err != nil {
		return 0, 0, err
	}
	return s.matches.HeadToHead(ctx, s.pool, f1, f2)
}

// GetSurfaceStats returns the canonical player's aggregate on a surface.
func (s *Store) GetSurfaceStats(ctx context.Context, playerID int64, surface domain.Surface) (*domain.SurfaceStats, error) {
	canonical, err := s.players.CanonicalID(ctx, s.pool, playerID)
	if err != nil {
		return nil, err
	}
	return s.matches.SurfaceStats(ctx, s.pool, canonical, surface)
}

// InsertMatch validates and inserts a completed match. Critical violations
// reject with a typed error; soft issues accept with warnings. Both are
// appended to the validation log. The write is transactional: match insert,
// tournament upsert, and log entries land together or not at all.
func (s *Store) InsertMatch(ctx context.Context, m *domain.Match, source string) (bool, error) {
	now := time.Now()
	payload, _ := json.Marshal(m)

	warnings, err := domain.ValidateMatch(m, now)
	if err != nil {
		if logErr := s.metadata.AppendValidation(ctx, s.pool, source, err.Error(), string(payload)); logErr != nil {
			s.logger.Error("validation log append failed", "error", logErr)
		}
		return false, err
	}

	// Both sides must canonicalize to distinct players.
	w, err := s.players.CanonicalID(ctx, s.pool, m.WinnerID)
	if err != nil {
		return false, err
	}
	l, err := s.players.CanonicalID(ctx, s.pool, m.LoserID)
	if err != nil {
		return false, err
	}
	if w == l {
		reason := fmt.Sprintf("match %s: winner and loser canonicalize to the same player %d", m.ID, w)
		if logErr := s.metadata.AppendValidation(ctx, s.pool, source, reason, string(payload)); logErr != nil {
			s.logger.Error("validation log append failed", "error", logErr)
		}
		return false, domain.ErrReferential(reason)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, domain.ErrIO("begin tx", err)
	}
	defer tx.Rollback(ctx)

	inserted, err := s.matches.Insert(ctx, tx, m)
	if err != nil {
		return false, domain.ErrIO("insert match", err)
	}
	if inserted && m.Tournament != "" {
		t := &domain.TournamentInfo{Name: m.Tournament, Surface: m.Surface, FirstSeen: m.Date}
		if t.Level == "" {
			t.Level = domain.LevelOther
		}
		if err := s.matches.UpsertTournament(ctx, tx, t); err != nil {
			return false, domain.ErrIO("upsert tournament", err)
		}
	}
	for _, warning := range warnings {
		if err := s.metadata.AppendValidation(ctx, tx, source, "warning: "+warning, string(payload)); err != nil {
			return false, domain.ErrIO("append validation warning", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, domain.ErrIO("commit tx", err)
	}
	return inserted, nil
}

// SaveTournament records a classified tournament.
func (s *Store) SaveTournament(ctx context.Context, t *domain.TournamentInfo) error {
	return s.matches.UpsertTournament(ctx, s.pool, t)
}

// RecomputeSurfaceStats rebuilds player_surface_stats after bulk imports.
func (s *Store) RecomputeSurfaceStats(ctx context.Context) error {
	return s.matches.RecomputeSurfaceStats(ctx, s.pool)
}

// Ratings

// Rankings returns the current-ranking cache.
func (s *Store) Rankings(ctx context.Context) (map[int64]int, error) {
	return s.players.Rankings(ctx, s.pool)
}

// Tours returns previously assigned tours.
func (s *Store) Tours(ctx context.Context) (map[int64]domain.Tour, error) {
	return s.players.Tours(ctx, s.pool)
}

// ApplyRatings publishes a recomputation: per-player updates inside one
// transaction so rank reassignment lands atomically.
func (s *Store) ApplyRatings(ctx context.Context, updates map[int64]rating.PlayerResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrIO("begin tx", err)
	}
	defer tx.Rollback(ctx)

	for id, u := range updates {
		if err := s.players.UpdateRating(ctx, tx, id, u.Elo, u.Tour, u.Rank); err != nil {
			return domain.ErrIO("update rating", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrIO("commit tx", err)
	}
	return nil
}

// Upcoming markets

// UpsertUpcomingMatch writes a market snapshot, preserving player order.
func (s *Store) UpsertUpcomingMatch(ctx context.Context, u *domain.UpcomingMatch) error {
	return s.upcoming.Upsert(ctx, s.pool, u)
}

// ListOpenMarkets returns current non-closed markets.
func (s *Store) ListOpenMarkets(ctx context.Context) ([]domain.UpcomingMatch, error) {
	return s.upcoming.ListOpen(ctx, s.pool, time.Now().Add(-2*time.Hour))
}

// AnnotateSharpOdds attaches reference odds to a captured market.
func (s *Store) AnnotateSharpOdds(ctx context.Context, marketID string, p1Odds, p2Odds float64) error {
	return s.upcoming.AnnotateSharpOdds(ctx, s.pool, marketID, p1Odds, p2Odds)
}

// PruneStaleMarkets drops markets that started more than a day ago.
func (s *Store) PruneStaleMarkets(ctx context.Context) (int64, error) {
	return s.upcoming.DeleteStale(ctx, s.pool, time.Now().AddDate(0, 0, -1))
}

// Bets

// AddBet validates, duplicate-checks, and inserts a bet with a fresh id.
func (s *Store) AddBet(ctx context.Context, b *domain.Bet) error {
	if err := domain.ValidateBet(b); err != nil {
		return err
	}
	dup, err := s.bets.Duplicate(ctx, s.pool, b.Description, b.Selection, b.MatchDate, b.Tournament)
	if err != nil {
		return err
	}
	if dup {
		return domain.ErrReferential(fmt.Sprintf("bet on %q / %q already recorded", b.Description, b.Selection))
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.PlacedAt.IsZero() {
		b.PlacedAt = time.Now()
	}
	if b.Model == "" {
		b.Model = domain.ModelNone
	}
	return s.bets.Insert(ctx, s.pool, b)
}

// GetBet returns a bet by id, nil when absent.
func (s *Store) GetBet(ctx context.Context, id uuid.UUID) (*domain.Bet, error) {
	return s.bets.FindByID(ctx, s.pool, id)
}

// CheckDuplicateBet reports whether an equivalent bet already exists.
func (s *Store) CheckDuplicateBet(ctx context.Context, description, selection string, matchDate time.Time, tournament string) (bool, error) {
	return s.bets.Duplicate(ctx, s.pool, description, selection, matchDate, tournament)
}

// ListPendingBets returns unsettled bets, earliest match first.
func (s *Store) ListPendingBets(ctx context.Context) ([]domain.Bet, error) {
	return s.bets.ListPending(ctx, s.pool)
}

// ListBets returns recent bets, newest placement first.
func (s *Store) ListBets(ctx context.Context, limit int) ([]domain.Bet, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.bets.List(ctx, s.pool, limit)
}

// SettleBet records the result exactly once.
func (s *Store) SettleBet(ctx context.Context, id uuid.UUID, result domain.BetResult, profitLoss float64, settledAt time.Time) (bool, error) {
	return s.bets.Settle(ctx, s.pool, id, result, profitLoss, settledAt)
}

// BackfillModelTags re-derives model tags for historical bets missing one.
func (s *Store) BackfillModelTags(ctx context.Context) (int64, error) {
	return s.bets.BackfillModelTags(ctx, s.pool)
}

// Metadata and validation log

// LastRefresh reads a last_refresh_<kind> watermark; zero time when unset.
func (s *Store) LastRefresh(ctx context.Context, kind string) (time.Time, error) {
	value, ok, err := s.metadata.Get(ctx, s.pool, "last_refresh_"+kind)
	if err != nil || !ok {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, domain.ErrInvalidData(fmt.Sprintf("malformed refresh watermark %q", value))
	}
	return t, nil
}

// StampRefresh writes a last_refresh_<kind> watermark.
func (s *Store) StampRefresh(ctx context.Context, kind string, at time.Time) error {
	return s.metadata.Set(ctx, s.pool, "last_refresh_"+kind, at.Format(time.RFC3339))
}

// AutoMode reads the shared auto-placement flag. The fallback applies until
// the flag is first written.
func (s *Store) AutoMode(ctx context.Context, fallback bool) (bool, error) {
	value, ok, err := s.metadata.Get(ctx, s.pool, "auto_mode")
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	return value == "true", nil
}

// SetAutoMode writes the shared auto-placement flag.
func (s *Store) SetAutoMode(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return s.metadata.Set(ctx, s.pool, "auto_mode", value)
}

// RecentValidationEntries returns the newest validation log rows.
func (s *Store) RecentValidationEntries(ctx context.Context, limit int) ([]ValidationEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.metadata.RecentValidation(ctx, s.pool, limit)
}
