package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/jackc/pgx/v5"
)

type matchRepo struct{}

// NewMatchRepository returns a pgx-backed MatchRepository.
func NewMatchRepository() MatchRepository {
	return &matchRepo{}
}

const matchColumns = `id, date, tournament, surface, round, winner_id, loser_id,
	winner_rank, loser_rank, score, minutes, best_of`

func (r *matchRepo) Insert(ctx context.Context, db DBTX, m *domain.Match) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO matches (id, date, tournament, surface, round, winner_id, loser_id,
			winner_rank, loser_rank, score, minutes, best_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`,
		m.ID, m.Date, m.Tournament, string(m.Surface), m.Round, m.WinnerID, m.LoserID,
		m.WinnerRank, m.LoserRank, m.Score, m.Minutes, m.BestOf)
	if err != nil {
		return false, fmt.Errorf("insert match: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *matchRepo) FindByID(ctx context.Context, db DBTX, id string) (*domain.Match, error) {
	row := db.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	m, err := scanMatch(row)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *matchRepo) ListForPlayer(ctx context.Context, db DBTX, playerIDs []int64, since time.Time, limit int) ([]domain.Match, error) {
	rows, err := db.Query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE (winner_id = ANY($1) OR loser_id = ANY($1)) AND date >= $2
		ORDER BY date DESC, id DESC
		LIMIT $3`, playerIDs, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list player matches: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

func (r *matchRepo) ListBetween(ctx context.Context, db DBTX, from, to time.Time) ([]domain.Match, error) {
	rows, err := db.Query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC, id ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list matches between: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

func (r *matchRepo) HeadToHead(ctx context.Context, db DBTX, p1IDs, p2IDs []int64) (int, int, error) {
	var p1Wins, p2Wins int
	err := db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE winner_id = ANY($1)),
			COUNT(*) FILTER (WHERE winner_id = ANY($2))
		FROM matches
		WHERE (winner_id = ANY($1) AND loser_id = ANY($2))
		   OR (winner_id = ANY($2) AND loser_id = ANY($1))`,
		p1IDs, p2IDs).Scan(&p1Wins, &p2Wins)
	if err != nil {
		return 0, 0, fmt.Errorf("head to head: %w", err)
	}
	return p1Wins, p2Wins, nil
}

func (r *matchRepo) UpsertTournament(ctx context.Context, db DBTX, t *domain.TournamentInfo) error {
	_, err := db.Exec(ctx, `
		INSERT INTO tournaments (name, surface, level, first_seen)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET surface = EXCLUDED.surface, level = EXCLUDED.level`,
		t.Name, string(t.Surface), string(t.Level), t.FirstSeen)
	if err != nil {
		return fmt.Errorf("upsert tournament: %w", err)
	}
	return nil
}

// RecomputeSurfaceStats rebuilds the per-player-per-surface aggregates in one
// statement. Called after bulk imports, not per match.
func (r *matchRepo) RecomputeSurfaceStats(ctx context.Context, db DBTX) error {
	_, err := db.Exec(ctx, `
		INSERT INTO player_surface_stats (player_id, surface, matches_played, wins, losses, win_rate)
		SELECT player_id, surface,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE won),
		       COUNT(*) FILTER (WHERE NOT won),
		       COUNT(*) FILTER (WHERE won)::float / COUNT(*)
		FROM (
			SELECT winner_id AS player_id, surface, true AS won FROM matches WHERE surface <> ''
			UNION ALL
			SELECT loser_id, surface, false FROM matches WHERE surface <> ''
		) results
		GROUP BY player_id, surface
		ON CONFLICT (player_id, surface) DO UPDATE SET
			matches_played = EXCLUDED.matches_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			win_rate = EXCLUDED.win_rate`)
	if err != nil {
		return fmt.Errorf("recompute surface stats: %w", err)
	}
	return nil
}

func (r *matchRepo) SurfaceStats(ctx context.Context, db DBTX, playerID int64, surface domain.Surface) (*domain.SurfaceStats, error) {
	var s domain.SurfaceStats
	var surf string
	err := db.QueryRow(ctx, `
		SELECT player_id, surface, matches_played, wins, losses, win_rate
		FROM player_surface_stats WHERE player_id = $1 AND surface = $2`,
		playerID, string(surface)).
		Scan(&s.PlayerID, &surf, &s.MatchesPlayed, &s.Wins, &s.Losses, &s.WinRate)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("surface stats: %w", err)
	}
	s.Surface = domain.Surface(surf)
	return &s, nil
}

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	var surface string
	err := row.Scan(&m.ID, &m.Date, &m.Tournament, &surface, &m.Round,
		&m.WinnerID, &m.LoserID, &m.WinnerRank, &m.LoserRank,
		&m.Score, &m.Minutes, &m.BestOf)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan match: %w", err)
	}
	m.Surface = domain.Surface(surface)
	return &m, nil
}

func scanMatches(rows pgx.Rows) ([]domain.Match, error) {
	var out []domain.Match
	for rows.Next() {
		var m domain.Match
		var surface string
		if err := rows.Scan(&m.ID, &m.Date, &m.Tournament, &surface, &m.Round,
			&m.WinnerID, &m.LoserID, &m.WinnerRank, &m.LoserRank,
			&m.Score, &m.Minutes, &m.BestOf); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Surface = domain.Surface(surface)
		out = append(out, m)
	}
	return out, rows.Err()
}
