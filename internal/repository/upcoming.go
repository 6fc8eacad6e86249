package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/jackc/pgx/v5"
)

type upcomingRepo struct{}

// NewUpcomingRepository returns a pgx-backed UpcomingRepository.
func NewUpcomingRepository() UpcomingRepository {
	return &upcomingRepo{}
}

const upcomingColumns = `market_id, tournament, start_time, surface,
	player1_id, player2_id, player1_name, player2_name,
	player1_odds, player2_odds, total_matched, total_available,
	sharp_p1_odds, sharp_p2_odds, status, captured_at`

// Upsert writes a market snapshot keyed by market ID. On re-capture the
// stored player order is kept: the fresh capture is aligned to it by runner
// name, and a side stored with id 0 adopts the id once the name resolves.
func (r *upcomingRepo) Upsert(ctx context.Context, db DBTX, u *domain.UpcomingMatch) error {
	stored, err := r.findByMarketID(ctx, db, u.MarketID)
	if err != nil {
		return err
	}
	if stored == nil {
		_, err := db.Exec(ctx, `
			INSERT INTO upcoming_matches (`+upcomingColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (market_id) DO NOTHING`,
			u.MarketID, u.Tournament, u.StartTime, string(u.Surface),
			u.Player1ID, u.Player2ID, u.Player1Name, u.Player2Name,
			u.Player1Odds, u.Player2Odds, u.TotalMatched, u.TotalAvailable,
			u.SharpP1Odds, u.SharpP2Odds, string(u.Status), u.CapturedAt)
		if err != nil {
			return fmt.Errorf("insert upcoming match: %w", err)
		}
		return nil
	}

	merged := reconcileMarket(stored, u)
	_, err = db.Exec(ctx, `
		UPDATE upcoming_matches SET
			start_time      = $2,
			player1_id      = $3,
			player2_id      = $4,
			player1_odds    = $5,
			player2_odds    = $6,
			total_matched   = $7,
			total_available = $8,
			status          = $9,
			captured_at     = $10
		WHERE market_id = $1`,
		merged.MarketID, merged.StartTime,
		merged.Player1ID, merged.Player2ID,
		merged.Player1Odds, merged.Player2Odds,
		merged.TotalMatched, merged.TotalAvailable,
		string(merged.Status), merged.CapturedAt)
	if err != nil {
		return fmt.Errorf("update upcoming match: %w", err)
	}
	return nil
}

// reconcileMarket merges a fresh capture into the stored snapshot. The stored
// player order never moves; odds and ids follow the runner names, so a capture
// delivering the sides reversed cannot cross-assign prices. A side stored with
// id 0 means the name had not resolved yet; the fresh id fills it in.
func reconcileMarket(stored, fresh *domain.UpcomingMatch) domain.UpcomingMatch {
	aligned := *fresh
	if stored.Player1Name == fresh.Player2Name && stored.Player2Name == fresh.Player1Name {
		aligned.Player1ID, aligned.Player2ID = fresh.Player2ID, fresh.Player1ID
		aligned.Player1Name, aligned.Player2Name = fresh.Player2Name, fresh.Player1Name
		aligned.Player1Odds, aligned.Player2Odds = fresh.Player2Odds, fresh.Player1Odds
	}

	out := *stored
	out.StartTime = aligned.StartTime
	if out.Player1ID == 0 {
		out.Player1ID = aligned.Player1ID
	}
	if out.Player2ID == 0 {
		out.Player2ID = aligned.Player2ID
	}
	out.Player1Odds = aligned.Player1Odds
	out.Player2Odds = aligned.Player2Odds
	out.TotalMatched = aligned.TotalMatched
	out.TotalAvailable = aligned.TotalAvailable
	out.Status = aligned.Status
	out.CapturedAt = aligned.CapturedAt
	return out
}

func (r *upcomingRepo) findByMarketID(ctx context.Context, db DBTX, marketID string) (*domain.UpcomingMatch, error) {
	var u domain.UpcomingMatch
	var surface, status string
	err := db.QueryRow(ctx, `
		SELECT `+upcomingColumns+` FROM upcoming_matches WHERE market_id = $1`,
		marketID).Scan(&u.MarketID, &u.Tournament, &u.StartTime, &surface,
		&u.Player1ID, &u.Player2ID, &u.Player1Name, &u.Player2Name,
		&u.Player1Odds, &u.Player2Odds, &u.TotalMatched, &u.TotalAvailable,
		&u.SharpP1Odds, &u.SharpP2Odds, &status, &u.CapturedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find upcoming match: %w", err)
	}
	u.Surface = domain.Surface(surface)
	u.Status = domain.MarketStatus(status)
	return &u, nil
}

func (r *upcomingRepo) ListOpen(ctx context.Context, db DBTX, cutoff time.Time) ([]domain.UpcomingMatch, error) {
	rows, err := db.Query(ctx, `
		SELECT `+upcomingColumns+` FROM upcoming_matches
		WHERE status <> 'CLOSED' AND start_time >= $1
		ORDER BY start_time ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list open markets: %w", err)
	}
	defer rows.Close()
	return scanUpcoming(rows)
}

func (r *upcomingRepo) AnnotateSharpOdds(ctx context.Context, db DBTX, marketID string, p1Odds, p2Odds float64) error {
	_, err := db.Exec(ctx, `
		UPDATE upcoming_matches SET sharp_p1_odds = $2, sharp_p2_odds = $3
		WHERE market_id = $1`, marketID, p1Odds, p2Odds)
	if err != nil {
		return fmt.Errorf("annotate sharp odds: %w", err)
	}
	return nil
}

func (r *upcomingRepo) DeleteStale(ctx context.Context, db DBTX, cutoff time.Time) (int64, error) {
	tag, err := db.Exec(ctx,
		`DELETE FROM upcoming_matches WHERE start_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale markets: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanUpcoming(rows pgx.Rows) ([]domain.UpcomingMatch, error) {
	var out []domain.UpcomingMatch
	for rows.Next() {
		var u domain.UpcomingMatch
		var surface, status string
		if err := rows.Scan(&u.MarketID, &u.Tournament, &u.StartTime, &surface,
			&u.Player1ID, &u.Player2ID, &u.Player1Name, &u.Player2Name,
			&u.Player1Odds, &u.Player2Odds, &u.TotalMatched, &u.TotalAvailable,
			&u.SharpP1Odds, &u.SharpP2Odds, &status, &u.CapturedAt); err != nil {
			return nil, fmt.Errorf("scan upcoming match: %w", err)
		}
		u.Surface = domain.Surface(surface)
		u.Status = domain.MarketStatus(status)
		out = append(out, u)
	}
	return out, rows.Err()
}
