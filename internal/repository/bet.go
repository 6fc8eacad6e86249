package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type betRepo struct{}

// NewBetRepository returns a pgx-backed BetRepository.
func NewBetRepository() BetRepository {
	return &betRepo{}
}

const betColumns = `id, match_date, tournament, match_description, selection,
	odds, stake, our_probability, implied_probability, ev_at_placement,
	model, result, profit_loss, notes, placed_at, settled_at`

func (r *betRepo) Insert(ctx context.Context, db DBTX, b *domain.Bet) error {
	var result *string
	if b.Result != nil {
		s := string(*b.Result)
		result = &s
	}
	_, err := db.Exec(ctx, `
		INSERT INTO bets (`+betColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		b.ID, b.MatchDate, b.Tournament, b.Description, b.Selection,
		b.Odds, b.Stake, b.OurProbability, b.ImpliedProbability, b.EVAtPlacement,
		string(b.Model), result, b.ProfitLoss, b.Notes, b.PlacedAt, b.SettledAt)
	if err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}
	return nil
}

func (r *betRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Bet, error) {
	row := db.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id)
	return scanBet(row)
}

func (r *betRepo) Duplicate(ctx context.Context, db DBTX, description, selection string, matchDate time.Time, tournament string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bets
			WHERE match_description = $1 AND selection = $2
			  AND match_date::date = $3::date AND tournament = $4
		)`, description, selection, matchDate, tournament).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate bet: %w", err)
	}
	return exists, nil
}

func (r *betRepo) ListPending(ctx context.Context, db DBTX) ([]domain.Bet, error) {
	rows, err := db.Query(ctx, `
		SELECT `+betColumns+` FROM bets
		WHERE result IS NULL
		ORDER BY match_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending bets: %w", err)
	}
	defer rows.Close()
	return scanBets(rows)
}

func (r *betRepo) List(ctx context.Context, db DBTX, limit int) ([]domain.Bet, error) {
	rows, err := db.Query(ctx, `
		SELECT `+betColumns+` FROM bets
		ORDER BY placed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()
	return scanBets(rows)
}

// Settle writes the outcome guarded on result IS NULL, so a second run
// affects zero rows and reports false.
func (r *betRepo) Settle(ctx context.Context, db DBTX, id uuid.UUID, result domain.BetResult, profitLoss float64, settledAt time.Time) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE bets SET result = $2, profit_loss = $3, settled_at = $4
		WHERE id = $1 AND result IS NULL`,
		id, string(result), profitLoss, settledAt)
	if err != nil {
		return false, fmt.Errorf("settle bet: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *betRepo) BackfillModelTags(ctx context.Context, db DBTX) (int64, error) {
	// Gates A and B re-derive cleanly from stored numbers. What remains with
	// a double-digit edge at long odds is tagged ModelC; the live rank-gap
	// check cannot be reconstructed after the fact.
	tag, err := db.Exec(ctx, `
		UPDATE bets SET model = CASE
			WHEN our_probability >= 0.55 AND our_probability - implied_probability >= 0.08
			     AND odds <= 3.0 THEN 'ModelA'
			WHEN our_probability >= 0.45 AND our_probability < 0.55
			     AND our_probability - implied_probability >= 0.10
			     AND odds BETWEEN 2.0 AND 4.0 THEN 'ModelB'
			WHEN our_probability - implied_probability >= 0.12 AND odds >= 3.0 THEN 'ModelC'
			ELSE 'None'
		END
		WHERE model = '' OR model IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("backfill model tags: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanBet(row pgx.Row) (*domain.Bet, error) {
	var b domain.Bet
	var model string
	var result *string
	err := row.Scan(&b.ID, &b.MatchDate, &b.Tournament, &b.Description, &b.Selection,
		&b.Odds, &b.Stake, &b.OurProbability, &b.ImpliedProbability, &b.EVAtPlacement,
		&model, &result, &b.ProfitLoss, &b.Notes, &b.PlacedAt, &b.SettledAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan bet: %w", err)
	}
	b.Model = domain.Model(model)
	if result != nil {
		r := domain.BetResult(*result)
		b.Result = &r
	}
	return &b, nil
}

func scanBets(rows pgx.Rows) ([]domain.Bet, error) {
	var out []domain.Bet
	for rows.Next() {
		var b domain.Bet
		var model string
		var result *string
		if err := rows.Scan(&b.ID, &b.MatchDate, &b.Tournament, &b.Description, &b.Selection,
			&b.Odds, &b.Stake, &b.OurProbability, &b.ImpliedProbability, &b.EVAtPlacement,
			&model, &result, &b.ProfitLoss, &b.Notes, &b.PlacedAt, &b.SettledAt); err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		b.Model = domain.Model(model)
		if result != nil {
			res := domain.BetResult(*result)
			b.Result = &res
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
