package repository

import (
	"context"
	"fmt"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/resolver"
	"github.com/jackc/pgx/v5"
)

type playerRepo struct{}

// NewPlayerRepository returns a pgx-backed PlayerRepository.
func NewPlayerRepository() PlayerRepository {
	return &playerRepo{}
}

const playerColumns = `id, name, country, hand, height_cm, date_of_birth,
	current_ranking, peak_ranking, tour, performance_elo, performance_rank,
	injury_penalty, created_at, updated_at`

func (r *playerRepo) FindByID(ctx context.Context, db DBTX, id int64) (*domain.Player, error) {
	row := db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	return scanPlayer(row)
}

func (r *playerRepo) CanonicalID(ctx context.Context, db DBTX, id int64) (int64, error) {
	var canonical int64
	err := db.QueryRow(ctx,
		`SELECT canonical_id FROM player_aliases WHERE alias_id = $1`, id).Scan(&canonical)
	if err == pgx.ErrNoRows {
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("canonical id: %w", err)
	}
	return canonical, nil
}

func (r *playerRepo) Search(ctx context.Context, db DBTX, query string, limit int) ([]domain.Player, error) {
	folded := resolver.Fold(query)
	rows, err := db.Query(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE name_key LIKE '%' || $1 || '%'
		ORDER BY current_ranking NULLS LAST, name
		LIMIT $2`, folded, limit)
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	defer rows.Close()
	return scanPlayers(rows)
}

func (r *playerRepo) Create(ctx context.Context, db DBTX, p *domain.Player) error {
	_, err := db.Exec(ctx, `
		INSERT INTO players (id, name, country, hand, height_cm, date_of_birth,
			current_ranking, peak_ranking, tour, performance_elo, performance_rank,
			injury_penalty, name_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())`,
		p.ID, p.Name, p.Country, string(p.Hand), p.HeightCM, p.DateOfBirth,
		p.CurrentRanking, p.PeakRanking, string(p.Tour), p.PerformanceElo,
		p.PerformanceRank, p.InjuryPenalty, resolver.Fold(p.Name))
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (r *playerRepo) CreatePlaceholder(ctx context.Context, db DBTX, name string, tour domain.Tour) (*domain.Player, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO players (id, name, hand, tour, performance_elo, name_key, created_at, updated_at)
		VALUES (-nextval('placeholder_seq'), $1, 'U', $2, $3, $4, now(), now())
		RETURNING `+playerColumns,
		name, string(tour), 1200.0, resolver.Fold(name))
	p, err := scanPlayer(row)
	if err != nil {
		return nil, fmt.Errorf("insert placeholder: %w", err)
	}
	return p, nil
}

func (r *playerRepo) AliasesOf(ctx context.Context, db DBTX, id int64) ([]int64, error) {
	rows, err := db.Query(ctx,
		`SELECT alias_id FROM player_aliases WHERE canonical_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("aliases of %d: %w", id, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var aliasID int64
		if err := rows.Scan(&aliasID); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		ids = append(ids, aliasID)
	}
	return ids, rows.Err()
}

func (r *playerRepo) AddAlias(ctx context.Context, db DBTX, aliasID, canonicalID int64, source string) error {
	// Resolve transitively so stored aliases stay depth-1.
	terminal, err := r.CanonicalID(ctx, db, canonicalID)
	if err != nil {
		return err
	}
	if terminal == aliasID {
		return domain.ErrReferential(fmt.Sprintf("alias %d -> %d would form a cycle", aliasID, canonicalID))
	}

	// The alias target must not itself be aliased away afterwards; reject if
	// the alias id currently has dependents.
	dependents, err := r.AliasesOf(ctx, db, aliasID)
	if err != nil {
		return err
	}
	if len(dependents) > 0 {
		return domain.ErrReferential(fmt.Sprintf("player %d is a canonical target of %d aliases; re-point them first", aliasID, len(dependents)))
	}

	tag, err := db.Exec(ctx, `
		INSERT INTO player_aliases (alias_id, canonical_id, source, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (alias_id) DO NOTHING`, aliasID, terminal, source)
	if err != nil {
		return fmt.Errorf("insert alias: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Idempotent when re-inserting the same mapping; conflicting
		// mappings are referential violations.
		var existing int64
		if err := db.QueryRow(ctx,
			`SELECT canonical_id FROM player_aliases WHERE alias_id = $1`, aliasID).Scan(&existing); err != nil {
			return fmt.Errorf("check existing alias: %w", err)
		}
		if existing != terminal {
			return domain.ErrReferential(fmt.Sprintf("alias %d already maps to %d", aliasID, existing))
		}
	}
	return nil
}

func (r *playerRepo) UpdateRating(ctx context.Context, db DBTX, id int64, elo float64, tour domain.Tour, rank int) error {
	_, err := db.Exec(ctx, `
		UPDATE players SET performance_elo = $2, tour = $3, performance_rank = $4, updated_at = now()
		WHERE id = $1`, id, elo, string(tour), rank)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	return nil
}

func (r *playerRepo) FindIDsByKey(ctx context.Context, db DBTX, key string, hint domain.Tour) ([]int64, error) {
	// Union over canonical names, aliased names, and user mappings, always
	// folding aliases to their canonical id.
	query := `
		SELECT DISTINCT canonical FROM (
			SELECT p.id AS canonical, p.tour AS tour FROM players p
			WHERE p.name_key = $1 AND p.id NOT IN (SELECT alias_id FROM player_aliases)
			UNION ALL
			SELECT a.canonical_id, cp.tour FROM players p
			JOIN player_aliases a ON a.alias_id = p.id
			JOIN players cp ON cp.id = a.canonical_id
			WHERE p.name_key = $1
			UNION ALL
			SELECT m.player_id, mp.tour FROM name_mappings m
			JOIN players mp ON mp.id = m.player_id
			WHERE m.name_key = $1
		) hits
		WHERE $2 = '' OR tour = '' OR tour = $2`
	rows, err := db.Query(ctx, query, key, string(hint))
	if err != nil {
		return nil, fmt.Errorf("find ids by key: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *playerRepo) Rankings(ctx context.Context, db DBTX) (map[int64]int, error) {
	rows, err := db.Query(ctx,
		`SELECT id, current_ranking FROM players WHERE current_ranking IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("load rankings: %w", err)
	}
	defer rows.Close()

	out := map[int64]int{}
	for rows.Next() {
		var id int64
		var rank int
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		out[id] = rank
	}
	return out, rows.Err()
}

func (r *playerRepo) Tours(ctx context.Context, db DBTX) (map[int64]domain.Tour, error) {
	rows, err := db.Query(ctx, `SELECT id, tour FROM players WHERE tour <> ''`)
	if err != nil {
		return nil, fmt.Errorf("load tours: %w", err)
	}
	defer rows.Close()

	out := map[int64]domain.Tour{}
	for rows.Next() {
		var id int64
		var tour string
		if err := rows.Scan(&id, &tour); err != nil {
			return nil, fmt.Errorf("scan tour: %w", err)
		}
		out[id] = domain.Tour(tour)
	}
	return out, rows.Err()
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	var hand, tour string
	err := row.Scan(&p.ID, &p.Name, &p.Country, &hand, &p.HeightCM, &p.DateOfBirth,
		&p.CurrentRanking, &p.PeakRanking, &tour, &p.PerformanceElo,
		&p.PerformanceRank, &p.InjuryPenalty, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	p.Hand = domain.Hand(hand)
	p.Tour = domain.Tour(tour)
	return &p, nil
}

func scanPlayers(rows pgx.Rows) ([]domain.Player, error) {
	var out []domain.Player
	for rows.Next() {
		var p domain.Player
		var hand, tour string
		if err := rows.Scan(&p.ID, &p.Name, &p.Country, &hand, &p.HeightCM, &p.DateOfBirth,
			&p.CurrentRanking, &p.PeakRanking, &tour, &p.PerformanceElo,
			&p.PerformanceRank, &p.InjuryPenalty, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Hand = domain.Hand(hand)
		p.Tour = domain.Tour(tour)
		out = append(out, p)
	}
	return out, rows.Err()
}
