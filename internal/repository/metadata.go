package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type metadataRepo struct{}

// NewMetadataRepository returns a pgx-backed MetadataRepository.
func NewMetadataRepository() MetadataRepository {
	return &metadataRepo{}
}

func (r *metadataRepo) Get(ctx context.Context, db DBTX, key string) (string, bool, error) {
	var value string
	err := db.QueryRow(ctx, `SELECT value FROM metadata WHERE key = $1`, key).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, true, nil
}

func (r *metadataRepo) Set(ctx context.Context, db DBTX, key, value string) error {
	_, err := db.Exec(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

func (r *metadataRepo) AppendValidation(ctx context.Context, db DBTX, source, reason, payload string) error {
	_, err := db.Exec(ctx, `
		INSERT INTO validation_log (id, created_at, source, reason, payload)
		VALUES ($1, now(), $2, $3, $4)`,
		uuid.New(), source, reason, payload)
	if err != nil {
		return fmt.Errorf("append validation log: %w", err)
	}
	return nil
}

func (r *metadataRepo) RecentValidation(ctx context.Context, db DBTX, limit int) ([]ValidationEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT id, created_at, source, reason, payload
		FROM validation_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent validation log: %w", err)
	}
	defer rows.Close()

	var out []ValidationEntry
	for rows.Next() {
		var e ValidationEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Source, &e.Reason, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan validation entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
