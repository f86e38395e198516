package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dbx "github.com/obotesoftech/prisonreturns/internal/db"
)

// WatermarkRepository records how many returns a client scope has already
// been alerted about.
type WatermarkRepository struct {
	db *sql.DB
}

func NewWatermarkRepository(db *sql.DB) *WatermarkRepository {
	return &WatermarkRepository{db: db}
}

// Advance stores count as the scope's watermark and returns the previous
// value. found is false when the scope had no watermark.
func (r *WatermarkRepository) Advance(ctx context.Context, scope string, count int) (previous int, found bool, err error) {
	err = dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		const selectQuery = `SELECT seen_count FROM return_watermarks WHERE scope = $1 FOR UPDATE`
		switch err := tx.QueryRowContext(ctx, selectQuery, scope).Scan(&previous); {
		case err == nil:
			found = true
		case errors.Is(err, sql.ErrNoRows):
		default:
			return err
		}

		const upsertQuery = `
			INSERT INTO return_watermarks (scope, seen_count, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (scope) DO UPDATE
			SET seen_count = EXCLUDED.seen_count,
				updated_at = EXCLUDED.updated_at`
		_, err := tx.ExecContext(ctx, upsertQuery, scope, count, time.Now())
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return previous, found, nil
}
