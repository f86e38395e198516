package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dbx "github.com/obotesoftech/prisonreturns/internal/db"
	"github.com/obotesoftech/prisonreturns/types"
)

// GuardRepository keeps the duplicate-submission state per client scope.
type GuardRepository struct {
	db *sql.DB
}

func NewGuardRepository(db *sql.DB) *GuardRepository {
	return &GuardRepository{db: db}
}

// Update locks the scope's state, passes it to fn and stores the result.
// A scope without state is passed as the zero GuardState.
func (r *GuardRepository) Update(ctx context.Context, scope string, fn func(types.GuardState) types.GuardState) (types.GuardState, error) {
	var next types.GuardState
	err := dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		const selectQuery = `
			SELECT frequency, return_type, station, data, file_name, attempt_count
			FROM submission_guard
			WHERE scope = $1
			FOR UPDATE`
		var current types.GuardState
		var last types.Fingerprint
		err := tx.QueryRowContext(ctx, selectQuery, scope).Scan(
			&last.Frequency,
			&last.ReturnType,
			&last.Station,
			&last.Data,
			&last.FileName,
			&current.Attempts,
		)
		switch {
		case err == nil:
			current.Last = &last
		case errors.Is(err, sql.ErrNoRows):
		default:
			return err
		}

		next = fn(current)
		if next.Last == nil {
			_, err := tx.ExecContext(ctx, `DELETE FROM submission_guard WHERE scope = $1`, scope)
			return err
		}

		const upsertQuery = `
			INSERT INTO submission_guard (scope, frequency, return_type, station, data, file_name, attempt_count, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (scope) DO UPDATE
			SET frequency = EXCLUDED.frequency,
				return_type = EXCLUDED.return_type,
				station = EXCLUDED.station,
				data = EXCLUDED.data,
				file_name = EXCLUDED.file_name,
				attempt_count = EXCLUDED.attempt_count,
				updated_at = EXCLUDED.updated_at`
		_, err = tx.ExecContext(
			ctx,
			upsertQuery,
			scope,
			next.Last.Frequency,
			next.Last.ReturnType,
			next.Last.Station,
			next.Last.Data,
			next.Last.FileName,
			next.Attempts,
			time.Now(),
		)
		return err
	})
	if err != nil {
		return types.GuardState{}, err
	}
	return next, nil
}
