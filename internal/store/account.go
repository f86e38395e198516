package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dbx "github.com/obotesoftech/prisonreturns/internal/db"
	"github.com/obotesoftech/prisonreturns/types"
)

// AccountChange describes an administrative edit. Empty fields are left
// untouched.
type AccountChange struct {
	NewIdentifier string
	PasswordHash  string
}

// AccountRepository handles persistence for accounts.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Get(ctx context.Context, identifier string) (types.Account, error) {
	return getAccount(ctx, r.db, identifier)
}

func (r *AccountRepository) List(ctx context.Context) ([]types.Account, error) {
	const query = `
		SELECT identifier, password_hash, role, station, created_at, updated_at
		FROM accounts
		ORDER BY created_at, identifier`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]types.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	const query = `
		INSERT INTO accounts (identifier, password_hash, role, station, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		account.Identifier,
		account.PasswordHash,
		account.Role,
		nullString(account.Station),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Account{}, ErrConflict
		}
		return types.Account{}, err
	}
	return account, nil
}

// Update applies change to the account in one transaction. A rename re-keys
// the account and rewrites the submitter of every return and the owner of
// every session.
func (r *AccountRepository) Update(ctx context.Context, identifier string, change AccountChange) (types.Account, error) {
	var updated types.Account
	err := dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		current := identifier
		now := time.Now()

		if change.NewIdentifier != "" && change.NewIdentifier != identifier {
			if err := renameAccount(ctx, tx, identifier, change.NewIdentifier, now); err != nil {
				return err
			}
			current = change.NewIdentifier
		}

		if change.PasswordHash != "" {
			const query = `
				UPDATE accounts
				SET password_hash = $1,
					updated_at = $2
				WHERE identifier = $3`
			result, err := tx.ExecContext(ctx, query, change.PasswordHash, now, current)
			if err != nil {
				return err
			}
			if err := expectAffected(result); err != nil {
				return err
			}
		}

		account, err := getAccount(ctx, tx, current)
		if err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return types.Account{}, err
	}
	return updated, nil
}

// Delete removes the account and its sessions. Deleting an admin fails with
// ErrLastAdmin when no other admin exists; the admin rows are locked while
// counting.
func (r *AccountRepository) Delete(ctx context.Context, identifier string) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		var role types.Role
		const roleQuery = `SELECT role FROM accounts WHERE identifier = $1 FOR UPDATE`
		if err := tx.QueryRowContext(ctx, roleQuery, identifier).Scan(&role); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if role == types.RoleAdmin {
			const countQuery = `
				SELECT COUNT(1)
				FROM (SELECT identifier FROM accounts WHERE role = $1 FOR UPDATE) AS admins`
			var admins int
			if err := tx.QueryRowContext(ctx, countQuery, types.RoleAdmin).Scan(&admins); err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE identifier = $1`, identifier); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE identifier = $1`, identifier)
		if err != nil {
			return err
		}
		return expectAffected(result)
	})
}

func renameAccount(ctx context.Context, tx dbx.DBTX, from, to string, now time.Time) error {
	var exists bool
	const existsQuery = `SELECT EXISTS (SELECT 1 FROM accounts WHERE identifier = $1)`
	if err := tx.QueryRowContext(ctx, existsQuery, to).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}

	const renameQuery = `
		UPDATE accounts
		SET identifier = $1,
			updated_at = $2
		WHERE identifier = $3`
	result, err := tx.ExecContext(ctx, renameQuery, to, now, from)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE returns SET submitted_by = $1 WHERE submitted_by = $2`, to, from); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET identifier = $1 WHERE identifier = $2`, to, from); err != nil {
		return err
	}
	return nil
}

func getAccount(ctx context.Context, q dbx.DBTX, identifier string) (types.Account, error) {
	const query = `
		SELECT identifier, password_hash, role, station, created_at, updated_at
		FROM accounts
		WHERE identifier = $1`
	account, err := scanAccount(q.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (types.Account, error) {
	var account types.Account
	var station sql.NullString
	err := row.Scan(
		&account.Identifier,
		&account.PasswordHash,
		&account.Role,
		&station,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return types.Account{}, err
	}
	account.Station = station.String
	return account, nil
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
