package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/obotesoftech/prisonreturns/types"
)

// SessionRepository handles persistence for login sessions.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session types.Session) (types.Session, error) {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	const query = `
		INSERT INTO sessions (id, identifier, role, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.Identifier,
		session.Role,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Session{}, ErrConflict
		}
		return types.Session{}, err
	}
	return session, nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (types.Session, error) {
	const query = `
		SELECT id, identifier, role, chat_identifier, chat_display_name, created_at, expires_at
		FROM sessions
		WHERE id = $1`
	var session types.Session
	var chatID, chatName sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.Identifier,
		&session.Role,
		&chatID,
		&chatName,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Session{}, ErrNotFound
		}
		return types.Session{}, err
	}
	if chatID.Valid {
		session.Chat = &types.ChatIdentity{Identifier: chatID.String, DisplayName: chatName.String}
	}
	return session, nil
}

func (r *SessionRepository) SetChatIdentity(ctx context.Context, id string, identity types.ChatIdentity) error {
	const query = `
		UPDATE sessions
		SET chat_identifier = $1,
			chat_display_name = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, identity.Identifier, identity.DisplayName, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// DeleteExpired removes sessions that expired before now and reports how
// many were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
