package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/obotesoftech/prisonreturns/types"
)

const defaultChatPage = 200

// ChatRepository handles persistence for the chat log.
type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Append(ctx context.Context, msg types.ChatMessage) (types.ChatMessage, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.Kind == "" {
		msg.Kind = types.MessageKindMessage
	}

	const query = `
		INSERT INTO chat_messages (sender, identifier, message, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		msg.Sender,
		msg.Identifier,
		msg.Message,
		msg.Kind,
		msg.Timestamp,
	).Scan(&msg.ID); err != nil {
		return types.ChatMessage{}, err
	}
	return msg, nil
}

// ListAfter returns up to limit messages with an id greater than afterID, in
// id order.
func (r *ChatRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]types.ChatMessage, error) {
	if afterID < 0 {
		afterID = 0
	}
	if limit < 1 {
		limit = defaultChatPage
	}

	const query = `
		SELECT id, sender, identifier, message, kind, created_at
		FROM chat_messages
		WHERE id > $1
		ORDER BY id
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.ChatMessage, 0)
	for rows.Next() {
		var msg types.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.Sender,
			&msg.Identifier,
			&msg.Message,
			&msg.Kind,
			&msg.Timestamp,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
