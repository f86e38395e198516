package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/obotesoftech/prisonreturns/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatAppendDefaultsKind(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewChatRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chat_messages")).
		WithArgs("077-212-3456", "0772123456", "hello", types.MessageKindMessage, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	msg, err := repo.Append(context.Background(), types.ChatMessage{
		Sender:     "077-212-3456",
		Identifier: "0772123456",
		Message:    "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), msg.ID)
	assert.Equal(t, types.MessageKindMessage, msg.Kind)
}

func TestChatListAfter(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewChatRepository(conn)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id > $1")).
		WithArgs(int64(10), defaultChatPage).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender", "identifier", "message", "kind", "created_at"}).
			AddRow(11, "kigo", "kigo@prison.go.ug", "one", "message", now).
			AddRow(12, "luzira", "luzira@prison.go.ug", "two", "message", now))

	msgs, err := repo.ListAfter(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(11), msgs[0].ID)
	assert.Equal(t, "two", msgs[1].Message)
}
