package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermarkAdvance(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewWatermarkRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seen_count")).
		WithArgs("desk-1").
		WillReturnRows(sqlmock.NewRows([]string{"seen_count"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO return_watermarks")).
		WithArgs("desk-1", 6, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	previous, found, err := repo.Advance(context.Background(), "desk-1", 6)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, previous)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWatermarkAdvanceFirstCheck(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewWatermarkRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seen_count")).
		WillReturnRows(sqlmock.NewRows([]string{"seen_count"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO return_watermarks")).
		WithArgs("desk-2", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	previous, found, err := repo.Advance(context.Background(), "desk-2", 3)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, previous)
}
