package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/obotesoftech/prisonreturns/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumns = []string{"identifier", "password_hash", "role", "station", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

func TestAccountGet(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WithArgs("kigo@prison.go.ug").
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("kigo@prison.go.ug", "hash", "clerk", "Kigo (M)", now, now))

	account, err := repo.Get(context.Background(), "kigo@prison.go.ug")
	require.NoError(t, err)
	assert.Equal(t, types.RoleClerk, account.Role)
	assert.Equal(t, "Kigo (M)", account.Station)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountGetNotFound(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WithArgs("nobody@prison.go.ug").
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := repo.Get(context.Background(), "nobody@prison.go.ug")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAccountListNullStation(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at, identifier")).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("admin@prison.go.ug", "h1", "admin", nil, now, now).
			AddRow("kigo@prison.go.ug", "h2", "clerk", "Kigo (M)", now, now))

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Empty(t, accounts[0].Station)
	assert.Equal(t, "Kigo (M)", accounts[1].Station)
}

func TestAccountCreateConflict(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), types.Account{
		Identifier:   "admin@prison.go.ug",
		PasswordHash: "hash",
		Role:         types.RoleAdmin,
	})
	require.ErrorIs(t, err, ErrConflict)
}

func TestAccountCreate(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs("luzira@prison.go.ug", "hash", types.RoleOfficer, "Luzira (U)", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	account, err := repo.Create(context.Background(), types.Account{
		Identifier:   "luzira@prison.go.ug",
		PasswordHash: "hash",
		Role:         types.RoleOfficer,
		Station:      "Luzira (U)",
	})
	require.NoError(t, err)
	assert.False(t, account.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountUpdateRenameRewritesReferences(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("new@prison.go.ug").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs("new@prison.go.ug", sqlmock.AnyArg(), "old@prison.go.ug").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE returns SET submitted_by")).
		WithArgs("new@prison.go.ug", "old@prison.go.ug").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET identifier")).
		WithArgs("new@prison.go.ug", "old@prison.go.ug").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET password_hash")).
		WithArgs("newhash", sqlmock.AnyArg(), "new@prison.go.ug").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WithArgs("new@prison.go.ug").
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("new@prison.go.ug", "newhash", "clerk", "Kigo (M)", now, now))
	mock.ExpectCommit()

	account, err := repo.Update(context.Background(), "old@prison.go.ug", AccountChange{
		NewIdentifier: "new@prison.go.ug",
		PasswordHash:  "newhash",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@prison.go.ug", account.Identifier)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountUpdateRenameConflictRollsBack(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("taken@prison.go.ug").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "old@prison.go.ug", AccountChange{NewIdentifier: "taken@prison.go.ug"})
	require.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountDeleteLastAdmin(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM accounts")).
		WithArgs("admin@prison.go.ug").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1)")).
		WithArgs(types.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "admin@prison.go.ug")
	require.ErrorIs(t, err, ErrLastAdmin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountDeleteOneOfTwoAdmins(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM accounts")).
		WithArgs("second@prison.go.ug").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).
		WithArgs("second@prison.go.ug").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts")).
		WithArgs("second@prison.go.ug").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "second@prison.go.ug"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountDeleteUnknown(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"role"}))
	mock.ExpectRollback()

	require.ErrorIs(t, repo.Delete(context.Background(), "ghost@prison.go.ug"), ErrNotFound)
}

func TestAccountDeleteLocksBeforeCounting(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAccountRepository(conn)
	mock.MatchExpectationsInOrder(true)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT role FROM accounts WHERE identifier = \$1 FOR UPDATE`).
		WithArgs("second@prison.go.ug").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))
	mock.ExpectQuery(`SELECT COUNT\(1\)\s+FROM \(SELECT identifier FROM accounts WHERE role = \$1 FOR UPDATE\) AS admins`).
		WithArgs(types.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).
		WithArgs("second@prison.go.ug").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts")).
		WithArgs("second@prison.go.ug").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "second@prison.go.ug"))
	require.NoError(t, mock.ExpectationsWereMet())
}
