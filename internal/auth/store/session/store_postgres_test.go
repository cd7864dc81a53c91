package session

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
)

var sessionRowColumns = []string{"id", "user_id", "token", "expires_at", "ip_address", "user_agent", "created_at", "updated_at"}

func newPostgresWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresStore_FindByToken(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	sessionID, userID := id.NewSessionID(), id.NewUserID()
	now := time.Now()

	mock.ExpectQuery(`FROM sessions WHERE token = \$1`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow(sessionID.String(), userID.String(), "tok", now.Add(time.Hour), "10.0.0.1", "curl/8", now, now))

	got, err := store.FindByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, sessionID, got.ID)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "10.0.0.1", got.IPAddress)
}

func TestPostgresStore_FindByTokenMissing(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectQuery(`FROM sessions WHERE token`).WillReturnError(sql.ErrNoRows)

	_, err := store.FindByToken(context.Background(), "nope")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	now := time.Now()
	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := store.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPostgresStore_DeleteMissing(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), id.NewSessionID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStore_ListByUser(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	userID := id.NewUserID()
	now := time.Now()

	mock.ExpectQuery(`FROM sessions WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs(userID.String()).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow(id.NewSessionID().String(), userID.String(), "a", now, "", "", now, now).
			AddRow(id.NewSessionID().String(), userID.String(), "b", now, "", "", now, now))

	list, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
