package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portcullis/internal/auth/models"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
)

func newPostgresWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	now := time.Now()
	u := &models.User{ID: id.NewUserID(), Email: "alice@example.com", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+users`).
		WithArgs(u.ID.String(), u.Email, false, nil, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Create(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateDuplicateEmail(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	u := &models.User{ID: id.NewUserID(), Email: "alice@example.com"}

	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.Create(context.Background(), u)
	require.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestPostgresStore_FindByEmail(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	userID := id.NewUserID()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "email", "email_verified", "avatar_url", "created_at", "updated_at", "deleted_at"}).
		AddRow(userID.String(), "alice@example.com", true, nil, now, now, nil)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	got, err := store.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, userID, got.ID)
	assert.True(t, got.EmailVerified)
	assert.Nil(t, got.DeletedAt)
}

func TestPostgresStore_FindByIDNotFound(t *testing.T) {
	store, mock := newPostgresWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindByID(context.Background(), id.NewUserID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStore_ExistsByEmail(t *testing.T) {
	store, mock := newPostgresWithMock(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.ExistsByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostgresStore_MarkEmailVerified(t *testing.T) {
	t.Run("updates row", func(t *testing.T) {
		store, mock := newPostgresWithMock(t)
		userID := id.NewUserID()
		mock.ExpectExec(`UPDATE users SET email_verified = TRUE`).
			WithArgs(userID.String(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.MarkEmailVerified(context.Background(), userID, time.Now()))
	})

	t.Run("missing user", func(t *testing.T) {
		store, mock := newPostgresWithMock(t)
		mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.MarkEmailVerified(context.Background(), id.NewUserID(), time.Now())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("driver failure is wrapped", func(t *testing.T) {
		store, mock := newPostgresWithMock(t)
		mock.ExpectExec(`UPDATE users`).WillReturnError(errors.New("db down"))

		err := store.MarkEmailVerified(context.Background(), id.NewUserID(), time.Now())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})
}
