package verification

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
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
	v := &models.Verification{
		ID:         id.NewVerificationID(),
		UserID:     id.NewUserID(),
		Identifier: models.IdentifierPasswordReset,
		Value:      "secret",
		ExpiresAt:  now.Add(30 * time.Minute),
		CreatedAt:  now,
	}
	mock.ExpectExec(`INSERT INTO verifications`).
		WithArgs(v.ID.String(), v.UserID.String(), "password_reset", "secret", v.ExpiresAt, v.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Create(context.Background(), v))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByValue(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	vid, uid := id.NewVerificationID(), id.NewUserID()
	now := time.Now()

	mock.ExpectQuery(`FROM verifications WHERE value = \$1`).
		WithArgs("secret").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "identifier", "value", "expires_at", "created_at"}).
			AddRow(vid.String(), uid.String(), "email_verification", "secret", now, now))

	got, err := store.FindByValue(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, vid, got.ID)
	assert.Equal(t, models.IdentifierEmailVerification, got.Identifier)
}

func TestPostgresStore_FindByValueMissing(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectQuery(`FROM verifications`).WillReturnError(sql.ErrNoRows)

	_, err := store.FindByValue(context.Background(), "nope")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	now := time.Now()
	mock.ExpectExec(`DELETE FROM verifications WHERE expires_at < \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := store.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
