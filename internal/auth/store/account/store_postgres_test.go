package account

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
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

func TestPostgresStore_CreateConflict(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectExec(`INSERT INTO credential_accounts`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := store.Create(context.Background(), &models.CredentialAccount{ID: id.NewAccountID(), UserID: id.NewUserID()})
	require.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestPostgresStore_FindByEmail(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	accountID, userID := id.NewAccountID(), id.NewUserID()
	now := time.Now()

	mock.ExpectQuery(`FROM credential_accounts WHERE provider = \$1 AND email = \$2`).
		WithArgs(models.ProviderCredentials, "alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "provider", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(accountID.String(), userID.String(), models.ProviderCredentials, "alice@example.com", "$2a$hash", now, now))

	got, err := store.FindByEmail(context.Background(), models.ProviderCredentials, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, accountID, got.ID)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "$2a$hash", got.PasswordHash)
}

func TestPostgresStore_FindByUserIDMissing(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectQuery(`FROM credential_accounts WHERE provider = \$1 AND user_id = \$2`).
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindByUserID(context.Background(), models.ProviderCredentials, id.NewUserID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStore_UpdatePasswordHash(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	accountID := id.NewAccountID()
	mock.ExpectExec(`UPDATE credential_accounts SET password_hash = \$2`).
		WithArgs(accountID.String(), "new-hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdatePasswordHash(context.Background(), accountID, "new-hash", time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}
