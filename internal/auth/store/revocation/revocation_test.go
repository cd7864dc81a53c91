package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portcullis/pkg/platform/sentinel"
)

func TestInMemoryTRL(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	trl := NewInMemoryTRL(clock)
	ctx := context.Background()

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		err := trl.RevokeToken(ctx, "jti-0", 0)
		require.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("revoked until ttl elapses", func(t *testing.T) {
		require.NoError(t, trl.RevokeToken(ctx, "jti-1", time.Minute))

		revoked, err := trl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		now = now.Add(time.Minute)
		revoked, err = trl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("unknown jti is not revoked", func(t *testing.T) {
		revoked, err := trl.IsRevoked(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("purge drops lapsed entries", func(t *testing.T) {
		require.NoError(t, trl.RevokeToken(ctx, "jti-2", time.Hour))
		n, err := trl.PurgeExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		revoked, err := trl.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}

func TestPostgresTRL(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	trl := NewPostgresTRL(db, WithPostgresClock(func() time.Time { return now }))
	ctx := context.Background()

	t.Run("upserts with expiry from clock", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO token_revocations .+ ON CONFLICT \(jti\) DO UPDATE`).
			WithArgs("jti-1", now.Add(time.Hour)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, trl.RevokeToken(ctx, "jti-1", time.Hour))
	})

	t.Run("entry past expiry is not revoked", func(t *testing.T) {
		mock.ExpectQuery(`SELECT expires_at FROM token_revocations`).
			WithArgs("jti-1").
			WillReturnRows(sqlmock.NewRows([]string{"expires_at"}).AddRow(now.Add(-time.Second)))
		revoked, err := trl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("missing row is not revoked", func(t *testing.T) {
		mock.ExpectQuery(`SELECT expires_at FROM token_revocations`).
			WithArgs("jti-2").
			WillReturnRows(sqlmock.NewRows([]string{"expires_at"}))
		revoked, err := trl.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("purge reports deleted rows", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM token_revocations WHERE expires_at <= \$1`).
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 4))
		n, err := trl.PurgeExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
