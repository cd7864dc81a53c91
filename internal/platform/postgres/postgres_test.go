package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portcullis/internal/platform/postgres/migrations"
	"portcullis/pkg/platform/sentinel"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, sentinel.ErrNotFound},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, sentinel.ErrConflict},
		{"pq unique", &pq.Error{Code: "23505"}, sentinel.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, sentinel.ErrNotFound},
		{"too many connections", &pgconn.PgError{Code: "53300"}, sentinel.ErrUnavailable},
		{"pool wait deadline", context.DeadlineExceeded, sentinel.ErrUnavailable},
		{"conn done", sql.ErrConnDone, sentinel.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(tt.err, "op")
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown errors pass through", func(t *testing.T) {
		boom := errors.New("syntax error")
		err := Classify(boom, "find user")
		require.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, sentinel.ErrNotFound)
		assert.NotErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Classify(nil, "op"))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(errors.New("x")))
}

func TestMigrate_UsesEmbeddedMigrations(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	called := false
	orig := gooseUp
	gooseUp = func(ctx context.Context, got *sql.DB, dir string) error {
		called = true
		assert.Equal(t, db, got)
		assert.Equal(t, ".", dir)
		return nil
	}
	defer func() { gooseUp = orig }()

	require.NoError(t, Migrate(context.Background(), db))
	assert.True(t, called)

	entries, err := migrationsFS()
	require.NoError(t, err)
	assert.Contains(t, entries, "00001_identity.sql")
	assert.Contains(t, entries, "00002_authorization.sql")
}

func migrationsFS() ([]string, error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
