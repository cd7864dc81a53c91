//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"portcullis/internal/auth/models"
	"portcullis/internal/auth/store/account"
	"portcullis/internal/auth/store/session"
	"portcullis/internal/auth/store/user"
	"portcullis/internal/platform/postgres"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
	txcontext "portcullis/pkg/platform/tx"
	"portcullis/pkg/testutil/containers"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	users    *user.PostgresStore
	accounts *account.PostgresStore
	sessions *session.PostgresStore
	runner   *txcontext.PostgresRunner
}

func TestPostgresIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	db := containers.StartPostgres(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), db))
	s.users = user.NewPostgres(db)
	s.accounts = account.NewPostgres(db)
	s.sessions = session.NewPostgres(db)
	s.runner = txcontext.NewPostgresRunner(db, 5*time.Second)
}

func (s *PostgresIntegrationSuite) TestUniqueEmailIsConflict() {
	ctx := context.Background()
	now := time.Now().UTC()
	first := &models.User{ID: id.NewUserID(), Email: "dup@example.com", CreatedAt: now, UpdatedAt: now}
	second := &models.User{ID: id.NewUserID(), Email: "dup@example.com", CreatedAt: now, UpdatedAt: now}

	s.Require().NoError(s.users.Create(ctx, first))
	s.Require().ErrorIs(s.users.Create(ctx, second), sentinel.ErrConflict)
}

func (s *PostgresIntegrationSuite) TestRollbackDiscardsUser() {
	ctx := context.Background()
	now := time.Now().UTC()
	u := &models.User{ID: id.NewUserID(), Email: "rollback@example.com", CreatedAt: now, UpdatedAt: now}

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		return s.accounts.Create(ctx, &models.CredentialAccount{
			ID:       id.NewAccountID(),
			UserID:   id.NewUserID(),
			Provider: models.ProviderCredentials,
			Email:    u.Email,
		})
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	exists, err := s.users.ExistsByEmail(ctx, u.Email)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresIntegrationSuite) TestSessionSweep() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &models.User{ID: id.NewUserID(), Email: "sweep@example.com", CreatedAt: now, UpdatedAt: now}
	s.Require().NoError(s.users.Create(ctx, u))

	for i, offset := range []time.Duration{-time.Hour, time.Hour} {
		s.Require().NoError(s.sessions.Create(ctx, &models.Session{
			ID:        id.NewSessionID(),
			UserID:    u.ID,
			Token:     []string{"expired-token", "live-token"}[i],
			ExpiresAt: now.Add(offset),
			CreatedAt: now,
			UpdatedAt: now,
		}))
	}

	n, err := s.sessions.DeleteExpired(ctx, now)
	s.Require().NoError(err)
	s.Equal(1, n)

	_, err = s.sessions.FindByToken(ctx, "live-token")
	s.Require().NoError(err)
}
