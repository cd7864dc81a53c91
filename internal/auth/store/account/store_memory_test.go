package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"portcullis/internal/auth/models"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
)

type AccountStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *AccountStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func TestAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(AccountStoreSuite))
}

func newAccount(userID id.UserID, email string) *models.CredentialAccount {
	return &models.CredentialAccount{
		ID:           id.NewAccountID(),
		UserID:       userID,
		Provider:     models.ProviderCredentials,
		Email:        email,
		PasswordHash: "hash",
	}
}

func (s *AccountStoreSuite) TestCreate() {
	userID := id.NewUserID()
	s.Require().NoError(s.store.Create(s.ctx, newAccount(userID, "alice@example.com")))

	s.Run("rejects duplicate provider and email", func() {
		err := s.store.Create(s.ctx, newAccount(id.NewUserID(), "alice@example.com"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("rejects second credential account for the same user", func() {
		err := s.store.Create(s.ctx, newAccount(userID, "other@example.com"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("same email under another provider is allowed", func() {
		acct := newAccount(id.NewUserID(), "alice@example.com")
		acct.Provider = "github"
		s.Require().NoError(s.store.Create(s.ctx, acct))
	})
}

func (s *AccountStoreSuite) TestLookups() {
	userID := id.NewUserID()
	acct := newAccount(userID, "bob@example.com")
	s.Require().NoError(s.store.Create(s.ctx, acct))

	s.Run("finds by provider and email", func() {
		found, err := s.store.FindByEmail(s.ctx, models.ProviderCredentials, "bob@example.com")
		s.Require().NoError(err)
		s.Equal(acct.ID, found.ID)
	})

	s.Run("finds by user", func() {
		found, err := s.store.FindByUserID(s.ctx, models.ProviderCredentials, userID)
		s.Require().NoError(err)
		s.Equal(acct.ID, found.ID)
	})

	s.Run("unknown email is not found", func() {
		_, err := s.store.FindByEmail(s.ctx, models.ProviderCredentials, "nobody@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown user is not found", func() {
		_, err := s.store.FindByUserID(s.ctx, models.ProviderCredentials, id.NewUserID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AccountStoreSuite) TestUpdatePasswordHash() {
	acct := newAccount(id.NewUserID(), "carol@example.com")
	s.Require().NoError(s.store.Create(s.ctx, acct))
	now := time.Now()

	s.Require().NoError(s.store.UpdatePasswordHash(s.ctx, acct.ID, "new-hash", now))
	found, err := s.store.FindByEmail(s.ctx, models.ProviderCredentials, "carol@example.com")
	s.Require().NoError(err)
	s.Equal("new-hash", found.PasswordHash)
	s.Equal(now, found.UpdatedAt)

	err = s.store.UpdatePasswordHash(s.ctx, id.NewAccountID(), "x", now)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
