package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"portcullis/internal/auth/models"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
)

type VerificationStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func (s *VerificationStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func TestVerificationStoreSuite(t *testing.T) {
	suite.Run(t, new(VerificationStoreSuite))
}

func (s *VerificationStoreSuite) add(userID id.UserID, identifier models.VerificationIdentifier, value string, expiresAt time.Time) *models.Verification {
	v := &models.Verification{
		ID:         id.NewVerificationID(),
		UserID:     userID,
		Identifier: identifier,
		Value:      value,
		ExpiresAt:  expiresAt,
		CreatedAt:  s.now,
	}
	s.Require().NoError(s.store.Create(s.ctx, v))
	return v
}

func (s *VerificationStoreSuite) TestFindAndDelete() {
	v := s.add(id.NewUserID(), models.IdentifierEmailVerification, "secret", s.now.Add(time.Hour))

	s.Run("finds by value", func() {
		found, err := s.store.FindByValue(s.ctx, "secret")
		s.Require().NoError(err)
		s.Equal(v.ID, found.ID)
	})

	s.Run("rejects duplicate value", func() {
		err := s.store.Create(s.ctx, &models.Verification{ID: id.NewVerificationID(), Value: "secret"})
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("delete removes the record", func() {
		s.Require().NoError(s.store.Delete(s.ctx, v.ID))
		_, err := s.store.FindByValue(s.ctx, "secret")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Require().ErrorIs(s.store.Delete(s.ctx, v.ID), sentinel.ErrNotFound)
	})
}

func (s *VerificationStoreSuite) TestFindReturnsExpiredRecords() {
	s.add(id.NewUserID(), models.IdentifierPasswordReset, "old", s.now.Add(-time.Hour))

	found, err := s.store.FindByValue(s.ctx, "old")
	s.Require().NoError(err)
	s.True(found.IsExpired(s.now))
}

func (s *VerificationStoreSuite) TestDeleteExpired() {
	userID := id.NewUserID()
	s.add(userID, models.IdentifierEmailVerification, "expired", s.now.Add(-time.Second))
	s.add(userID, models.IdentifierEmailVerification, "boundary", s.now)
	s.add(userID, models.IdentifierEmailVerification, "live", s.now.Add(time.Hour))

	count, err := s.store.DeleteExpired(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, count)

	_, err = s.store.FindByValue(s.ctx, "expired")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	for _, value := range []string{"boundary", "live"} {
		_, err := s.store.FindByValue(s.ctx, value)
		s.Require().NoError(err, value)
	}
}
