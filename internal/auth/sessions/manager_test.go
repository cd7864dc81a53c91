package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"portcullis/internal/auth/store/session"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/requestcontext"
)

type ManagerSuite struct {
	suite.Suite
	store   *session.InMemorySessionStore
	manager *Manager
	now     time.Time
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.store = session.New()
	s.manager = New(s.store)
	s.now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
}

func (s *ManagerSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ManagerSuite) TestCreate() {
	userID := id.NewUserID()
	first, err := s.manager.Create(s.at(s.now), userID, "10.0.0.1", "curl/8")
	s.Require().NoError(err)
	second, err := s.manager.Create(s.at(s.now), userID, "", "")
	s.Require().NoError(err)

	s.Equal(s.now.Add(30*24*time.Hour), first.ExpiresAt)
	s.NotEqual(first.Token, second.Token)
	s.GreaterOrEqual(len(first.Token), 43)

	list, err := s.manager.ListForUser(s.at(s.now), userID)
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *ManagerSuite) TestGetByToken() {
	created, err := s.manager.Create(s.at(s.now), id.NewUserID(), "", "")
	s.Require().NoError(err)

	s.Run("live session is returned", func() {
		found, err := s.manager.GetByToken(s.at(s.now.Add(time.Hour)), created.Token)
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
	})

	s.Run("expired session is evicted and reported missing twice", func() {
		expiredAt := s.at(created.ExpiresAt)

		_, err := s.manager.GetByToken(expiredAt, created.Token)
		s.Require().ErrorIs(err, ErrSessionNotFound)

		_, err = s.store.FindByID(context.Background(), created.ID)
		s.Require().Error(err)

		_, err = s.manager.GetByToken(expiredAt, created.Token)
		s.Require().ErrorIs(err, ErrSessionNotFound)
	})

	s.Run("empty token is not found", func() {
		_, err := s.manager.GetByToken(s.at(s.now), "")
		s.Require().ErrorIs(err, ErrSessionNotFound)
	})
}

func (s *ManagerSuite) TestRefresh() {
	created, err := s.manager.Create(s.at(s.now), id.NewUserID(), "", "")
	s.Require().NoError(err)

	s.Run("extends a live session and keeps the token", func() {
		later := s.now.Add(24 * time.Hour)
		refreshed, err := s.manager.Refresh(s.at(later), created.ID)
		s.Require().NoError(err)
		s.Equal(later.Add(DefaultTTL), refreshed.ExpiresAt)
		s.Equal(created.Token, refreshed.Token)

		stored, err := s.store.FindByID(context.Background(), created.ID)
		s.Require().NoError(err)
		s.Equal(refreshed.ExpiresAt, stored.ExpiresAt)
	})

	s.Run("expired session cannot be refreshed", func() {
		expired, err := s.manager.Create(s.at(s.now), id.NewUserID(), "", "")
		s.Require().NoError(err)

		_, err = s.manager.RefreshByToken(s.at(expired.ExpiresAt.Add(time.Second)), expired.Token)
		s.Require().ErrorIs(err, ErrSessionExpired)
		s.True(dErrors.HasCode(err, dErrors.CodeExpired))

		_, err = s.manager.RefreshByToken(s.at(expired.ExpiresAt), expired.Token)
		s.Require().ErrorIs(err, ErrSessionNotFound)
	})

	s.Run("unknown session is not found", func() {
		_, err := s.manager.Refresh(s.at(s.now), id.NewSessionID())
		s.Require().ErrorIs(err, ErrSessionNotFound)
	})
}

func (s *ManagerSuite) TestCleanupExpired() {
	userID := id.NewUserID()
	_, err := s.manager.Create(s.at(s.now.Add(-DefaultTTL)), userID, "", "")
	s.Require().NoError(err)
	live, err := s.manager.Create(s.at(s.now), userID, "", "")
	s.Require().NoError(err)

	n, err := s.manager.CleanupExpired(s.at(s.now))
	s.Require().NoError(err)
	s.Equal(1, n)

	list, err := s.manager.ListForUser(s.at(s.now), userID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(live.ID, list[0].ID)
}

func (s *ManagerSuite) TestDeleteAllForUser() {
	userID := id.NewUserID()
	for range 3 {
		_, err := s.manager.Create(s.at(s.now), userID, "", "")
		s.Require().NoError(err)
	}
	other, err := s.manager.Create(s.at(s.now), id.NewUserID(), "", "")
	s.Require().NoError(err)

	n, err := s.manager.DeleteAllForUser(s.at(s.now), userID)
	s.Require().NoError(err)
	s.Equal(3, n)

	_, err = s.manager.GetByToken(s.at(s.now), other.Token)
	s.Require().NoError(err)
}

func (s *ManagerSuite) TestDelete() {
	created, err := s.manager.Create(s.at(s.now), id.NewUserID(), "", "")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.Delete(s.at(s.now), created.ID))
	s.Require().ErrorIs(s.manager.Delete(s.at(s.now), created.ID), ErrSessionNotFound)
}
