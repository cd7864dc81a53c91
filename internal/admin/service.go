// Package admin gives operators a read-only view of accounts: session
// activity and the audit trail recorded against a user.
package admin

import (
	"context"
	"errors"
	"sort"

	authmodels "portcullis/internal/auth/models"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/audit"
	"portcullis/pkg/platform/sentinel"
)

type UserStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*authmodels.User, error)
}

type SessionLister interface {
	ListForUser(ctx context.Context, userID id.UserID) ([]*authmodels.Session, error)
}

type AuditLister interface {
	List(ctx context.Context, userID id.UserID) ([]audit.Event, error)
}

var ErrUserNotFound = dErrors.New(dErrors.CodeNotFound, "User not found")

type Service struct {
	users    UserStore
	sessions SessionLister
	audit    AuditLister
}

func NewService(users UserStore, sessions SessionLister, audit AuditLister) *Service {
	return &Service{users: users, sessions: sessions, audit: audit}
}

// GetUser summarises the account and its live sessions. LastActive is the most
// recent session touch.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*UserInfoResponse, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	info := &UserInfoResponse{
		ID:           user.ID,
		Email:        user.Email,
		Verified:     user.EmailVerified,
		SessionCount: len(sessions),
		CreatedAt:    user.CreatedAt,
	}
	for _, sess := range sessions {
		if info.LastActive == nil || sess.UpdatedAt.After(*info.LastActive) {
			touched := sess.UpdatedAt
			info.LastActive = &touched
		}
	}
	return info, nil
}

// AuditTrail returns the user's events, newest first.
func (s *Service) AuditTrail(ctx context.Context, userID id.UserID) (*AuditTrailResponse, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	events, err := s.audit.List(ctx, userID)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to load audit trail")
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })

	out := &AuditTrailResponse{UserID: userID, Events: make([]AuditEventResponse, 0, len(events)), Total: len(events)}
	for _, e := range events {
		out.Events = append(out.Events, AuditEventResponse{
			Timestamp: e.Timestamp,
			Category:  string(e.Category),
			Action:    e.Action,
			Subject:   e.Subject,
			Reason:    e.Reason,
			IP:        e.IP,
			RequestID: e.RequestID,
		})
	}
	return out, nil
}

func (s *Service) user(ctx context.Context, userID id.UserID) (*authmodels.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, dErrors.FromStore(err, "failed to load user")
	}
	return user, nil
}
