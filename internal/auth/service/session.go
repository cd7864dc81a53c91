package service

import (
	"context"

	"portcullis/internal/auth/device"
	"portcullis/internal/auth/models"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/audit"
	"portcullis/pkg/requestcontext"
)

var (
	ErrSocialLoginUnavailable = dErrors.New(dErrors.CodeNotImplemented, "Social login is not available")
	ErrSessionNotOwned        = dErrors.New(dErrors.CodeForbidden, "Session belongs to another user")
	ErrSessionRequired        = dErrors.New(dErrors.CodeUnauthorized, "Session token is required")
)

// Logout ends the session named by sessionToken and revokes the bearer token
// carried on ctx. Both halves are optional and logging out twice succeeds.
func (s *Service) Logout(ctx context.Context, sessionToken string) (err error) {
	ctx, span := s.startSpan(ctx, "Logout")
	defer func() { endSpan(span, err) }()

	userID := requestcontext.UserID(ctx)
	if sessionToken != "" {
		session, err := s.sessions.GetByToken(ctx, sessionToken)
		switch {
		case err == nil:
			if err := s.sessions.Delete(ctx, session.ID); err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
				return err
			}
			userID = session.UserID
		case dErrors.HasCode(err, dErrors.CodeNotFound):
		default:
			return err
		}
	}

	if err := s.revokeAccessToken(ctx); err != nil {
		return err
	}

	if !userID.IsNil() {
		s.logAudit(ctx, audit.Event{
			Action: string(audit.EventLogout),
			UserID: userID,
		})
	}
	return nil
}

// revokeAccessToken adds the request's token id to the revocation list until
// the token would have expired anyway.
func (s *Service) revokeAccessToken(ctx context.Context) error {
	jti := requestcontext.TokenJTI(ctx)
	if s.trl == nil || jti == "" {
		return nil
	}
	remaining := requestcontext.TokenExpiresAt(ctx).Sub(requestcontext.Now(ctx))
	if remaining <= 0 {
		return nil
	}
	if err := s.trl.RevokeToken(ctx, jti, remaining); err != nil {
		return dErrors.FromStore(err, "failed to revoke access token")
	}
	return nil
}

// RefreshToken extends a live session and signs a new access token for it.
func (s *Service) RefreshToken(ctx context.Context, sessionToken string) (result *models.AuthResult, err error) {
	ctx, span := s.startSpan(ctx, "RefreshToken")
	defer func() { endSpan(span, err) }()

	if sessionToken == "" {
		return nil, ErrSessionRequired
	}
	session, err := s.sessions.RefreshByToken(ctx, sessionToken)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeExpired) {
			s.authFailure(ctx, "session_expired", id.UserID{}, "")
		}
		return nil, err
	}
	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to load user")
	}
	token, claims, err := s.tokens.GenerateAccessToken(user.ID, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	s.logAudit(ctx, audit.Event{
		Action: string(audit.EventSessionRefreshed),
		UserID: user.ID,
	})
	return &models.AuthResult{
		User:                 user,
		Session:              session,
		AccessToken:          token,
		AccessTokenExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SocialLogin is not supported; callers get a distinct not-implemented error.
func (s *Service) SocialLogin(ctx context.Context, provider string) error {
	s.logger.InfoContext(ctx, "social login requested", "provider", provider)
	return ErrSocialLoginUnavailable
}

// Me returns the user behind an access token.
func (s *Service) Me(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, dErrors.FromStore(err, "user not found")
	}
	return user, nil
}

// ListSessions returns the user's live sessions, marking the one that made
// the request.
func (s *Service) ListSessions(ctx context.Context, userID id.UserID, currentToken string) (*models.SessionsResult, error) {
	sessions, err := s.sessions.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, models.SessionSummary{
			SessionID: session.ID,
			Device:    device.Label(session.UserAgent),
			IPAddress: session.IPAddress,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
			IsCurrent: currentToken != "" && session.Token == currentToken,
		})
	}
	return &models.SessionsResult{Sessions: out}, nil
}

// RevokeSession deletes one of the caller's own sessions.
func (s *Service) RevokeSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeSession")
	defer func() { endSpan(span, err) }()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		s.authFailure(ctx, "session_not_owned", userID, "")
		return ErrSessionNotOwned
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil
		}
		return err
	}

	s.logAudit(ctx, audit.Event{
		Action: string(audit.EventSessionRevoked),
		UserID: userID,
		Reason: "user_initiated",
	})
	return nil
}
