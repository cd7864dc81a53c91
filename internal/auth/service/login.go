package service

import (
	"context"
	"errors"

	"portcullis/internal/auth/models"
	"portcullis/internal/notification"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/audit"
	"portcullis/pkg/platform/sentinel"
	txcontext "portcullis/pkg/platform/tx"
	"portcullis/pkg/requestcontext"
)

var (
	ErrEmailRegistered    = dErrors.New(dErrors.CodeValidation, "Email already registered")
	ErrEmailNotRegistered = dErrors.New(dErrors.CodeValidation, "Email not registered")
)

// Login verifies credentials and opens a session plus an access token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (result *models.AuthResult, err error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	acct, err := s.credentials.Verify(ctx, req.Email, req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.authFailure(ctx, "invalid_credentials", id.UserID{}, req.Email)
			s.observeLogin("failure")
			return nil, err
		}
		s.observeLogin("error")
		return nil, err
	}

	user, err := s.users.FindByID(ctx, acct.UserID)
	if err != nil {
		s.observeLogin("error")
		return nil, dErrors.FromStore(err, "failed to load user")
	}

	result, err = s.issue(ctx, user)
	if err != nil {
		s.observeLogin("error")
		return nil, err
	}
	s.observeLogin("success")
	return result, nil
}

// Register creates an unverified user with a password, signs them in, and
// sends the welcome and (optionally) verification emails.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (result *models.AuthResult, err error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to check email")
	}
	if exists {
		return nil, ErrEmailRegistered
	}

	hash, err := s.credentials.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	user := &models.User{
		ID:        id.NewUserID(),
		Email:     req.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return ErrEmailRegistered
			}
			return dErrors.FromStore(err, "failed to create user")
		}
		if _, err := s.credentials.Create(ctx, user.ID, user.Email, hash); err != nil {
			s.discardUser(ctx, user.ID)
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				return ErrEmailRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Event{
		Action: string(audit.EventUserCreated),
		UserID: user.ID,
		Email:  user.Email,
	})
	if s.metrics != nil {
		s.metrics.IncUsersRegistered()
	}

	result, err = s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.TemplateWelcome, user.ID, func() error {
		return s.notifier.SendWelcome(ctx, user)
	})
	if req.ShouldSendVerification() {
		s.sendVerification(ctx, user, "")
	}
	return result, nil
}

// discardUser removes a user whose credential write failed. Inside a database
// transaction the rollback covers this, so nothing is deleted.
func (s *Service) discardUser(ctx context.Context, userID id.UserID) {
	if _, inTx := txcontext.From(ctx); inTx {
		return
	}
	if err := s.users.Delete(ctx, userID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to discard partially registered user",
			"user_id", userID.String(),
			"error", err,
		)
	}
}

// sendVerification issues an email-verification token and mails it. Used
// where verification is a side effect, so failures are logged only.
func (s *Service) sendVerification(ctx context.Context, user *models.User, callbackURL string) {
	v, err := s.verifications.Issue(ctx, user.ID, models.IdentifierEmailVerification)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue verification token",
			"user_id", user.ID.String(),
			"error", err,
		)
		return
	}
	s.notify(ctx, notification.TemplateVerifyEmail, user.ID, func() error {
		return s.notifier.SendVerification(ctx, user, v, callbackURL)
	})
}

// issue opens a session for user and signs an access token for it.
func (s *Service) issue(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	session, err := s.sessions.Create(ctx, user.ID, requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx))
	if err != nil {
		return nil, err
	}
	token, claims, err := s.tokens.GenerateAccessToken(user.ID, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	s.logAudit(ctx, audit.Event{
		Action: string(audit.EventSessionCreated),
		UserID: user.ID,
	})
	s.logger.InfoContext(ctx, "session created",
		"user_id", user.ID.String(),
		"session_id", session.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &models.AuthResult{
		User:                 user,
		Session:              session,
		AccessToken:          token,
		AccessTokenExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) observeLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveLogin(outcome)
	}
}
