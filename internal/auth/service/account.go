package service

import (
	"context"
	"errors"

	"portcullis/internal/auth/models"
	"portcullis/internal/notification"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/audit"
	"portcullis/pkg/platform/sentinel"
)

var ErrEmailAlreadyVerified = dErrors.New(dErrors.CodeValidation, "Email already verified")

// VerifyEmail redeems an email-verification token. Redeeming for a user who
// is already verified succeeds and sends nothing.
func (s *Service) VerifyEmail(ctx context.Context, req *models.VerifyEmailRequest) (user *models.User, err error) {
	ctx, span := s.startSpan(ctx, "VerifyEmail")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(s.cfg.CallbackOrigins); err != nil {
		return nil, err
	}
	redemption, err := s.verifications.RedeemEmail(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if redemption.AlreadyVerified {
		return redemption.User, nil
	}

	s.logAudit(ctx, audit.Event{
		Action: string(audit.EventEmailVerified),
		UserID: redemption.User.ID,
		Email:  redemption.User.Email,
	})
	s.notify(ctx, notification.TemplateEmailVerified, redemption.User.ID, func() error {
		return s.notifier.SendEmailVerified(ctx, redemption.User)
	})
	return redemption.User, nil
}

// SendVerificationEmail issues a fresh verification token on request. The
// email is the whole point of the call, so delivery failures are returned.
func (s *Service) SendVerificationEmail(ctx context.Context, req *models.EmailRequest) (err error) {
	ctx, span := s.startSpan(ctx, "SendVerificationEmail")
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(s.cfg.CallbackOrigins); err != nil {
		return err
	}
	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	v, err := s.verifications.Issue(ctx, user.ID, models.IdentifierEmailVerification)
	if err != nil {
		return err
	}
	if err := s.notifier.SendVerification(ctx, user, v, req.CallbackURL); err != nil {
		s.observeNotificationFailure(notification.TemplateVerifyEmail)
		return err
	}
	return nil
}

// ForgotPassword issues a password-reset token and mails it. Earlier reset
// tokens stay valid until they expire or are used.
func (s *Service) ForgotPassword(ctx context.Context, req *models.EmailRequest) (err error) {
	ctx, span := s.startSpan(ctx, "ForgotPassword")
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(s.cfg.CallbackOrigins); err != nil {
		return err
	}
	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	v, err := s.verifications.Issue(ctx, user.ID, models.IdentifierPasswordReset)
	if err != nil {
		return err
	}
	s.logAudit(ctx, audit.Event{
		Action: string(audit.EventPasswordResetRequested),
		UserID: user.ID,
		Email:  user.Email,
	})
	if err := s.notifier.SendPasswordReset(ctx, user, v, req.CallbackURL); err != nil {
		s.observeNotificationFailure(notification.TemplatePasswordReset)
		return err
	}
	return nil
}

// ResetPassword redeems a password-reset token and sets the new password.
// When configured, every session of the user is signed out as well.
func (s *Service) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) (err error) {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return err
	}
	userID, err := s.verifications.RedeemPasswordReset(ctx, req.Token, req.Password)
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.Event{
		Action: string(audit.EventPasswordReset),
		UserID: userID,
	})

	if s.cfg.RevokeSessionsOnPasswordReset {
		n, err := s.sessions.DeleteAllForUser(ctx, userID)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke sessions after password reset",
				"user_id", userID.String(),
				"error", err,
			)
		} else {
			s.logAudit(ctx, audit.Event{
				Action: string(audit.EventSessionsRevoked),
				UserID: userID,
				Reason: "password_reset",
			})
			s.logger.InfoContext(ctx, "sessions revoked after password reset",
				"user_id", userID.String(),
				"count", n,
			)
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "password changed but user lookup failed; skipping confirmation email",
			"user_id", userID.String(),
			"error", err,
		)
		return nil
	}
	s.notify(ctx, notification.TemplatePasswordChanged, userID, func() error {
		return s.notifier.SendPasswordChanged(ctx, user)
	})
	return nil
}

func (s *Service) userByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrEmailNotRegistered
		}
		return nil, dErrors.FromStore(err, "failed to load user")
	}
	return user, nil
}

func (s *Service) observeNotificationFailure(template string) {
	if s.metrics != nil {
		s.metrics.IncNotificationFailure(template)
	}
}
