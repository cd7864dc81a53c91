// Package verification issues and redeems single-use, time-limited tokens for
// email verification and password reset. Issuing never invalidates earlier
// tokens for the same user, so several may be live at once.
package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"portcullis/internal/auth/models"
	jwttoken "portcullis/internal/jwt_token"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/sentinel"
	"portcullis/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, v *models.Verification) error
	FindByValue(ctx context.Context, value string) (*models.Verification, error)
	Delete(ctx context.Context, verificationID id.VerificationID) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type UserStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	MarkEmailVerified(ctx context.Context, userID id.UserID, now time.Time) error
}

// Credentials is the slice of the credential service a password reset needs.
type Credentials interface {
	FindForUser(ctx context.Context, userID id.UserID) (*models.CredentialAccount, error)
	UpdatePassword(ctx context.Context, accountID id.AccountID, password string) error
}

type Metrics interface {
	IncVerificationIssued(identifier string)
	IncVerificationRedeemed(identifier, outcome string)
}

const (
	DefaultEmailVerificationTTL = time.Hour
	DefaultPasswordResetTTL     = 30 * time.Minute
)

var (
	ErrTokenInvalid = dErrors.New(dErrors.CodeValidation, "Invalid verification token")
	ErrTokenExpired = dErrors.New(dErrors.CodeValidation, "Verification token has expired")
	ErrNoCredential = dErrors.New(dErrors.CodeValidation, "Account has no password to reset")
)

type Engine struct {
	store       Store
	users       UserStore
	credentials Credentials
	emailTTL    time.Duration
	resetTTL    time.Duration
	logger      *slog.Logger
	metrics     Metrics
	newToken    func() (string, error)
}

type Option func(*Engine)

func WithTTLs(emailVerification, passwordReset time.Duration) Option {
	return func(e *Engine) {
		if emailVerification > 0 {
			e.emailTTL = emailVerification
		}
		if passwordReset > 0 {
			e.resetTTL = passwordReset
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(metrics Metrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

func New(store Store, users UserStore, credentials Credentials, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		users:       users,
		credentials: credentials,
		emailTTL:    DefaultEmailVerificationTTL,
		resetTTL:    DefaultPasswordResetTTL,
		logger:      slog.Default(),
		newToken:    jwttoken.RandomToken,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Issue creates a fresh token for (userID, identifier).
func (e *Engine) Issue(ctx context.Context, userID id.UserID, identifier models.VerificationIdentifier) (*models.Verification, error) {
	ttl, err := e.ttlFor(identifier)
	if err != nil {
		return nil, err
	}
	value, err := e.newToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate verification token")
	}
	now := requestcontext.Now(ctx)
	v := &models.Verification{
		ID:         id.NewVerificationID(),
		UserID:     userID,
		Identifier: identifier,
		Value:      value,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	if err := e.store.Create(ctx, v); err != nil {
		return nil, dErrors.FromStore(err, "failed to store verification token")
	}
	if e.metrics != nil {
		e.metrics.IncVerificationIssued(identifier.String())
	}
	return v, nil
}

// EmailRedemption reports the user whose email a token confirmed.
// AlreadyVerified is set when the redemption was a no-op.
type EmailRedemption struct {
	User            *models.User
	AlreadyVerified bool
}

// RedeemEmail marks the token's user verified and consumes the token. An
// expired token is rejected and left in place. Redeeming for a user who is
// already verified succeeds without consuming the token.
func (e *Engine) RedeemEmail(ctx context.Context, value string) (*EmailRedemption, error) {
	v, err := e.lookup(ctx, value, models.IdentifierEmailVerification)
	if err != nil {
		return nil, err
	}
	user, err := e.users.FindByID(ctx, v.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, e.reject(v.Identifier, "invalid", ErrTokenInvalid)
		}
		return nil, dErrors.FromStore(err, "failed to load user")
	}
	if user.EmailVerified {
		e.observe(v.Identifier, "already_verified")
		return &EmailRedemption{User: user, AlreadyVerified: true}, nil
	}

	now := requestcontext.Now(ctx)
	if err := e.users.MarkEmailVerified(ctx, user.ID, now); err != nil {
		return nil, dErrors.FromStore(err, "failed to mark email verified")
	}
	user.EmailVerified = true
	user.UpdatedAt = now
	e.consume(ctx, v)
	e.observe(v.Identifier, "redeemed")
	return &EmailRedemption{User: user}, nil
}

// RedeemPasswordReset sets a new password for the token's user and consumes
// the token. It returns the user whose password changed.
func (e *Engine) RedeemPasswordReset(ctx context.Context, value, newPassword string) (id.UserID, error) {
	v, err := e.lookup(ctx, value, models.IdentifierPasswordReset)
	if err != nil {
		return id.UserID{}, err
	}
	acct, err := e.credentials.FindForUser(ctx, v.UserID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return id.UserID{}, e.reject(v.Identifier, "no_credential", ErrNoCredential)
		}
		return id.UserID{}, err
	}
	if err := e.credentials.UpdatePassword(ctx, acct.ID, newPassword); err != nil {
		return id.UserID{}, err
	}
	e.consume(ctx, v)
	e.observe(v.Identifier, "redeemed")
	return v.UserID, nil
}

// DeleteExpired removes tokens past their expiry.
func (e *Engine) DeleteExpired(ctx context.Context) (int, error) {
	n, err := e.store.DeleteExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.FromStore(err, "failed to delete expired verification tokens")
	}
	return n, nil
}

// lookup resolves value to an unexpired token of the wanted kind. A token of
// another kind is treated as absent.
func (e *Engine) lookup(ctx context.Context, value string, identifier models.VerificationIdentifier) (*models.Verification, error) {
	if value == "" {
		return nil, e.reject(identifier, "invalid", ErrTokenInvalid)
	}
	v, err := e.store.FindByValue(ctx, value)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, e.reject(identifier, "invalid", ErrTokenInvalid)
		}
		return nil, dErrors.FromStore(err, "failed to load verification token")
	}
	if v.Identifier != identifier {
		return nil, e.reject(identifier, "invalid", ErrTokenInvalid)
	}
	if v.IsExpired(requestcontext.Now(ctx)) {
		return nil, e.reject(identifier, "expired", ErrTokenExpired)
	}
	return v, nil
}

// consume deletes a redeemed token. The state change already happened, so a
// failure here is logged rather than returned.
func (e *Engine) consume(ctx context.Context, v *models.Verification) {
	if err := e.store.Delete(ctx, v.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		e.logger.ErrorContext(ctx, "failed to delete redeemed verification token",
			"verification_id", v.ID.String(),
			"identifier", v.Identifier.String(),
			"error", err,
		)
	}
}

func (e *Engine) reject(identifier models.VerificationIdentifier, outcome string, err error) error {
	e.observe(identifier, outcome)
	return err
}

func (e *Engine) observe(identifier models.VerificationIdentifier, outcome string) {
	if e.metrics != nil {
		e.metrics.IncVerificationRedeemed(identifier.String(), outcome)
	}
}

func (e *Engine) ttlFor(identifier models.VerificationIdentifier) (time.Duration, error) {
	switch identifier {
	case models.IdentifierEmailVerification:
		return e.emailTTL, nil
	case models.IdentifierPasswordReset:
		return e.resetTTL, nil
	}
	return 0, dErrors.New(dErrors.CodeInvariantViolation, "no workflow for identifier "+identifier.String())
}
