// Package service orchestrates the credential, session, token and
// verification components into the account flows exposed over HTTP.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portcullis/internal/auth/models"
	"portcullis/internal/auth/verification"
	jwttoken "portcullis/internal/jwt_token"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/audit"
	txcontext "portcullis/pkg/platform/tx"
	"portcullis/pkg/requestcontext"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, userID id.UserID) error
}

type Credentials interface {
	Verify(ctx context.Context, email, password string) (*models.CredentialAccount, error)
	Hash(password string) (string, error)
	Create(ctx context.Context, userID id.UserID, email, passwordHash string) (*models.CredentialAccount, error)
}

type SessionManager interface {
	Create(ctx context.Context, userID id.UserID, ipAddress, userAgent string) (*models.Session, error)
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	RefreshByToken(ctx context.Context, token string) (*models.Session, error)
	Get(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
	DeleteAllForUser(ctx context.Context, userID id.UserID) (int, error)
	ListForUser(ctx context.Context, userID id.UserID) ([]*models.Session, error)
}

type Verifications interface {
	Issue(ctx context.Context, userID id.UserID, identifier models.VerificationIdentifier) (*models.Verification, error)
	RedeemEmail(ctx context.Context, value string) (*verification.EmailRedemption, error)
	RedeemPasswordReset(ctx context.Context, value, newPassword string) (id.UserID, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, ttl time.Duration) (string, *jwttoken.Claims, error)
}

// RevocationList records access tokens revoked before expiry.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

type Notifier interface {
	SendWelcome(ctx context.Context, user *models.User) error
	SendVerification(ctx context.Context, user *models.User, v *models.Verification, callbackURL string) error
	SendPasswordReset(ctx context.Context, user *models.User, v *models.Verification, callbackURL string) error
	SendPasswordChanged(ctx context.Context, user *models.User) error
	SendEmailVerified(ctx context.Context, user *models.User) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Metrics interface {
	ObserveLogin(outcome string)
	IncUsersRegistered()
	IncNotificationFailure(template string)
}

// Config holds orchestration settings read once at startup.
type Config struct {
	AccessTokenTTL                time.Duration
	RevokeSessionsOnPasswordReset bool
	// CallbackOrigins bounds callback_url on verification and reset requests.
	// Empty rejects every callback_url.
	CallbackOrigins models.CallbackOrigins
}

const DefaultAccessTokenTTL = 7 * 24 * time.Hour

type Service struct {
	users         UserStore
	credentials   Credentials
	sessions      SessionManager
	verifications Verifications
	tokens        TokenIssuer
	trl           RevocationList
	notifier      Notifier
	tx            txcontext.Runner
	cfg           Config

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = p }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRevocationList(trl RevocationList) Option {
	return func(s *Service) { s.trl = trl }
}

func WithTxRunner(tx txcontext.Runner) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

func New(
	users UserStore,
	credentials Credentials,
	sessions SessionManager,
	verifications Verifications,
	tokens TokenIssuer,
	notifier Notifier,
	cfg Config,
	opts ...Option,
) *Service {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = DefaultAccessTokenTTL
	}
	s := &Service{
		users:         users,
		credentials:   credentials,
		sessions:      sessions,
		verifications: verifications,
		tokens:        tokens,
		notifier:      notifier,
		cfg:           cfg,
		tx:            txcontext.NewMemoryRunner(),
		logger:        slog.Default(),
		tracer:        otel.Tracer("portcullis/auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "auth."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// logAudit emits an audit event. Audit failures never fail the flow.
func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if event.Subject == "" && !event.UserID.IsNil() {
		event.Subject = event.UserID.String()
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

// authFailure records a rejected authentication attempt.
func (s *Service) authFailure(ctx context.Context, reason string, userID id.UserID, email string) {
	s.logger.WarnContext(ctx, "authentication failed",
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
		"client_ip", requestcontext.ClientIP(ctx),
	)
	s.logAudit(ctx, audit.Event{
		Action: string(audit.EventAuthFailed),
		UserID: userID,
		Email:  email,
		Reason: reason,
	})
}

// notify runs a side-effect email. The primary action has already succeeded,
// so a failure is logged and counted but not returned.
func (s *Service) notify(ctx context.Context, template string, userID id.UserID, send func() error) {
	if err := send(); err != nil {
		s.logger.ErrorContext(ctx, "notification failed",
			"template", template,
			"user_id", userID.String(),
			"error", err,
		)
		s.observeNotificationFailure(template)
	}
}
