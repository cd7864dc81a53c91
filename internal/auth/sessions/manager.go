// Package sessions manages server-side login sessions referenced by opaque
// tokens. A session is valid only while now < ExpiresAt; expired sessions are
// deleted when read and never extended.
package sessions

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
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	UpdateExpiry(ctx context.Context, sessionID id.SessionID, expiresAt, now time.Time) error
	Delete(ctx context.Context, sessionID id.SessionID) error
	DeleteByUser(ctx context.Context, userID id.UserID) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error)
}

// Metrics is the subset of collectors the manager reports to.
type Metrics interface {
	IncSessionsCreated()
	AddSessionsSwept(n int)
}

var (
	ErrSessionNotFound = dErrors.New(dErrors.CodeNotFound, "session not found")
	ErrSessionExpired  = dErrors.New(dErrors.CodeExpired, "Cannot refresh an expired session")
)

// DefaultTTL is the lifetime of a new or refreshed session.
const DefaultTTL = 30 * 24 * time.Hour

type Manager struct {
	store    Store
	ttl      time.Duration
	logger   *slog.Logger
	metrics  Metrics
	newToken func() (string, error)
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

func New(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		ttl:      DefaultTTL,
		logger:   slog.Default(),
		newToken: jwttoken.RandomToken,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL is the configured session lifetime, used for cookie max-age.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Create opens a new session for userID. Users may hold any number of sessions.
func (m *Manager) Create(ctx context.Context, userID id.UserID, ipAddress, userAgent string) (*models.Session, error) {
	token, err := m.newToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate session token")
	}
	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:        id.NewSessionID(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(m.ttl),
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, dErrors.FromStore(err, "failed to create session")
	}
	if m.metrics != nil {
		m.metrics.IncSessionsCreated()
	}
	return session, nil
}

// GetByToken returns the live session for token. An expired session is
// deleted and reported as not found.
func (m *Manager) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	session, err := m.store.FindByToken(ctx, token)
	if err != nil {
		return nil, m.lookupErr(err)
	}
	if session.IsExpired(requestcontext.Now(ctx)) {
		m.evict(ctx, session)
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Refresh extends a live session by the configured TTL, keeping its token.
func (m *Manager) Refresh(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := m.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, m.lookupErr(err)
	}
	return m.refresh(ctx, session)
}

// RefreshByToken is Refresh for callers holding the session cookie.
func (m *Manager) RefreshByToken(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	session, err := m.store.FindByToken(ctx, token)
	if err != nil {
		return nil, m.lookupErr(err)
	}
	return m.refresh(ctx, session)
}

func (m *Manager) refresh(ctx context.Context, session *models.Session) (*models.Session, error) {
	now := requestcontext.Now(ctx)
	if session.IsExpired(now) {
		m.evict(ctx, session)
		return nil, ErrSessionExpired
	}
	session.Extend(now, m.ttl)
	if err := m.store.UpdateExpiry(ctx, session.ID, session.ExpiresAt, now); err != nil {
		return nil, m.lookupErr(err)
	}
	return session, nil
}

// Get returns a session by ID without the lazy-expiry side effect. Used for
// ownership checks before deletion.
func (m *Manager) Get(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := m.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, m.lookupErr(err)
	}
	return session, nil
}

func (m *Manager) Delete(ctx context.Context, sessionID id.SessionID) error {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return m.lookupErr(err)
	}
	return nil
}

func (m *Manager) DeleteAllForUser(ctx context.Context, userID id.UserID) (int, error) {
	n, err := m.store.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, dErrors.FromStore(err, "failed to delete user sessions")
	}
	return n, nil
}

// ListForUser returns the user's live sessions, newest first.
func (m *Manager) ListForUser(ctx context.Context, userID id.UserID) ([]*models.Session, error) {
	all, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list sessions")
	}
	now := requestcontext.Now(ctx)
	live := make([]*models.Session, 0, len(all))
	for _, session := range all {
		if !session.IsExpired(now) {
			live = append(live, session)
		}
	}
	return live, nil
}

// CleanupExpired deletes every session past its expiry and returns the count.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	n, err := m.store.DeleteExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.FromStore(err, "failed to delete expired sessions")
	}
	if m.metrics != nil {
		m.metrics.AddSessionsSwept(n)
	}
	return n, nil
}

func (m *Manager) evict(ctx context.Context, session *models.Session) {
	err := m.store.Delete(ctx, session.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		m.logger.WarnContext(ctx, "failed to delete expired session",
			"session_id", session.ID.String(),
			"error", err,
		)
	}
}

func (m *Manager) lookupErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return ErrSessionNotFound
	}
	return dErrors.FromStore(err, "session lookup failed")
}
