// Package cleanup reclaims storage held by expired sessions, verification
// tokens and revocation entries.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"portcullis/pkg/requestcontext"
)

type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

type VerificationCleaner interface {
	DeleteExpired(ctx context.Context) (int, error)
}

type RevocationCleaner interface {
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// Result counts what one pass removed.
type Result struct {
	Sessions      int
	Verifications int
	Revocations   int
}

const DefaultInterval = 10 * time.Minute

type Sweeper struct {
	sessions      SessionCleaner
	verifications VerificationCleaner
	revocations   RevocationCleaner
	interval      time.Duration
	logger        *slog.Logger
}

type Option func(*Sweeper)

func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = logger }
}

// WithRevocations also purges expired revocation entries. Redis expires its
// own keys, so the Redis list is usually left out.
func WithRevocations(r RevocationCleaner) Option {
	return func(s *Sweeper) { s.revocations = r }
}

func New(sessions SessionCleaner, verifications VerificationCleaner, opts ...Option) *Sweeper {
	s := &Sweeper{
		sessions:      sessions,
		verifications: verifications,
		interval:      DefaultInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps every interval until ctx is cancelled. A failed pass is logged
// and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.Sweep(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "cleanup sweep failed", "error", err)
				continue
			}
			if res.Sessions+res.Verifications+res.Revocations > 0 {
				s.logger.InfoContext(ctx, "cleanup sweep",
					"sessions", res.Sessions,
					"verifications", res.Verifications,
					"revocations", res.Revocations,
				)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Sweep runs one pass over every configured store concurrently.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result
	now := requestcontext.Now(ctx)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.sessions.CleanupExpired(gctx)
		res.Sessions = n
		return err
	})
	g.Go(func() error {
		n, err := s.verifications.DeleteExpired(gctx)
		res.Verifications = n
		return err
	})
	if s.revocations != nil {
		g.Go(func() error {
			n, err := s.revocations.PurgeExpired(gctx, now)
			res.Revocations = n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}
