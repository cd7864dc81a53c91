package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portcullis/internal/auth/sessions"
	"portcullis/internal/auth/store/revocation"
	"portcullis/internal/auth/store/session"
	id "portcullis/pkg/domain"
	"portcullis/pkg/requestcontext"
	"portcullis/pkg/testutil"
)

type countingCleaner struct {
	calls atomic.Int32
	n     int
	err   error
}

func (c *countingCleaner) DeleteExpired(context.Context) (int, error) {
	c.calls.Add(1)
	return c.n, c.err
}

func TestSweep(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	manager := sessions.New(session.New())
	for range 2 {
		_, err := manager.Create(requestcontext.WithTime(context.Background(), start), id.NewUserID(), "", "")
		require.NoError(t, err)
	}
	trl := revocation.NewInMemoryTRL(func() time.Time { return start })
	require.NoError(t, trl.RevokeToken(context.Background(), "jti-1", time.Hour))

	verifications := &countingCleaner{n: 3}
	sweeper := New(manager, verifications, WithRevocations(trl))

	later := requestcontext.WithTime(context.Background(), start.Add(sessions.DefaultTTL+time.Second))
	res, err := sweeper.Sweep(later)
	require.NoError(t, err)
	assert.Equal(t, Result{Sessions: 2, Verifications: 3, Revocations: 1}, res)

	res, err = sweeper.Sweep(later)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sessions)
	assert.Equal(t, 0, res.Revocations)
}

func TestSweepReportsStoreFailure(t *testing.T) {
	testutil.Given(t, "a verification store that is down", func(t *testing.T) {
		failing := &countingCleaner{err: errors.New("connection refused")}
		sweeper := New(sessions.New(session.New()), failing)

		testutil.Then(t, "the sweep surfaces the store error", func(t *testing.T) {
			_, err := sweeper.Sweep(context.Background())
			require.ErrorContains(t, err, "connection refused")
		})
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	verifications := &countingCleaner{}
	sweeper := New(sessions.New(session.New()), verifications,
		WithInterval(5*time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	require.Eventually(t, func() bool { return verifications.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
