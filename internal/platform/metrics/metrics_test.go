package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLogin("success")
	m.ObserveLogin("success")
	m.ObserveLogin("invalid_credentials")
	m.AddSessionsSwept(3)
	m.AddSessionsSwept(0)
	m.IncVerificationIssued("password_reset")
	m.ObserveRevocationCheck(0.002)

	assert.InDelta(t, 2, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("invalid_credentials")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.SessionsSwept), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.VerificationsIssued.WithLabelValues("password_reset")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RevocationChecks))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLogin("success")
		m.IncUsersRegistered()
		m.IncNotificationFailure("welcome")
		m.ObserveRevocationCheck(0.001)
		m.ObserveHTTP("GET", "/auth/me", "200", 0.01)
	})
}
