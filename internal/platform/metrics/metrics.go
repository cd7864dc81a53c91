package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for auth flows. All methods are safe
// on a nil receiver so components can run without metrics in tests.
type Metrics struct {
	LoginAttempts         *prometheus.CounterVec
	UsersRegistered       prometheus.Counter
	SessionsCreated       prometheus.Counter
	SessionsSwept         prometheus.Counter
	VerificationsIssued   *prometheus.CounterVec
	VerificationsRedeemed *prometheus.CounterVec
	NotificationFailures  *prometheus.CounterVec
	AuthzChecks           *prometheus.CounterVec
	RevocationChecks      prometheus.Histogram
	HTTPLatency           *prometheus.HistogramVec
}

// New registers collectors on reg. Pass prometheus.DefaultRegisterer in main
// and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portcullis_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "portcullis_users_registered_total",
			Help: "Total number of users registered",
		}),
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "portcullis_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		SessionsSwept: f.NewCounter(prometheus.CounterOpts{
			Name: "portcullis_sessions_swept_total",
			Help: "Expired sessions removed by the cleanup sweep",
		}),
		VerificationsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portcullis_verification_tokens_issued_total",
			Help: "Verification tokens issued by identifier",
		}, []string{"identifier"}),
		VerificationsRedeemed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portcullis_verification_tokens_redeemed_total",
			Help: "Verification token redemptions by identifier and outcome",
		}, []string{"identifier", "outcome"}),
		NotificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portcullis_notification_failures_total",
			Help: "Notification dispatch failures by template",
		}, []string{"template"}),
		AuthzChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portcullis_authz_checks_total",
			Help: "Permission checks by result",
		}, []string{"result"}),
		RevocationChecks: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "portcullis_revocation_check_duration_seconds",
			Help:    "Latency of access token revocation lookups",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portcullis_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncUsersRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncSessionsCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

func (m *Metrics) AddSessionsSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsSwept.Add(float64(n))
}

func (m *Metrics) IncVerificationIssued(identifier string) {
	if m == nil {
		return
	}
	m.VerificationsIssued.WithLabelValues(identifier).Inc()
}

func (m *Metrics) IncVerificationRedeemed(identifier, outcome string) {
	if m == nil {
		return
	}
	m.VerificationsRedeemed.WithLabelValues(identifier, outcome).Inc()
}

func (m *Metrics) IncNotificationFailure(template string) {
	if m == nil {
		return
	}
	m.NotificationFailures.WithLabelValues(template).Inc()
}

func (m *Metrics) ObserveAuthzCheck(allowed bool) {
	if m == nil {
		return
	}
	result := "deny"
	if allowed {
		result = "allow"
	}
	m.AuthzChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRevocationCheck(seconds float64) {
	if m == nil {
		return
	}
	m.RevocationChecks.Observe(seconds)
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPLatency.WithLabelValues(method, route, status).Observe(seconds)
}
