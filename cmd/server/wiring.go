package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portcullis/internal/admin"
	authhandler "portcullis/internal/auth/handler"
	authmodels "portcullis/internal/auth/models"
	"portcullis/internal/auth/credential"
	authservice "portcullis/internal/auth/service"
	"portcullis/internal/auth/sessions"
	"portcullis/internal/auth/store/account"
	"portcullis/internal/auth/store/revocation"
	"portcullis/internal/auth/store/session"
	"portcullis/internal/auth/store/user"
	verificationstore "portcullis/internal/auth/store/verification"
	"portcullis/internal/auth/verification"
	authzhandler "portcullis/internal/authz/handler"
	authzmodels "portcullis/internal/authz/models"
	authzservice "portcullis/internal/authz/service"
	"portcullis/internal/authz/store/grant"
	"portcullis/internal/authz/store/permission"
	"portcullis/internal/authz/store/role"
	"portcullis/internal/cleanup"
	jwttoken "portcullis/internal/jwt_token"
	"portcullis/internal/notification"
	"portcullis/internal/platform/config"
	"portcullis/internal/platform/metrics"
	"portcullis/internal/platform/middleware"
	"portcullis/internal/platform/postgres"
	"portcullis/internal/platform/redis"
	"portcullis/pkg/platform/audit"
	"portcullis/pkg/platform/audit/publisher"
	kafkasink "portcullis/pkg/platform/audit/publishers/kafka"
	auditmemory "portcullis/pkg/platform/audit/store/memory"
	auditpostgres "portcullis/pkg/platform/audit/store/postgres"
	"portcullis/pkg/platform/httputil"
	adminmw "portcullis/pkg/platform/middleware/admin"
	authmw "portcullis/pkg/platform/middleware/auth"
	"portcullis/pkg/platform/middleware/metadata"
	"portcullis/pkg/platform/middleware/requesttime"
	txcontext "portcullis/pkg/platform/tx"
)

const (
	requestTimeout  = 30 * time.Second
	auditBufferSize = 1024
)

type app struct {
	router          http.Handler
	storage         string
	sessions        *sessions.Manager
	verifications   *verification.Engine
	revocationSweep cleanup.RevocationCleaner
	closers         []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// stores groups the persistence layer so main can pick Postgres or memory once.
type stores struct {
	users         userStore
	accounts      credential.AccountStore
	sessions      sessions.Store
	verifications verification.Store
	roles         authzservice.RoleStore
	permissions   authzservice.PermissionStore
	grants        authzservice.GrantStore
	audit         audit.Store
	tx            txcontext.Runner
}

// userStore is satisfied by both user store implementations.
type userStore interface {
	authservice.UserStore
	verification.UserStore
}

func newStores(db *sql.DB, txTimeout time.Duration) stores {
	if db == nil {
		return stores{
			users:         user.New(),
			accounts:      account.New(),
			sessions:      session.New(),
			verifications: verificationstore.New(),
			roles:         role.New(),
			permissions:   permission.New(),
			grants:        grant.New(),
			audit:         auditmemory.NewInMemoryStore(),
			tx:            txcontext.NewMemoryRunner(),
		}
	}
	return stores{
		users:         user.NewPostgres(db),
		accounts:      account.NewPostgres(db),
		sessions:      session.NewPostgres(db),
		verifications: verificationstore.NewPostgres(db),
		roles:         role.NewPostgres(db),
		permissions:   permission.NewPostgres(db),
		grants:        grant.NewPostgres(db),
		audit:         auditpostgres.New(db),
		tx:            txcontext.NewPostgresRunner(db, txTimeout),
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var db *sql.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
		a.storage = "postgres"
	} else {
		a.storage = "memory"
	}
	st := newStores(db, cfg.Database.TxTimeout)

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
	}
	trl := revocationList(db, redisClient, m)
	a.revocationSweep = trl

	auditOpts := []publisher.Option{publisher.WithAsyncBuffer(auditBufferSize), publisher.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafkasink.NewClient(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		auditOpts = append(auditOpts, publisher.WithSink(kafkasink.NewSink(client, cfg.Kafka.AuditTopic)))
	}
	auditor := publisher.NewPublisher(st.audit, auditOpts...)
	a.closers = append(a.closers, auditor.Close)

	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	creds := credential.New(st.accounts)
	a.sessions = sessions.New(st.sessions,
		sessions.WithTTL(cfg.Auth.SessionTTL),
		sessions.WithLogger(log),
		sessions.WithMetrics(m),
	)
	a.verifications = verification.New(st.verifications, st.users, creds,
		verification.WithTTLs(cfg.Auth.EmailVerificationTTL, cfg.Auth.PasswordResetTTL),
		verification.WithLogger(log),
		verification.WithMetrics(m),
	)
	notifier := notification.NewNotifier(notification.NewMailer(cfg.Mail, log), cfg.AppName, cfg.BaseURL, cfg.Auth.CallbackOrigins...)

	authSvc := authservice.New(st.users, creds, a.sessions, a.verifications, jwt, notifier,
		authservice.Config{
			AccessTokenTTL:                cfg.Auth.AccessTokenTTL,
			RevokeSessionsOnPasswordReset: cfg.Auth.RevokeSessionsOnPasswordReset,
			CallbackOrigins:               authmodels.NewCallbackOrigins(append([]string{cfg.BaseURL}, cfg.Auth.CallbackOrigins...)...),
		},
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditor),
		authservice.WithMetrics(m),
		authservice.WithRevocationList(trl),
		authservice.WithTxRunner(st.tx),
	)
	authzSvc := authzservice.New(st.roles, st.permissions, st.grants, st.users,
		authzservice.WithLogger(log),
		authzservice.WithAuditPublisher(auditor),
		authzservice.WithMetrics(m),
		authzservice.WithTxRunner(st.tx),
	)
	adminSvc := admin.NewService(st.users, a.sessions, auditor)

	requireAuth := authmw.RequireAuth(jwt, trl, log)
	optionalAuth := authmw.OptionalAuth(jwt, trl)
	adminGuard := adminmw.RequireAdminToken(cfg.AdminToken, log)
	auditGuard := chain(requireAuth, authzhandler.RequirePermission(authzSvc, "audit", authzmodels.ActionRead, log))

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		requesttime.Middleware,
		metadata.ClientMetadata,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.LatencyMiddleware(m),
		middleware.Timeout(requestTimeout),
		middleware.ContentTypeJSON,
	)
	r.Get("/healthz", healthHandler(db, redisClient))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	authhandler.New(authSvc, log, authhandler.CookieConfig{
		Name:   cfg.Auth.SessionCookieName,
		Secure: cfg.IsProduction(),
		MaxAge: cfg.Auth.SessionTTL,
	}).Register(r, requireAuth, optionalAuth)
	authzhandler.New(authzSvc, log).Register(r, adminGuard)
	admin.NewHandler(adminSvc, log).Register(r, adminGuard, auditGuard)

	a.router = r
	ok = true
	return a, nil
}

// revocationList picks the shared Redis list when configured, then Postgres,
// then the in-process list.
func revocationList(db *sql.DB, client *redis.Client, m *metrics.Metrics) revocationStore {
	switch {
	case client != nil:
		return revocation.NewRedisTRL(client.Client, revocation.WithLatencyObserver(m))
	case db != nil:
		return revocation.NewPostgresTRL(db)
	}
	return revocation.NewInMemoryTRL(nil)
}

type revocationStore interface {
	authservice.RevocationList
	authmw.RevocationChecker
	cleanup.RevocationCleaner
}

func chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

func healthHandler(db *sql.DB, client *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status["database"] = fmt.Sprintf("unavailable: %v", err)
				code = http.StatusServiceUnavailable
			}
		}
		if client != nil {
			if err := client.Health(ctx); err != nil {
				status["redis"] = fmt.Sprintf("unavailable: %v", err)
				code = http.StatusServiceUnavailable
			}
		}
		if code != http.StatusOK {
			status["status"] = "degraded"
		}
		httputil.WriteJSON(w, code, status)
	}
}
