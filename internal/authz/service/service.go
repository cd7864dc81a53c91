// Package service administers roles, permissions and per-user overrides, and
// answers "may this user do that" from the resulting graph.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	authmodels "portcullis/internal/auth/models"
	"portcullis/internal/authz/models"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/audit"
	txcontext "portcullis/pkg/platform/tx"
	"portcullis/pkg/requestcontext"
)

type RoleStore interface {
	Create(ctx context.Context, role *models.Role) error
	FindByID(ctx context.Context, roleID id.RoleID) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context, page models.Page) ([]*models.Role, int, error)
	ListByIDs(ctx context.Context, roleIDs []id.RoleID) ([]*models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, roleID id.RoleID) error
}

type PermissionStore interface {
	Create(ctx context.Context, p *models.Permission) error
	FindByID(ctx context.Context, permissionID id.PermissionID) (*models.Permission, error)
	List(ctx context.Context) ([]*models.Permission, error)
	ListByIDs(ctx context.Context, permissionIDs []id.PermissionID) ([]*models.Permission, error)
	UpdateDescription(ctx context.Context, permissionID id.PermissionID, description string) error
	Delete(ctx context.Context, permissionID id.PermissionID) error
}

// GrantStore holds the association tables between users, roles and permissions.
type GrantStore interface {
	AddRolePermission(ctx context.Context, roleID id.RoleID, permissionID id.PermissionID) error
	RemoveRolePermission(ctx context.Context, roleID id.RoleID, permissionID id.PermissionID) error
	ListRolePermissions(ctx context.Context, roleIDs []id.RoleID) ([]id.PermissionID, error)
	AssignUserRole(ctx context.Context, userID id.UserID, roleID id.RoleID) error
	RemoveUserRole(ctx context.Context, userID id.UserID, roleID id.RoleID) error
	ListUserRoles(ctx context.Context, userID id.UserID) ([]id.RoleID, error)
	UpsertUserPermission(ctx context.Context, up *models.UserPermission) error
	DeleteUserPermission(ctx context.Context, userID id.UserID, permissionID id.PermissionID) error
	ListUserPermissions(ctx context.Context, userID id.UserID) ([]*models.UserPermission, error)
	PurgeRole(ctx context.Context, roleID id.RoleID) error
	PurgePermission(ctx context.Context, permissionID id.PermissionID) error
}

type UserStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*authmodels.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Metrics interface {
	ObserveAuthzCheck(allowed bool)
}

type Service struct {
	roles       RoleStore
	permissions PermissionStore
	grants      GrantStore
	users       UserStore
	tx          txcontext.Runner

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

func WithTxRunner(tx txcontext.Runner) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

func New(roles RoleStore, permissions PermissionStore, grants GrantStore, users UserStore, opts ...Option) *Service {
	s := &Service{
		roles:       roles,
		permissions: permissions,
		grants:      grants,
		users:       users,
		tx:          txcontext.NewMemoryRunner(),
		logger:      slog.Default(),
		tracer:      otel.Tracer("portcullis/authz"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "authz."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
