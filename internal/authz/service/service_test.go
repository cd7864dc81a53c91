package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AuditPublisher,Metrics

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	authmodels "portcullis/internal/auth/models"
	"portcullis/internal/auth/store/user"
	"portcullis/internal/authz/models"
	"portcullis/internal/authz/service/mocks"
	"portcullis/internal/authz/store/grant"
	"portcullis/internal/authz/store/permission"
	"portcullis/internal/authz/store/role"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/audit"
	"portcullis/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	ctrl    *gomock.Controller
	auditor *mocks.MockAuditPublisher
	metrics *mocks.MockMetrics
	users   *user.InMemoryUserStore
	service *Service
	events  []audit.Event
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.ctrl = gomock.NewController(s.T())
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = mocks.NewMockMetrics(s.ctrl)
	s.events = nil
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event audit.Event) error {
			s.events = append(s.events, event)
			return nil
		}).AnyTimes()

	s.users = user.New()
	s.service = New(role.New(), permission.New(), grant.New(), s.users,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditor),
		WithMetrics(s.metrics),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) lastAction() string {
	s.Require().NotEmpty(s.events)
	return s.events[len(s.events)-1].Action
}

func (s *ServiceSuite) newUser() id.UserID {
	u := &authmodels.User{ID: id.NewUserID(), Email: id.NewUserID().String() + "@example.com"}
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u.ID
}

func (s *ServiceSuite) newRole(name string) *models.Role {
	r, err := s.service.CreateRole(s.ctx, &models.CreateRoleRequest{Name: name})
	s.Require().NoError(err)
	return r
}

func (s *ServiceSuite) newPermission(resource string, action models.Action) *models.Permission {
	p, err := s.service.CreatePermission(s.ctx, &models.CreatePermissionRequest{Resource: resource, Action: action})
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) effective(userID id.UserID) []string {
	perms, err := s.service.EffectivePermissions(s.ctx, userID)
	s.Require().NoError(err)
	names := []string{}
	for _, p := range perms {
		names = append(names, p.Name())
	}
	return names
}

func (s *ServiceSuite) TestRoleLifecycle() {
	r := s.newRole(" editors ")
	s.Equal("editors", r.Name)
	s.True(r.IsActive)
	s.Equal(string(audit.EventRoleCreated), s.lastAction())

	s.Run("duplicate name", func() {
		_, err := s.service.CreateRole(s.ctx, &models.CreateRoleRequest{Name: "editors"})
		s.ErrorIs(err, ErrRoleNameTaken)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("update requires a field", func() {
		_, err := s.service.UpdateRole(s.ctx, r.ID, &models.UpdateRoleRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rename onto an existing name", func() {
		s.newRole("viewers")
		name := "viewers"
		_, err := s.service.UpdateRole(s.ctx, r.ID, &models.UpdateRoleRequest{Name: &name})
		s.ErrorIs(err, ErrRoleNameTaken)
	})

	s.Run("deactivate", func() {
		inactive := false
		updated, err := s.service.UpdateRole(s.ctx, r.ID, &models.UpdateRoleRequest{IsActive: &inactive})
		s.Require().NoError(err)
		s.False(updated.IsActive)
		s.Equal("editors", updated.Name)
	})

	s.Run("soft delete hides the role", func() {
		s.Require().NoError(s.service.SoftDeleteRole(s.ctx, r.ID))
		s.ErrorIs(s.service.SoftDeleteRole(s.ctx, r.ID), ErrRoleAlreadyDeleted)

		_, err := s.service.GetRole(s.ctx, r.ID)
		s.ErrorIs(err, ErrRoleNotFound)

		list, err := s.service.ListRoles(s.ctx, models.Page{})
		s.Require().NoError(err)
		s.Equal(1, list.Total)
		s.Equal(models.DefaultPageSize, list.Limit)
	})

	s.Run("hard delete accepts soft-deleted roles", func() {
		s.Require().NoError(s.service.HardDeleteRole(s.ctx, r.ID))
		s.Equal(string(audit.EventRoleDeleted), s.lastAction())
		s.ErrorIs(s.service.HardDeleteRole(s.ctx, r.ID), ErrRoleNotFound)
	})
}

func (s *ServiceSuite) TestListRolesPaging() {
	for _, name := range []string{"a", "b", "c"} {
		s.newRole(name)
	}
	list, err := s.service.ListRoles(s.ctx, models.Page{Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Equal(3, list.Total)
	s.Require().Len(list.Roles, 2)
	s.Equal("b", list.Roles[0].Name)
	s.Equal("c", list.Roles[1].Name)
}

func (s *ServiceSuite) TestPermissions() {
	p := s.newPermission("Reports", models.ActionRead)
	s.Equal("read:reports", p.Name())

	s.Run("duplicate is a conflict", func() {
		_, err := s.service.CreatePermission(s.ctx, &models.CreatePermissionRequest{Resource: "reports", Action: models.ActionRead})
		s.ErrorIs(err, ErrPermissionExists)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("invalid action", func() {
		_, err := s.service.CreatePermission(s.ctx, &models.CreatePermissionRequest{Resource: "reports", Action: "approve"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("update description", func() {
		updated, err := s.service.UpdatePermission(s.ctx, p.ID, &models.UpdatePermissionRequest{Description: "view reports"})
		s.Require().NoError(err)
		s.Equal("view reports", updated.Description)

		_, err = s.service.UpdatePermission(s.ctx, id.NewPermissionID(), &models.UpdatePermissionRequest{})
		s.ErrorIs(err, ErrPermissionNotFound)
	})

	s.Run("delete detaches from roles", func() {
		r := s.newRole("readers")
		s.Require().NoError(s.service.AssignRolePermission(s.ctx, r.ID, &models.RolePermissionRequest{PermissionID: p.ID}))
		s.Require().NoError(s.service.DeletePermission(s.ctx, p.ID))

		perms, err := s.service.ListRolePermissions(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Empty(perms)
		_, err = s.service.GetPermission(s.ctx, p.ID)
		s.ErrorIs(err, ErrPermissionNotFound)
	})
}

func (s *ServiceSuite) TestRolePermissions() {
	r := s.newRole("auditors")
	p := s.newPermission("ledger", models.ActionRead)

	s.Require().NoError(s.service.AssignRolePermission(s.ctx, r.ID, &models.RolePermissionRequest{PermissionID: p.ID}))
	s.ErrorIs(s.service.AssignRolePermission(s.ctx, r.ID, &models.RolePermissionRequest{PermissionID: p.ID}), ErrPermissionAlreadyOnRole)
	s.ErrorIs(s.service.AssignRolePermission(s.ctx, r.ID, &models.RolePermissionRequest{PermissionID: id.NewPermissionID()}), ErrPermissionNotFound)
	s.ErrorIs(s.service.AssignRolePermission(s.ctx, id.NewRoleID(), &models.RolePermissionRequest{PermissionID: p.ID}), ErrRoleNotFound)

	perms, err := s.service.ListRolePermissions(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().Len(perms, 1)
	s.Equal("read:ledger", perms[0].Name())

	s.Require().NoError(s.service.RemoveRolePermission(s.ctx, r.ID, p.ID))
	s.ErrorIs(s.service.RemoveRolePermission(s.ctx, r.ID, p.ID), ErrPermissionNotOnRole)
}

func (s *ServiceSuite) TestUserRoles() {
	userID := s.newUser()
	r := s.newRole("support")

	s.ErrorIs(s.service.AssignUserRole(s.ctx, id.NewUserID(), &models.UserRoleRequest{RoleID: r.ID}), ErrUserNotFound)
	s.Require().NoError(s.service.AssignUserRole(s.ctx, userID, &models.UserRoleRequest{RoleID: r.ID}))
	s.Equal(string(audit.EventUserRoleAssigned), s.lastAction())
	s.ErrorIs(s.service.AssignUserRole(s.ctx, userID, &models.UserRoleRequest{RoleID: r.ID}), ErrRoleAlreadyAssigned)

	roles, err := s.service.ListUserRoles(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(roles, 1)
	s.Equal(r.ID, roles[0].ID)

	s.Require().NoError(s.service.RemoveUserRole(s.ctx, userID, r.ID))
	s.ErrorIs(s.service.RemoveUserRole(s.ctx, userID, r.ID), ErrRoleNotAssigned)
}

func (s *ServiceSuite) TestEffectivePermissions() {
	userID := s.newUser()
	editors := s.newRole("editors")
	archivists := s.newRole("archivists")
	read := s.newPermission("docs", models.ActionRead)
	write := s.newPermission("docs", models.ActionWrite)
	purge := s.newPermission("archive", models.ActionDelete)
	billing := s.newPermission("billing", models.ActionRead)

	for _, p := range []*models.Permission{read, write} {
		s.Require().NoError(s.service.AssignRolePermission(s.ctx, editors.ID, &models.RolePermissionRequest{PermissionID: p.ID}))
	}
	s.Require().NoError(s.service.AssignRolePermission(s.ctx, archivists.ID, &models.RolePermissionRequest{PermissionID: purge.ID}))
	s.Require().NoError(s.service.AssignUserRole(s.ctx, userID, &models.UserRoleRequest{RoleID: editors.ID}))
	s.Require().NoError(s.service.AssignUserRole(s.ctx, userID, &models.UserRoleRequest{RoleID: archivists.ID}))

	s.Equal([]string{"delete:archive", "read:docs", "write:docs"}, s.effective(userID))

	s.Run("inactive roles confer nothing", func() {
		inactive := false
		_, err := s.service.UpdateRole(s.ctx, archivists.ID, &models.UpdateRoleRequest{IsActive: &inactive})
		s.Require().NoError(err)
		s.Equal([]string{"read:docs", "write:docs"}, s.effective(userID))
	})

	s.Run("deny removes and grant adds", func() {
		_, err := s.service.SetOverride(s.ctx, userID, &models.SetOverrideRequest{PermissionID: write.ID, GrantType: models.GrantTypeDeny})
		s.Require().NoError(err)
		_, err = s.service.SetOverride(s.ctx, userID, &models.SetOverrideRequest{PermissionID: billing.ID, GrantType: models.GrantTypeGrant})
		s.Require().NoError(err)
		s.Equal([]string{"read:billing", "read:docs"}, s.effective(userID))
	})

	s.Run("inherit defers to roles", func() {
		_, err := s.service.SetOverride(s.ctx, userID, &models.SetOverrideRequest{PermissionID: write.ID, GrantType: models.GrantTypeInherit})
		s.Require().NoError(err)
		s.Equal([]string{"read:billing", "read:docs", "write:docs"}, s.effective(userID))
	})

	s.Run("soft-deleted roles confer nothing", func() {
		s.Require().NoError(s.service.SoftDeleteRole(s.ctx, editors.ID))
		s.Equal([]string{"read:billing"}, s.effective(userID))
	})

	s.Run("remove override", func() {
		s.Require().NoError(s.service.RemoveOverride(s.ctx, userID, billing.ID))
		s.ErrorIs(s.service.RemoveOverride(s.ctx, userID, billing.ID), ErrOverrideNotFound)
		s.Empty(s.effective(userID))
	})

	s.Run("unknown user", func() {
		_, err := s.service.EffectivePermissions(s.ctx, id.NewUserID())
		s.ErrorIs(err, ErrUserNotFound)
	})
}

func (s *ServiceSuite) TestCheck() {
	userID := s.newUser()
	p := s.newPermission("reports", models.ActionRead)
	_, err := s.service.SetOverride(s.ctx, userID, &models.SetOverrideRequest{PermissionID: p.ID, GrantType: models.GrantTypeGrant})
	s.Require().NoError(err)

	s.metrics.EXPECT().ObserveAuthzCheck(true)
	allowed, err := s.service.Check(s.ctx, userID, "reports", models.ActionRead)
	s.Require().NoError(err)
	s.True(allowed)

	s.metrics.EXPECT().ObserveAuthzCheck(false)
	allowed, err = s.service.Check(s.ctx, userID, "reports", models.ActionDelete)
	s.Require().NoError(err)
	s.False(allowed)

	_, err = s.service.Check(s.ctx, userID, "", models.ActionRead)
	s.ErrorIs(err, ErrInvalidPermissionArg)
}
