package service

import (
	"context"
	"errors"

	"portcullis/internal/authz/models"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/audit"
	"portcullis/pkg/platform/sentinel"
	"portcullis/pkg/requestcontext"
)

var (
	ErrUserNotFound         = dErrors.New(dErrors.CodeNotFound, "User not found")
	ErrRoleAlreadyAssigned  = dErrors.New(dErrors.CodeConflict, "Role already assigned to user")
	ErrRoleNotAssigned      = dErrors.New(dErrors.CodeNotFound, "Role not assigned to user")
	ErrOverrideNotFound     = dErrors.New(dErrors.CodeNotFound, "Permission override not found")
	ErrInvalidPermissionArg = dErrors.New(dErrors.CodeValidation, "resource and action are required")
)

// ListUserRoles returns the user's roles that have not been soft-deleted.
func (s *Service) ListUserRoles(ctx context.Context, userID id.UserID) (roles []*models.Role, err error) {
	ctx, span := s.startSpan(ctx, "ListUserRoles")
	defer func() { endSpan(span, err) }()

	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	roleIDs, err := s.grants.ListUserRoles(ctx, userID)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list user roles")
	}
	return s.rolesByID(ctx, roleIDs, func(r *models.Role) bool { return !r.IsDeleted() })
}

func (s *Service) AssignUserRole(ctx context.Context, userID id.UserID, req *models.UserRoleRequest) (err error) {
	ctx, span := s.startSpan(ctx, "AssignUserRole")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	role, err := s.liveRole(ctx, req.RoleID)
	if err != nil {
		return err
	}
	if err := s.grants.AssignUserRole(ctx, userID, role.ID); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return ErrRoleAlreadyAssigned
		}
		return dErrors.FromStore(err, "failed to assign role")
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventUserRoleAssigned),
		UserID:  userID,
		Subject: role.ID.String(),
		Reason:  role.Name,
	})
	return nil
}

func (s *Service) RemoveUserRole(ctx context.Context, userID id.UserID, roleID id.RoleID) (err error) {
	ctx, span := s.startSpan(ctx, "RemoveUserRole")
	defer func() { endSpan(span, err) }()

	if err := s.grants.RemoveUserRole(ctx, userID, roleID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrRoleNotAssigned
		}
		return dErrors.FromStore(err, "failed to remove role")
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventUserRoleRemoved),
		UserID:  userID,
		Subject: roleID.String(),
	})
	return nil
}

// SetOverride records a grant, deny or inherit for one permission. Setting it
// again replaces the grant type.
func (s *Service) SetOverride(ctx context.Context, userID id.UserID, req *models.SetOverrideRequest) (up *models.UserPermission, err error) {
	ctx, span := s.startSpan(ctx, "SetOverride")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	perm, err := s.permission(ctx, req.PermissionID)
	if err != nil {
		return nil, err
	}

	up = &models.UserPermission{
		ID:           id.NewUserPermissionID(),
		UserID:       userID,
		PermissionID: perm.ID,
		GrantType:    req.GrantType,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.grants.UpsertUserPermission(ctx, up); err != nil {
		return nil, dErrors.FromStore(err, "failed to set override")
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventUserOverrideSet),
		UserID:  userID,
		Subject: perm.Name(),
		Reason:  string(up.GrantType),
	})
	return up, nil
}

func (s *Service) RemoveOverride(ctx context.Context, userID id.UserID, permissionID id.PermissionID) (err error) {
	ctx, span := s.startSpan(ctx, "RemoveOverride")
	defer func() { endSpan(span, err) }()

	if err := s.grants.DeleteUserPermission(ctx, userID, permissionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrOverrideNotFound
		}
		return dErrors.FromStore(err, "failed to remove override")
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventUserOverrideClear),
		UserID:  userID,
		Subject: permissionID.String(),
	})
	return nil
}

// EffectivePermissions resolves what the user may do right now.
func (s *Service) EffectivePermissions(ctx context.Context, userID id.UserID) (perms []*models.Permission, err error) {
	ctx, span := s.startSpan(ctx, "EffectivePermissions")
	defer func() { endSpan(span, err) }()

	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.resolve(ctx, userID)
}

// Check reports whether userID holds "{action}:{resource}". Unknown users hold
// nothing.
func (s *Service) Check(ctx context.Context, userID id.UserID, resource string, action models.Action) (allowed bool, err error) {
	ctx, span := s.startSpan(ctx, "Check")
	defer func() { endSpan(span, err) }()

	if resource == "" || !action.IsValid() {
		return false, ErrInvalidPermissionArg
	}
	perms, err := s.resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	want := models.PermissionName(resource, action)
	for _, p := range perms {
		if p.Name() == want {
			allowed = true
			break
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveAuthzCheck(allowed)
	}
	return allowed, nil
}

func (s *Service) resolve(ctx context.Context, userID id.UserID) ([]*models.Permission, error) {
	roleIDs, err := s.grants.ListUserRoles(ctx, userID)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list user roles")
	}
	roles, err := s.rolesByID(ctx, roleIDs, (*models.Role).Confers)
	if err != nil {
		return nil, err
	}

	var fromRoles []id.PermissionID
	if len(roles) > 0 {
		active := make([]id.RoleID, 0, len(roles))
		for _, r := range roles {
			active = append(active, r.ID)
		}
		fromRoles, err = s.grants.ListRolePermissions(ctx, active)
		if err != nil {
			return nil, dErrors.FromStore(err, "failed to list role permissions")
		}
	}

	overrides, err := s.grants.ListUserPermissions(ctx, userID)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list overrides")
	}

	referenced := append([]id.PermissionID{}, fromRoles...)
	for _, o := range overrides {
		referenced = append(referenced, o.PermissionID)
	}
	if len(referenced) == 0 {
		return []*models.Permission{}, nil
	}
	loaded, err := s.permissions.ListByIDs(ctx, referenced)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to load permissions")
	}
	byID := make(map[id.PermissionID]*models.Permission, len(loaded))
	for _, p := range loaded {
		byID[p.ID] = p
	}
	return models.Resolve(fromRoles, overrides, byID), nil
}

func (s *Service) rolesByID(ctx context.Context, roleIDs []id.RoleID, keep func(*models.Role) bool) ([]*models.Role, error) {
	if len(roleIDs) == 0 {
		return []*models.Role{}, nil
	}
	all, err := s.roles.ListByIDs(ctx, roleIDs)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to load roles")
	}
	out := make([]*models.Role, 0, len(all))
	for _, r := range all {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) ensureUser(ctx context.Context, userID id.UserID) error {
	if s.users == nil {
		return nil
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrUserNotFound
		}
		return dErrors.FromStore(err, "failed to load user")
	}
	return nil
}
