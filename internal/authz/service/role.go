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
	ErrRoleNameTaken      = dErrors.New(dErrors.CodeValidation, "Role with this name already exists")
	ErrRoleNotFound       = dErrors.New(dErrors.CodeNotFound, "Role not found")
	ErrRoleAlreadyDeleted = dErrors.New(dErrors.CodeValidation, "Role is already soft deleted")
)

func (s *Service) ListRoles(ctx context.Context, page models.Page) (list *models.RoleList, err error) {
	ctx, span := s.startSpan(ctx, "ListRoles")
	defer func() { endSpan(span, err) }()

	page = page.Normalize()
	roles, total, err := s.roles.List(ctx, page)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list roles")
	}
	list = &models.RoleList{
		Roles:  make([]models.RoleResponse, 0, len(roles)),
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, r := range roles {
		list.Roles = append(list.Roles, models.ToRoleResponse(r))
	}
	return list, nil
}

// CreateRole checks the name up front and again through the store's unique
// key, so a concurrent duplicate reports the same error.
func (s *Service) CreateRole(ctx context.Context, req *models.CreateRoleRequest) (role *models.Role, err error) {
	ctx, span := s.startSpan(ctx, "CreateRole")
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, req.Name, id.RoleID{}); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	role = &models.Role{
		ID:          id.NewRoleID(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, ErrRoleNameTaken
		}
		return nil, dErrors.FromStore(err, "failed to create role")
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventRoleCreated),
		Subject: role.ID.String(),
		Reason:  role.Name,
	})
	return role, nil
}

// GetRole treats soft-deleted roles as absent.
func (s *Service) GetRole(ctx context.Context, roleID id.RoleID) (role *models.Role, err error) {
	ctx, span := s.startSpan(ctx, "GetRole")
	defer func() { endSpan(span, err) }()
	return s.liveRole(ctx, roleID)
}

func (s *Service) UpdateRole(ctx context.Context, roleID id.RoleID, req *models.UpdateRoleRequest) (role *models.Role, err error) {
	ctx, span := s.startSpan(ctx, "UpdateRole")
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	role, err = s.liveRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != role.Name {
		if err := s.ensureNameFree(ctx, *req.Name, role.ID); err != nil {
			return nil, err
		}
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}
	role.UpdatedAt = requestcontext.Now(ctx)

	if err := s.roles.Update(ctx, role); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, ErrRoleNameTaken
		}
		return nil, dErrors.FromStore(err, "failed to update role")
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventRoleUpdated),
		Subject: role.ID.String(),
		Reason:  role.Name,
	})
	return role, nil
}

// SoftDeleteRole stamps deleted_at; the role keeps its associations but stops
// conferring permissions.
func (s *Service) SoftDeleteRole(ctx context.Context, roleID id.RoleID) (err error) {
	ctx, span := s.startSpan(ctx, "SoftDeleteRole")
	defer func() { endSpan(span, err) }()

	role, err := s.anyRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsDeleted() {
		return ErrRoleAlreadyDeleted
	}

	now := requestcontext.Now(ctx)
	role.DeletedAt = &now
	role.UpdatedAt = now
	if err := s.roles.Update(ctx, role); err != nil {
		return dErrors.FromStore(err, "failed to delete role")
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventRoleSoftDeleted),
		Subject: role.ID.String(),
		Reason:  role.Name,
	})
	return nil
}

// HardDeleteRole removes the role and everything that references it. It
// accepts soft-deleted roles.
func (s *Service) HardDeleteRole(ctx context.Context, roleID id.RoleID) (err error) {
	ctx, span := s.startSpan(ctx, "HardDeleteRole")
	defer func() { endSpan(span, err) }()

	var name string
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		role, err := s.anyRole(ctx, roleID)
		if err != nil {
			return err
		}
		name = role.Name
		if err := s.grants.PurgeRole(ctx, roleID); err != nil {
			return dErrors.FromStore(err, "failed to detach role")
		}
		if err := s.roles.Delete(ctx, roleID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return ErrRoleNotFound
			}
			return dErrors.FromStore(err, "failed to delete role")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventRoleDeleted),
		Subject: roleID.String(),
		Reason:  name,
	})
	return nil
}

func (s *Service) ListRolePermissions(ctx context.Context, roleID id.RoleID) (perms []*models.Permission, err error) {
	ctx, span := s.startSpan(ctx, "ListRolePermissions")
	defer func() { endSpan(span, err) }()

	if _, err := s.liveRole(ctx, roleID); err != nil {
		return nil, err
	}
	ids, err := s.grants.ListRolePermissions(ctx, []id.RoleID{roleID})
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list role permissions")
	}
	if len(ids) == 0 {
		return []*models.Permission{}, nil
	}
	perms, err = s.permissions.ListByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to load permissions")
	}
	return perms, nil
}

func (s *Service) AssignRolePermission(ctx context.Context, roleID id.RoleID, req *models.RolePermissionRequest) (err error) {
	ctx, span := s.startSpan(ctx, "AssignRolePermission")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := s.liveRole(ctx, roleID); err != nil {
		return err
	}
	perm, err := s.permission(ctx, req.PermissionID)
	if err != nil {
		return err
	}
	if err := s.grants.AddRolePermission(ctx, roleID, perm.ID); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return ErrPermissionAlreadyOnRole
		}
		return dErrors.FromStore(err, "failed to assign permission")
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventRolePermissionSet),
		Subject: roleID.String(),
		Reason:  perm.Name(),
	})
	return nil
}

func (s *Service) RemoveRolePermission(ctx context.Context, roleID id.RoleID, permissionID id.PermissionID) (err error) {
	ctx, span := s.startSpan(ctx, "RemoveRolePermission")
	defer func() { endSpan(span, err) }()

	if _, err := s.liveRole(ctx, roleID); err != nil {
		return err
	}
	if err := s.grants.RemoveRolePermission(ctx, roleID, permissionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrPermissionNotOnRole
		}
		return dErrors.FromStore(err, "failed to remove permission")
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventRolePermissionDrop),
		Subject: roleID.String(),
		Reason:  permissionID.String(),
	})
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string, self id.RoleID) error {
	existing, err := s.roles.FindByName(ctx, name)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.FromStore(err, "failed to check role name")
	case existing.ID != self:
		return ErrRoleNameTaken
	}
	return nil
}

// anyRole loads a role including soft-deleted ones.
func (s *Service) anyRole(ctx context.Context, roleID id.RoleID) (*models.Role, error) {
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, dErrors.FromStore(err, "failed to load role")
	}
	return role, nil
}

func (s *Service) liveRole(ctx context.Context, roleID id.RoleID) (*models.Role, error) {
	role, err := s.anyRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsDeleted() {
		return nil, ErrRoleNotFound
	}
	return role, nil
}
