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
	ErrPermissionExists        = dErrors.New(dErrors.CodeConflict, "Permission already exists")
	ErrPermissionNotFound      = dErrors.New(dErrors.CodeNotFound, "Permission not found")
	ErrPermissionAlreadyOnRole = dErrors.New(dErrors.CodeConflict, "Permission already assigned to role")
	ErrPermissionNotOnRole     = dErrors.New(dErrors.CodeNotFound, "Permission not assigned to role")
)

func (s *Service) CreatePermission(ctx context.Context, req *models.CreatePermissionRequest) (perm *models.Permission, err error) {
	ctx, span := s.startSpan(ctx, "CreatePermission")
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	perm = &models.Permission{
		ID:          id.NewPermissionID(),
		Resource:    req.Resource,
		Action:      req.Action,
		Description: req.Description,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.permissions.Create(ctx, perm); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, ErrPermissionExists
		}
		return nil, dErrors.FromStore(err, "failed to create permission")
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventPermissionCreated),
		Subject: perm.ID.String(),
		Reason:  perm.Name(),
	})
	return perm, nil
}

func (s *Service) GetPermission(ctx context.Context, permissionID id.PermissionID) (perm *models.Permission, err error) {
	ctx, span := s.startSpan(ctx, "GetPermission")
	defer func() { endSpan(span, err) }()
	return s.permission(ctx, permissionID)
}

func (s *Service) ListPermissions(ctx context.Context) (perms []*models.Permission, err error) {
	ctx, span := s.startSpan(ctx, "ListPermissions")
	defer func() { endSpan(span, err) }()

	perms, err = s.permissions.List(ctx)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list permissions")
	}
	return perms, nil
}

// UpdatePermission only changes the description; resource and action are the
// permission's identity.
func (s *Service) UpdatePermission(ctx context.Context, permissionID id.PermissionID, req *models.UpdatePermissionRequest) (perm *models.Permission, err error) {
	ctx, span := s.startSpan(ctx, "UpdatePermission")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.permissions.UpdateDescription(ctx, permissionID, req.Description); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, dErrors.FromStore(err, "failed to update permission")
	}
	return s.permission(ctx, permissionID)
}

func (s *Service) DeletePermission(ctx context.Context, permissionID id.PermissionID) (err error) {
	ctx, span := s.startSpan(ctx, "DeletePermission")
	defer func() { endSpan(span, err) }()

	var name string
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		perm, err := s.permission(ctx, permissionID)
		if err != nil {
			return err
		}
		name = perm.Name()
		if err := s.grants.PurgePermission(ctx, permissionID); err != nil {
			return dErrors.FromStore(err, "failed to detach permission")
		}
		if err := s.permissions.Delete(ctx, permissionID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return ErrPermissionNotFound
			}
			return dErrors.FromStore(err, "failed to delete permission")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventPermissionDeleted),
		Subject: permissionID.String(),
		Reason:  name,
	})
	return nil
}

func (s *Service) permission(ctx context.Context, permissionID id.PermissionID) (*models.Permission, error) {
	perm, err := s.permissions.FindByID(ctx, permissionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, dErrors.FromStore(err, "failed to load permission")
	}
	return perm, nil
}
