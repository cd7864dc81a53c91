// Package handler exposes role, permission and user grant administration
// under /admin, plus a middleware that gates routes on a permission.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"portcullis/internal/authz/models"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/httputil"
	"portcullis/pkg/requestcontext"
)

type Service interface {
	ListRoles(ctx context.Context, page models.Page) (*models.RoleList, error)
	CreateRole(ctx context.Context, req *models.CreateRoleRequest) (*models.Role, error)
	GetRole(ctx context.Context, roleID id.RoleID) (*models.Role, error)
	UpdateRole(ctx context.Context, roleID id.RoleID, req *models.UpdateRoleRequest) (*models.Role, error)
	SoftDeleteRole(ctx context.Context, roleID id.RoleID) error
	HardDeleteRole(ctx context.Context, roleID id.RoleID) error
	ListRolePermissions(ctx context.Context, roleID id.RoleID) ([]*models.Permission, error)
	AssignRolePermission(ctx context.Context, roleID id.RoleID, req *models.RolePermissionRequest) error
	RemoveRolePermission(ctx context.Context, roleID id.RoleID, permissionID id.PermissionID) error

	CreatePermission(ctx context.Context, req *models.CreatePermissionRequest) (*models.Permission, error)
	GetPermission(ctx context.Context, permissionID id.PermissionID) (*models.Permission, error)
	ListPermissions(ctx context.Context) ([]*models.Permission, error)
	UpdatePermission(ctx context.Context, permissionID id.PermissionID, req *models.UpdatePermissionRequest) (*models.Permission, error)
	DeletePermission(ctx context.Context, permissionID id.PermissionID) error

	ListUserRoles(ctx context.Context, userID id.UserID) ([]*models.Role, error)
	AssignUserRole(ctx context.Context, userID id.UserID, req *models.UserRoleRequest) error
	RemoveUserRole(ctx context.Context, userID id.UserID, roleID id.RoleID) error
	SetOverride(ctx context.Context, userID id.UserID, req *models.SetOverrideRequest) (*models.UserPermission, error)
	RemoveOverride(ctx context.Context, userID id.UserID, permissionID id.PermissionID) error
	EffectivePermissions(ctx context.Context, userID id.UserID) ([]*models.Permission, error)
	Check(ctx context.Context, userID id.UserID, resource string, action models.Action) (bool, error)
}

type Handler struct {
	authz  Service
	logger *slog.Logger
}

func New(authz Service, logger *slog.Logger) *Handler {
	return &Handler{authz: authz, logger: logger}
}

// Register adds the administration routes to r behind guard.
func (h *Handler) Register(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(guard)

		r.Get("/admin/roles", h.HandleListRoles)
		r.Post("/admin/roles", h.HandleCreateRole)
		r.Get("/admin/roles/{roleID}", h.HandleGetRole)
		r.Patch("/admin/roles/{roleID}", h.HandleUpdateRole)
		r.Delete("/admin/roles/{roleID}", h.HandleSoftDeleteRole)
		r.Delete("/admin/roles/{roleID}/hard", h.HandleHardDeleteRole)
		r.Get("/admin/roles/{roleID}/permissions", h.HandleListRolePermissions)
		r.Post("/admin/roles/{roleID}/permissions", h.HandleAssignRolePermission)
		r.Delete("/admin/roles/{roleID}/permissions/{permissionID}", h.HandleRemoveRolePermission)

		r.Get("/admin/permissions", h.HandleListPermissions)
		r.Post("/admin/permissions", h.HandleCreatePermission)
		r.Get("/admin/permissions/{permissionID}", h.HandleGetPermission)
		r.Patch("/admin/permissions/{permissionID}", h.HandleUpdatePermission)
		r.Delete("/admin/permissions/{permissionID}", h.HandleDeletePermission)

		r.Get("/admin/users/{userID}/roles", h.HandleListUserRoles)
		r.Post("/admin/users/{userID}/roles", h.HandleAssignUserRole)
		r.Delete("/admin/users/{userID}/roles/{roleID}", h.HandleRemoveUserRole)
		r.Get("/admin/users/{userID}/permissions", h.HandleEffectivePermissions)
		r.Put("/admin/users/{userID}/permissions", h.HandleSetOverride)
		r.Delete("/admin/users/{userID}/permissions/{permissionID}", h.HandleRemoveOverride)
		r.Get("/admin/users/{userID}/check", h.HandleCheck)
	})
}

func (h *Handler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.fail(w, r, "invalid paging", err)
		return
	}
	list, err := h.authz.ListRoles(r.Context(), page)
	if err != nil {
		h.fail(w, r, "failed to list roles", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.authz.CreateRole(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "failed to create role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.ToRoleResponse(role))
}

func (h *Handler) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	role, err := h.authz.GetRole(r.Context(), roleID)
	if err != nil {
		h.fail(w, r, "failed to get role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToRoleResponse(role))
}

func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var req models.UpdateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.authz.UpdateRole(r.Context(), roleID, &req)
	if err != nil {
		h.fail(w, r, "failed to update role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToRoleResponse(role))
}

func (h *Handler) HandleSoftDeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	if err := h.authz.SoftDeleteRole(r.Context(), roleID); err != nil {
		h.fail(w, r, "failed to delete role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleHardDeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	if err := h.authz.HardDeleteRole(r.Context(), roleID); err != nil {
		h.fail(w, r, "failed to hard delete role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	perms, err := h.authz.ListRolePermissions(r.Context(), roleID)
	if err != nil {
		h.fail(w, r, "failed to list role permissions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.PermissionList{Permissions: models.ToPermissionResponses(perms)})
}

func (h *Handler) HandleAssignRolePermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var req models.RolePermissionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.authz.AssignRolePermission(r.Context(), roleID, &req); err != nil {
		h.fail(w, r, "failed to assign role permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveRolePermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	permissionID, ok := h.permissionID(w, r)
	if !ok {
		return
	}
	if err := h.authz.RemoveRolePermission(r.Context(), roleID, permissionID); err != nil {
		h.fail(w, r, "failed to remove role permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.authz.ListPermissions(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list permissions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.PermissionList{Permissions: models.ToPermissionResponses(perms)})
}

func (h *Handler) HandleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePermissionRequest
	if !h.decode(w, r, &req) {
		return
	}
	perm, err := h.authz.CreatePermission(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "failed to create permission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.ToPermissionResponse(perm))
}

func (h *Handler) HandleGetPermission(w http.ResponseWriter, r *http.Request) {
	permissionID, ok := h.permissionID(w, r)
	if !ok {
		return
	}
	perm, err := h.authz.GetPermission(r.Context(), permissionID)
	if err != nil {
		h.fail(w, r, "failed to get permission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToPermissionResponse(perm))
}

func (h *Handler) HandleUpdatePermission(w http.ResponseWriter, r *http.Request) {
	permissionID, ok := h.permissionID(w, r)
	if !ok {
		return
	}
	var req models.UpdatePermissionRequest
	if !h.decode(w, r, &req) {
		return
	}
	perm, err := h.authz.UpdatePermission(r.Context(), permissionID, &req)
	if err != nil {
		h.fail(w, r, "failed to update permission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToPermissionResponse(perm))
}

func (h *Handler) HandleDeletePermission(w http.ResponseWriter, r *http.Request) {
	permissionID, ok := h.permissionID(w, r)
	if !ok {
		return
	}
	if err := h.authz.DeletePermission(r.Context(), permissionID); err != nil {
		h.fail(w, r, "failed to delete permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListUserRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	roles, err := h.authz.ListUserRoles(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to list user roles", err)
		return
	}
	out := make([]models.RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, models.ToRoleResponse(role))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) HandleAssignUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.UserRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.authz.AssignUserRole(r.Context(), userID, &req); err != nil {
		h.fail(w, r, "failed to assign user role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	if err := h.authz.RemoveUserRole(r.Context(), userID, roleID); err != nil {
		h.fail(w, r, "failed to remove user role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleEffectivePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	perms, err := h.authz.EffectivePermissions(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to resolve permissions", err)
		return
	}
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name())
	}
	httputil.WriteJSON(w, http.StatusOK, models.EffectivePermissions{UserID: userID, Permissions: names})
}

func (h *Handler) HandleSetOverride(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.SetOverrideRequest
	if !h.decode(w, r, &req) {
		return
	}
	up, err := h.authz.SetOverride(r.Context(), userID, &req)
	if err != nil {
		h.fail(w, r, "failed to set override", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.OverrideResponse{PermissionID: up.PermissionID, GrantType: up.GrantType})
}

func (h *Handler) HandleRemoveOverride(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	permissionID, ok := h.permissionID(w, r)
	if !ok {
		return
	}
	if err := h.authz.RemoveOverride(r.Context(), userID, permissionID); err != nil {
		h.fail(w, r, "failed to remove override", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCheck answers GET /admin/users/{userID}/check?resource=&action=.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	allowed, err := h.authz.Check(r.Context(), userID, q.Get("resource"), models.Action(q.Get("action")))
	if err != nil {
		h.fail(w, r, "permission check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.CheckResponse{Allowed: allowed})
}

func pageFromQuery(r *http.Request) (models.Page, error) {
	var page models.Page
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &page.Limit, "offset": &page.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, dErrors.New(dErrors.CodeInvalidInput, name+" must be a non-negative integer")
		}
		*dst = n
	}
	return page, nil
}

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (id.RoleID, bool) {
	roleID, err := id.ParseRoleID(chi.URLParam(r, "roleID"))
	if err != nil {
		h.fail(w, r, "invalid role id", err)
		return id.RoleID{}, false
	}
	return roleID, true
}

func (h *Handler) permissionID(w http.ResponseWriter, r *http.Request) (id.PermissionID, bool) {
	permissionID, err := id.ParsePermissionID(chi.URLParam(r, "permissionID"))
	if err != nil {
		h.fail(w, r, "invalid permission id", err)
		return id.PermissionID{}, false
	}
	return permissionID, true
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "invalid user id", err)
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		ctx := r.Context()
		h.logger.WarnContext(ctx, "invalid request body",
			"request_id", requestcontext.RequestID(ctx),
			"path", r.URL.Path,
			"error", err,
		)
		httputil.WriteError(w, err)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
