package models

import (
	"time"

	id "portcullis/pkg/domain"
)

type RoleResponse struct {
	ID          id.RoleID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func ToRoleResponse(r *Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		DeletedAt:   r.DeletedAt,
	}
}

type RoleList struct {
	Roles  []RoleResponse `json:"roles"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type PermissionResponse struct {
	ID          id.PermissionID `json:"id"`
	Name        string          `json:"name"`
	Resource    string          `json:"resource"`
	Action      Action          `json:"action"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

func ToPermissionResponse(p *Permission) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID,
		Name:        p.Name(),
		Resource:    p.Resource,
		Action:      p.Action,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func ToPermissionResponses(perms []*Permission) []PermissionResponse {
	out := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, ToPermissionResponse(p))
	}
	return out
}

type PermissionList struct {
	Permissions []PermissionResponse `json:"permissions"`
}

type OverrideResponse struct {
	PermissionID id.PermissionID `json:"permission_id"`
	GrantType    GrantType       `json:"grant_type"`
}

type EffectivePermissions struct {
	UserID      id.UserID `json:"user_id"`
	Permissions []string  `json:"permissions"`
}

type CheckResponse struct {
	Allowed bool `json:"allowed"`
}
