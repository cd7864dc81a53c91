// Package models holds the role and permission graph and the effective
// permission resolution over it.
package models

import (
	"sort"
	"time"

	id "portcullis/pkg/domain"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionRead, ActionWrite, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// GrantType is a per-user override layered on top of role permissions.
type GrantType string

const (
	GrantTypeGrant   GrantType = "grant"
	GrantTypeDeny    GrantType = "deny"
	GrantTypeInherit GrantType = "inherit"
)

func (g GrantType) IsValid() bool {
	switch g {
	case GrantTypeGrant, GrantTypeDeny, GrantTypeInherit:
		return true
	}
	return false
}

// Role is a named bundle of permissions. A soft-deleted role keeps its row but
// is treated as absent everywhere except hard delete.
type Role struct {
	ID          id.RoleID
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

func (r *Role) IsDeleted() bool { return r.DeletedAt != nil }

// Confers reports whether the role contributes permissions to its members.
func (r *Role) Confers() bool { return r.IsActive && !r.IsDeleted() }

type Permission struct {
	ID          id.PermissionID
	Resource    string
	Action      Action
	Description string
	CreatedAt   time.Time
}

// Name is the canonical "{action}:{resource}" form.
func (p *Permission) Name() string {
	return PermissionName(p.Resource, p.Action)
}

func PermissionName(resource string, action Action) string {
	return string(action) + ":" + resource
}

// UserPermission overrides what a user's roles say about one permission.
type UserPermission struct {
	ID           id.UserPermissionID
	UserID       id.UserID
	PermissionID id.PermissionID
	GrantType    GrantType
	CreatedAt    time.Time
}

// Resolve computes a user's effective permissions: everything conferred by
// roles, minus explicit denies, plus explicit grants. Inherit overrides change
// nothing. byID must contain every permission referenced by fromRoles and
// overrides. The result is sorted by name.
func Resolve(fromRoles []id.PermissionID, overrides []*UserPermission, byID map[id.PermissionID]*Permission) []*Permission {
	effective := make(map[id.PermissionID]struct{}, len(fromRoles))
	for _, pid := range fromRoles {
		effective[pid] = struct{}{}
	}
	for _, o := range overrides {
		if o.GrantType == GrantTypeDeny {
			delete(effective, o.PermissionID)
		}
	}
	for _, o := range overrides {
		if o.GrantType == GrantTypeGrant {
			effective[o.PermissionID] = struct{}{}
		}
	}

	out := make([]*Permission, 0, len(effective))
	for pid := range effective {
		if p, ok := byID[pid]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
