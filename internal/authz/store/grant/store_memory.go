// Package grant persists the association tables of the authorization graph:
// role permissions, user roles and per-user permission overrides.
package grant

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"portcullis/internal/authz/models"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	rolePerms map[id.RoleID]map[id.PermissionID]struct{}
	userRoles map[id.UserID]map[id.RoleID]struct{}
	overrides map[id.UserID]map[id.PermissionID]models.UserPermission
}

func New() *InMemoryStore {
	return &InMemoryStore{
		rolePerms: make(map[id.RoleID]map[id.PermissionID]struct{}),
		userRoles: make(map[id.UserID]map[id.RoleID]struct{}),
		overrides: make(map[id.UserID]map[id.PermissionID]models.UserPermission),
	}
}

func (s *InMemoryStore) AddRolePermission(_ context.Context, roleID id.RoleID, permissionID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	perms := s.rolePerms[roleID]
	if perms == nil {
		perms = make(map[id.PermissionID]struct{})
		s.rolePerms[roleID] = perms
	}
	if _, ok := perms[permissionID]; ok {
		return fmt.Errorf("role permission: %w", sentinel.ErrConflict)
	}
	perms[permissionID] = struct{}{}
	return nil
}

func (s *InMemoryStore) RemoveRolePermission(_ context.Context, roleID id.RoleID, permissionID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rolePerms[roleID][permissionID]; !ok {
		return fmt.Errorf("role permission not found: %w", sentinel.ErrNotFound)
	}
	delete(s.rolePerms[roleID], permissionID)
	return nil
}

// ListRolePermissions returns the distinct permissions attached to any of roleIDs.
func (s *InMemoryStore) ListRolePermissions(_ context.Context, roleIDs []id.RoleID) ([]id.PermissionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[id.PermissionID]struct{})
	var out []id.PermissionID
	for _, roleID := range roleIDs {
		for permissionID := range s.rolePerms[roleID] {
			if _, dup := seen[permissionID]; dup {
				continue
			}
			seen[permissionID] = struct{}{}
			out = append(out, permissionID)
		}
	}
	return out, nil
}

func (s *InMemoryStore) AssignUserRole(_ context.Context, userID id.UserID, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	roles := s.userRoles[userID]
	if roles == nil {
		roles = make(map[id.RoleID]struct{})
		s.userRoles[userID] = roles
	}
	if _, ok := roles[roleID]; ok {
		return fmt.Errorf("user role: %w", sentinel.ErrConflict)
	}
	roles[roleID] = struct{}{}
	return nil
}

func (s *InMemoryStore) RemoveUserRole(_ context.Context, userID id.UserID, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userRoles[userID][roleID]; !ok {
		return fmt.Errorf("user role not found: %w", sentinel.ErrNotFound)
	}
	delete(s.userRoles[userID], roleID)
	return nil
}

func (s *InMemoryStore) ListUserRoles(_ context.Context, userID id.UserID) ([]id.RoleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.RoleID, 0, len(s.userRoles[userID]))
	for roleID := range s.userRoles[userID] {
		out = append(out, roleID)
	}
	slices.SortFunc(out, func(a, b id.RoleID) int { return compare(a.String(), b.String()) })
	return out, nil
}

// UpsertUserPermission sets the override for (user, permission), replacing
// any earlier grant type.
func (s *InMemoryStore) UpsertUserPermission(_ context.Context, up *models.UserPermission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byPerm := s.overrides[up.UserID]
	if byPerm == nil {
		byPerm = make(map[id.PermissionID]models.UserPermission)
		s.overrides[up.UserID] = byPerm
	}
	if existing, ok := byPerm[up.PermissionID]; ok {
		existing.GrantType = up.GrantType
		byPerm[up.PermissionID] = existing
		*up = existing
		return nil
	}
	byPerm[up.PermissionID] = *up
	return nil
}

func (s *InMemoryStore) DeleteUserPermission(_ context.Context, userID id.UserID, permissionID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overrides[userID][permissionID]; !ok {
		return fmt.Errorf("user permission not found: %w", sentinel.ErrNotFound)
	}
	delete(s.overrides[userID], permissionID)
	return nil
}

func (s *InMemoryStore) ListUserPermissions(_ context.Context, userID id.UserID) ([]*models.UserPermission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.UserPermission, 0, len(s.overrides[userID]))
	for _, up := range s.overrides[userID] {
		out = append(out, &up)
	}
	slices.SortFunc(out, func(a, b *models.UserPermission) int {
		return compare(a.PermissionID.String(), b.PermissionID.String())
	})
	return out, nil
}

// PurgeRole drops every association that references roleID.
func (s *InMemoryStore) PurgeRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rolePerms, roleID)
	for _, roles := range s.userRoles {
		delete(roles, roleID)
	}
	return nil
}

// PurgePermission drops every association that references permissionID.
func (s *InMemoryStore) PurgePermission(_ context.Context, permissionID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, perms := range s.rolePerms {
		delete(perms, permissionID)
	}
	for _, byPerm := range s.overrides {
		delete(byPerm, permissionID)
	}
	return nil
}

func compare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
