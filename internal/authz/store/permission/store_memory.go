// Package permission persists (resource, action) permissions.
package permission

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"portcullis/internal/authz/models"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	permissions map[id.PermissionID]models.Permission
}

func New() *InMemoryStore {
	return &InMemoryStore{permissions: make(map[id.PermissionID]models.Permission)}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Resource == p.Resource && existing.Action == p.Action {
			return fmt.Errorf("permission %s: %w", p.Name(), sentinel.ErrConflict)
		}
	}
	s.permissions[p.ID] = *p
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, permissionID id.PermissionID) (*models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[permissionID]
	if !ok {
		return nil, fmt.Errorf("permission not found: %w", sentinel.ErrNotFound)
	}
	return &p, nil
}

// List returns every permission ordered by resource then action.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, &p)
	}
	sortPermissions(out)
	return out, nil
}

func (s *InMemoryStore) ListByIDs(_ context.Context, permissionIDs []id.PermissionID) ([]*models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Permission, 0, len(permissionIDs))
	for _, permissionID := range permissionIDs {
		if p, ok := s.permissions[permissionID]; ok {
			out = append(out, &p)
		}
	}
	sortPermissions(out)
	return out, nil
}

func (s *InMemoryStore) UpdateDescription(_ context.Context, permissionID id.PermissionID, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permissions[permissionID]
	if !ok {
		return fmt.Errorf("permission not found: %w", sentinel.ErrNotFound)
	}
	p.Description = description
	s.permissions[permissionID] = p
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, permissionID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permissions[permissionID]; !ok {
		return fmt.Errorf("permission not found: %w", sentinel.ErrNotFound)
	}
	delete(s.permissions, permissionID)
	return nil
}

func sortPermissions(perms []*models.Permission) {
	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Resource != perms[j].Resource {
			return perms[i].Resource < perms[j].Resource
		}
		return perms[i].Action < perms[j].Action
	})
}
