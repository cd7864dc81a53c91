// Package role persists roles. Soft-deleted roles stay in the store and keep
// their name reserved.
package role

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
	mu    sync.RWMutex
	roles map[id.RoleID]models.Role
}

func New() *InMemoryStore {
	return &InMemoryStore{roles: make(map[id.RoleID]models.Role)}
}

func (s *InMemoryStore) Create(_ context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(role.Name, role.ID) {
		return fmt.Errorf("role name %q: %w", role.Name, sentinel.ErrConflict)
	}
	s.roles[role.ID] = *role
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, roleID id.RoleID) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[roleID]
	if !ok {
		return nil, fmt.Errorf("role not found: %w", sentinel.ErrNotFound)
	}
	return &role, nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, role := range s.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, fmt.Errorf("role not found: %w", sentinel.ErrNotFound)
}

// List pages through roles that are not soft-deleted, oldest first, and
// reports the total across all pages.
func (s *InMemoryStore) List(_ context.Context, page models.Page) ([]*models.Role, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live := make([]*models.Role, 0, len(s.roles))
	for _, role := range s.roles {
		if !role.IsDeleted() {
			live = append(live, &role)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].CreatedAt.Equal(live[j].CreatedAt) {
			return live[i].Name < live[j].Name
		}
		return live[i].CreatedAt.Before(live[j].CreatedAt)
	})

	total := len(live)
	if page.Offset >= total {
		return []*models.Role{}, total, nil
	}
	end := min(page.Offset+page.Limit, total)
	return live[page.Offset:end], total, nil
}

func (s *InMemoryStore) ListByIDs(_ context.Context, roleIDs []id.RoleID) ([]*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Role, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		if role, ok := s.roles[roleID]; ok {
			out = append(out, &role)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[role.ID]; !ok {
		return fmt.Errorf("role not found: %w", sentinel.ErrNotFound)
	}
	if s.nameTaken(role.Name, role.ID) {
		return fmt.Errorf("role name %q: %w", role.Name, sentinel.ErrConflict)
	}
	s.roles[role.ID] = *role
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return fmt.Errorf("role not found: %w", sentinel.ErrNotFound)
	}
	delete(s.roles, roleID)
	return nil
}

func (s *InMemoryStore) nameTaken(name string, except id.RoleID) bool {
	for _, role := range s.roles {
		if role.Name == name && role.ID != except {
			return true
		}
	}
	return false
}
