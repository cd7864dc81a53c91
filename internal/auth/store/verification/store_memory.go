package verification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portcullis/internal/auth/models"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
)

// InMemoryStore keeps verification tokens keyed by their secret value.
type InMemoryStore struct {
	mu      sync.RWMutex
	byValue map[string]models.Verification
}

func New() *InMemoryStore {
	return &InMemoryStore{byValue: make(map[string]models.Verification)}
}

func (s *InMemoryStore) Create(_ context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byValue[v.Value]; taken {
		return fmt.Errorf("verification value: %w", sentinel.ErrConflict)
	}
	s.byValue[v.Value] = *v
	return nil
}

// FindByValue returns the record for a secret regardless of expiry.
func (s *InMemoryStore) FindByValue(_ context.Context, value string) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byValue[value]
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", sentinel.ErrNotFound)
	}
	return &v, nil
}

func (s *InMemoryStore) Delete(_ context.Context, verificationID id.VerificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for value, v := range s.byValue {
		if v.ID == verificationID {
			delete(s.byValue, value)
			return nil
		}
	}
	return fmt.Errorf("verification not found: %w", sentinel.ErrNotFound)
}

// DeleteExpired removes records whose expiry is strictly before now.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for value, v := range s.byValue {
		if v.IsExpired(now) {
			delete(s.byValue, value)
			count++
		}
	}
	return count, nil
}
