package account

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portcullis/internal/auth/models"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
)

type accountKey struct {
	provider string
	email    string
}

// InMemoryStore keeps credential accounts unique per provider and email.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]models.CredentialAccount
	byEmail  map[accountKey]id.AccountID
}

func New() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[id.AccountID]models.CredentialAccount),
		byEmail:  make(map[accountKey]id.AccountID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, acct *models.CredentialAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := accountKey{provider: acct.Provider, email: acct.Email}
	if _, taken := s.byEmail[key]; taken {
		return fmt.Errorf("account %s/%s: %w", acct.Provider, acct.Email, sentinel.ErrConflict)
	}
	for _, existing := range s.accounts {
		if existing.UserID == acct.UserID && existing.Provider == acct.Provider {
			return fmt.Errorf("user already has %s account: %w", acct.Provider, sentinel.ErrConflict)
		}
	}
	s.accounts[acct.ID] = *acct
	s.byEmail[key] = acct.ID
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, provider, email string) (*models.CredentialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byEmail[accountKey{provider: provider, email: email}]
	if !ok {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	acct := s.accounts[accountID]
	return &acct, nil
}

func (s *InMemoryStore) FindByUserID(_ context.Context, provider string, userID id.UserID) (*models.CredentialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acct := range s.accounts {
		if acct.UserID == userID && acct.Provider == provider {
			return &acct, nil
		}
	}
	return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) UpdatePasswordHash(_ context.Context, accountID id.AccountID, hash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	acct.PasswordHash = hash
	acct.UpdatedAt = now
	s.accounts[accountID] = acct
	return nil
}
