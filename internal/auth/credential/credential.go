// Package credential verifies and stores bcrypt password hashes for the
// credentials provider.
package credential

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"portcullis/internal/auth/models"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/sentinel"
	"portcullis/pkg/requestcontext"
)

// AccountStore persists credential accounts.
type AccountStore interface {
	Create(ctx context.Context, acct *models.CredentialAccount) error
	FindByEmail(ctx context.Context, provider, email string) (*models.CredentialAccount, error)
	FindByUserID(ctx context.Context, provider string, userID id.UserID) (*models.CredentialAccount, error)
	UpdatePasswordHash(ctx context.Context, accountID id.AccountID, hash string, now time.Time) error
}

// ErrInvalidCredentials is returned by Verify for an unknown email or a wrong password.
var ErrInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")

type Service struct {
	accounts  AccountStore
	cost      int
	dummyHash []byte
}

type Option func(*Service)

// WithCost overrides the bcrypt work factor. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

func New(accounts AccountStore, opts ...Option) *Service {
	s := &Service{accounts: accounts, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	// Unknown emails are compared against this hash so both paths cost one bcrypt compare.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("portcullis-unknown-account"), s.cost)
	return s
}

// Verify returns the account for email when password matches its hash.
func (s *Service) Verify(ctx context.Context, email, password string) (*models.CredentialAccount, error) {
	acct, err := s.accounts.FindByEmail(ctx, models.ProviderCredentials, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, dErrors.FromStore(err, "failed to load credential account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}

// Create stores a credentials-provider account for userID. passwordHash must
// come from Hash.
func (s *Service) Create(ctx context.Context, userID id.UserID, email, passwordHash string) (*models.CredentialAccount, error) {
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "password hash is required")
	}
	now := requestcontext.Now(ctx)
	acct := &models.CredentialAccount{
		ID:           id.NewAccountID(),
		UserID:       userID,
		Provider:     models.ProviderCredentials,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "credential account already exists")
		}
		return nil, dErrors.FromStore(err, "failed to create credential account")
	}
	return acct, nil
}

// UpdatePassword re-hashes and overwrites the stored hash. No history is kept.
func (s *Service) UpdatePassword(ctx context.Context, accountID id.AccountID, password string) error {
	hash, err := s.Hash(password)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePasswordHash(ctx, accountID, hash, requestcontext.Now(ctx)); err != nil {
		return dErrors.FromStore(err, "failed to update password")
	}
	return nil
}

// FindForUser returns the user's credentials-provider account.
func (s *Service) FindForUser(ctx context.Context, userID id.UserID) (*models.CredentialAccount, error) {
	acct, err := s.accounts.FindByUserID(ctx, models.ProviderCredentials, userID)
	if err != nil {
		return nil, dErrors.FromStore(err, "credential account not found")
	}
	return acct, nil
}

// Hash returns the bcrypt hash of password at the configured cost.
func (s *Service) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", dErrors.New(dErrors.CodeValidation, "Password must be at most 72 bytes")
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	return string(hash), nil
}
