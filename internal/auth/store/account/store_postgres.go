package account

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"portcullis/internal/auth/models"
	"portcullis/internal/platform/postgres"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
	txcontext "portcullis/pkg/platform/tx"
)

// PostgresStore persists credential accounts in credential_accounts.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, user_id, provider, email, password_hash, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, acct *models.CredentialAccount) error {
	query := `
		INSERT INTO credential_accounts (id, user_id, provider, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(acct.ID),
		uuid.UUID(acct.UserID),
		acct.Provider,
		acct.Email,
		acct.PasswordHash,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	return postgres.Classify(err, "insert credential account")
}

func (s *PostgresStore) FindByEmail(ctx context.Context, provider, email string) (*models.CredentialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM credential_accounts WHERE provider = $1 AND email = $2`
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, provider, email)
	return scanAccount(row, "find account by email")
}

func (s *PostgresStore) FindByUserID(ctx context.Context, provider string, userID id.UserID) (*models.CredentialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM credential_accounts WHERE provider = $1 AND user_id = $2`
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, provider, uuid.UUID(userID))
	return scanAccount(row, "find account by user")
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, accountID id.AccountID, hash string, now time.Time) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE credential_accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(accountID), hash, now)
	if err != nil {
		return postgres.Classify(err, "update password hash")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return postgres.Classify(err, "update password hash")
	}
	if n == 0 {
		return fmt.Errorf("update password hash: %w", sentinel.ErrNotFound)
	}
	return nil
}

func scanAccount(row *sql.Row, op string) (*models.CredentialAccount, error) {
	var (
		acct      models.CredentialAccount
		accountID uuid.UUID
		userID    uuid.UUID
	)
	err := row.Scan(&accountID, &userID, &acct.Provider, &acct.Email, &acct.PasswordHash, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, postgres.Classify(err, op)
	}
	acct.ID = id.AccountID(accountID)
	acct.UserID = id.UserID(userID)
	return &acct, nil
}
