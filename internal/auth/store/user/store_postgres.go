package user

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

// PostgresStore persists users in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, email_verified, avatar_url, created_at, updated_at, deleted_at`

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, email_verified, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(user.ID),
		user.Email,
		user.EmailVerified,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return postgres.Classify(err, "insert user")
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID))
	return scanUser(row, "find user by id")
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, email)
	return scanUser(row, "find user by email")
}

func (s *PostgresStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, postgres.Classify(err, "check user email")
	}
	return exists, nil
}

func (s *PostgresStore) MarkEmailVerified(ctx context.Context, userID id.UserID, now time.Time) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET email_verified = TRUE, updated_at = $2 WHERE id = $1`,
		uuid.UUID(userID), now)
	if err != nil {
		return postgres.Classify(err, "mark email verified")
	}
	return requireRow(res, "mark email verified")
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return postgres.Classify(err, "delete user")
	}
	return requireRow(res, "delete user")
}

func scanUser(row *sql.Row, op string) (*models.User, error) {
	var (
		u   models.User
		uid uuid.UUID
	)
	if err := row.Scan(&uid, &u.Email, &u.EmailVerified, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
		return nil, postgres.Classify(err, op)
	}
	u.ID = id.UserID(uid)
	return &u, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return postgres.Classify(err, op)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}
