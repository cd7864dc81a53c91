package verification

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

// PostgresStore persists verification tokens in the verifications table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const verificationColumns = `id, user_id, identifier, value, expires_at, created_at`

func (s *PostgresStore) Create(ctx context.Context, v *models.Verification) error {
	query := `
		INSERT INTO verifications (id, user_id, identifier, value, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(v.ID),
		uuid.UUID(v.UserID),
		string(v.Identifier),
		v.Value,
		v.ExpiresAt,
		v.CreatedAt,
	)
	return postgres.Classify(err, "insert verification")
}

func (s *PostgresStore) FindByValue(ctx context.Context, value string) (*models.Verification, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications WHERE value = $1`, value)
	return scanVerification(row, "find verification")
}

func (s *PostgresStore) Delete(ctx context.Context, verificationID id.VerificationID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM verifications WHERE id = $1`, uuid.UUID(verificationID))
	if err != nil {
		return postgres.Classify(err, "delete verification")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return postgres.Classify(err, "delete verification")
	}
	if n == 0 {
		return fmt.Errorf("delete verification: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM verifications WHERE expires_at < $1`, now)
	if err != nil {
		return 0, postgres.Classify(err, "delete expired verifications")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, postgres.Classify(err, "delete expired verifications")
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVerification(row scanner, op string) (*models.Verification, error) {
	var (
		v          models.Verification
		vid        uuid.UUID
		uid        uuid.UUID
		identifier string
	)
	if err := row.Scan(&vid, &uid, &identifier, &v.Value, &v.ExpiresAt, &v.CreatedAt); err != nil {
		return nil, postgres.Classify(err, op)
	}
	v.ID = id.VerificationID(vid)
	v.UserID = id.UserID(uid)
	v.Identifier = models.VerificationIdentifier(identifier)
	return &v, nil
}
