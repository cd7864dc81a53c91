package session

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

// PostgresStore persists sessions in the sessions table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const sessionColumns = `id, user_id, token, expires_at, COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token, expires_at, ip_address, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(session.ID),
		uuid.UUID(session.UserID),
		session.Token,
		session.ExpiresAt,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return postgres.Classify(err, "insert session")
}

func (s *PostgresStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, uuid.UUID(sessionID))
	return scanSession(row, "find session by id")
}

func (s *PostgresStore) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token)
	return scanSession(row, "find session by token")
}

func (s *PostgresStore) UpdateExpiry(ctx context.Context, sessionID id.SessionID, expiresAt, now time.Time) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE sessions SET expires_at = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(sessionID), expiresAt, now)
	if err != nil {
		return postgres.Classify(err, "update session expiry")
	}
	return requireRow(res, "update session expiry")
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID id.SessionID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`, uuid.UUID(sessionID))
	if err != nil {
		return postgres.Classify(err, "delete session")
	}
	return requireRow(res, "delete session")
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID id.UserID) (int, error) {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return 0, postgres.Classify(err, "delete user sessions")
	}
	return affected(res, "delete user sessions")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, postgres.Classify(err, "delete expired sessions")
	}
	return affected(res, "delete expired sessions")
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`, uuid.UUID(userID))
	if err != nil {
		return nil, postgres.Classify(err, "list sessions")
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		session, err := scanSession(rows, "list sessions")
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(err, "list sessions")
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner, op string) (*models.Session, error) {
	var (
		session   models.Session
		sessionID uuid.UUID
		userID    uuid.UUID
	)
	err := row.Scan(&sessionID, &userID, &session.Token, &session.ExpiresAt,
		&session.IPAddress, &session.UserAgent, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, postgres.Classify(err, op)
	}
	session.ID = id.SessionID(sessionID)
	session.UserID = id.UserID(userID)
	return &session, nil
}

func affected(res sql.Result, op string) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, postgres.Classify(err, op)
	}
	return int(n), nil
}

func requireRow(res sql.Result, op string) error {
	n, err := affected(res, op)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}
