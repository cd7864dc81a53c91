package permission

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"portcullis/internal/authz/models"
	"portcullis/internal/platform/postgres"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
	txcontext "portcullis/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const permissionColumns = `id, resource, action, description, created_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Permission) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO permissions (id, resource, action, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(p.ID), p.Resource, string(p.Action), p.Description, p.CreatedAt,
	)
	return postgres.Classify(err, "insert permission")
}

func (s *PostgresStore) FindByID(ctx context.Context, permissionID id.PermissionID) (*models.Permission, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, uuid.UUID(permissionID))
	return scanPermission(row, "find permission by id")
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Permission, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions ORDER BY resource, action`)
	if err != nil {
		return nil, postgres.Classify(err, "list permissions")
	}
	return collect(rows, "list permissions")
}

func (s *PostgresStore) ListByIDs(ctx context.Context, permissionIDs []id.PermissionID) ([]*models.Permission, error) {
	if len(permissionIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(permissionIDs))
	for i, permissionID := range permissionIDs {
		ids[i] = permissionID.String()
	}
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = ANY($1::uuid[]) ORDER BY resource, action`,
		pq.Array(ids))
	if err != nil {
		return nil, postgres.Classify(err, "list permissions by id")
	}
	return collect(rows, "list permissions by id")
}

func (s *PostgresStore) UpdateDescription(ctx context.Context, permissionID id.PermissionID, description string) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE permissions SET description = $2 WHERE id = $1`, uuid.UUID(permissionID), description)
	if err != nil {
		return postgres.Classify(err, "update permission")
	}
	return requireRow(res, "update permission")
}

func (s *PostgresStore) Delete(ctx context.Context, permissionID id.PermissionID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM permissions WHERE id = $1`, uuid.UUID(permissionID))
	if err != nil {
		return postgres.Classify(err, "delete permission")
	}
	return requireRow(res, "delete permission")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPermission(row scanner, op string) (*models.Permission, error) {
	var (
		p            models.Permission
		permissionID uuid.UUID
		action       string
	)
	if err := row.Scan(&permissionID, &p.Resource, &action, &p.Description, &p.CreatedAt); err != nil {
		return nil, postgres.Classify(err, op)
	}
	p.ID = id.PermissionID(permissionID)
	p.Action = models.Action(action)
	return &p, nil
}

func collect(rows *sql.Rows, op string) ([]*models.Permission, error) {
	defer rows.Close()
	var out []*models.Permission
	for rows.Next() {
		p, err := scanPermission(rows, op)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(err, op)
	}
	return out, nil
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
