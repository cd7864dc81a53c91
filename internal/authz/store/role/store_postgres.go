package role

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

const roleColumns = `id, name, description, is_active, created_at, updated_at, deleted_at`

func (s *PostgresStore) Create(ctx context.Context, role *models.Role) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO roles (id, name, description, is_active, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(role.ID), role.Name, role.Description, role.IsActive, role.CreatedAt, role.UpdatedAt, role.DeletedAt,
	)
	return postgres.Classify(err, "insert role")
}

func (s *PostgresStore) FindByID(ctx context.Context, roleID id.RoleID) (*models.Role, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = $1`, uuid.UUID(roleID))
	return scanRole(row, "find role by id")
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Role, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	return scanRole(row, "find role by name")
}

func (s *PostgresStore) List(ctx context.Context, page models.Page) ([]*models.Role, int, error) {
	exec := txcontext.Executor(ctx, s.db)
	var total int
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, postgres.Classify(err, "count roles")
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE deleted_at IS NULL
		ORDER BY created_at, name
		LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, postgres.Classify(err, "list roles")
	}
	roles, err := collect(rows, "list roles")
	if err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

func (s *PostgresStore) ListByIDs(ctx context.Context, roleIDs []id.RoleID) ([]*models.Role, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(roleIDs))
	for i, roleID := range roleIDs {
		ids[i] = roleID.String()
	}
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, postgres.Classify(err, "list roles by id")
	}
	return collect(rows, "list roles by id")
}

func (s *PostgresStore) Update(ctx context.Context, role *models.Role) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE roles
		SET name = $2, description = $3, is_active = $4, updated_at = $5, deleted_at = $6
		WHERE id = $1`,
		uuid.UUID(role.ID), role.Name, role.Description, role.IsActive, role.UpdatedAt, role.DeletedAt,
	)
	if err != nil {
		return postgres.Classify(err, "update role")
	}
	return requireRow(res, "update role")
}

func (s *PostgresStore) Delete(ctx context.Context, roleID id.RoleID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM roles WHERE id = $1`, uuid.UUID(roleID))
	if err != nil {
		return postgres.Classify(err, "delete role")
	}
	return requireRow(res, "delete role")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRole(row scanner, op string) (*models.Role, error) {
	var (
		role      models.Role
		roleID    uuid.UUID
		deletedAt sql.NullTime
	)
	err := row.Scan(&roleID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, postgres.Classify(err, op)
	}
	role.ID = id.RoleID(roleID)
	if deletedAt.Valid {
		role.DeletedAt = &deletedAt.Time
	}
	return &role, nil
}

func collect(rows *sql.Rows, op string) ([]*models.Role, error) {
	defer rows.Close()
	var out []*models.Role
	for rows.Next() {
		role, err := scanRole(rows, op)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
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
