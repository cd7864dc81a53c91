package grant

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

func (s *PostgresStore) AddRolePermission(ctx context.Context, roleID id.RoleID, permissionID id.PermissionID) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`,
		uuid.UUID(roleID), uuid.UUID(permissionID))
	return postgres.Classify(err, "insert role permission")
}

func (s *PostgresStore) RemoveRolePermission(ctx context.Context, roleID id.RoleID, permissionID id.PermissionID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
		uuid.UUID(roleID), uuid.UUID(permissionID))
	if err != nil {
		return postgres.Classify(err, "delete role permission")
	}
	return requireRow(res, "delete role permission")
}

func (s *PostgresStore) ListRolePermissions(ctx context.Context, roleIDs []id.RoleID) ([]id.PermissionID, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(roleIDs))
	for i, roleID := range roleIDs {
		ids[i] = roleID.String()
	}
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT DISTINCT permission_id FROM role_permissions WHERE role_id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, postgres.Classify(err, "list role permissions")
	}
	defer rows.Close()

	var out []id.PermissionID
	for rows.Next() {
		var permissionID uuid.UUID
		if err := rows.Scan(&permissionID); err != nil {
			return nil, postgres.Classify(err, "list role permissions")
		}
		out = append(out, id.PermissionID(permissionID))
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(err, "list role permissions")
	}
	return out, nil
}

func (s *PostgresStore) AssignUserRole(ctx context.Context, userID id.UserID, roleID id.RoleID) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`,
		uuid.UUID(userID), uuid.UUID(roleID))
	return postgres.Classify(err, "insert user role")
}

func (s *PostgresStore) RemoveUserRole(ctx context.Context, userID id.UserID, roleID id.RoleID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		uuid.UUID(userID), uuid.UUID(roleID))
	if err != nil {
		return postgres.Classify(err, "delete user role")
	}
	return requireRow(res, "delete user role")
}

func (s *PostgresStore) ListUserRoles(ctx context.Context, userID id.UserID) ([]id.RoleID, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`, uuid.UUID(userID))
	if err != nil {
		return nil, postgres.Classify(err, "list user roles")
	}
	defer rows.Close()

	var out []id.RoleID
	for rows.Next() {
		var roleID uuid.UUID
		if err := rows.Scan(&roleID); err != nil {
			return nil, postgres.Classify(err, "list user roles")
		}
		out = append(out, id.RoleID(roleID))
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(err, "list user roles")
	}
	return out, nil
}

// UpsertUserPermission relies on the (user_id, permission_id) unique key so
// concurrent writers converge on one row.
func (s *PostgresStore) UpsertUserPermission(ctx context.Context, up *models.UserPermission) error {
	var (
		rowID     uuid.UUID
		grantType string
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO user_permissions (id, user_id, permission_id, grant_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, permission_id) DO UPDATE SET grant_type = EXCLUDED.grant_type
		RETURNING id, grant_type, created_at`,
		uuid.UUID(up.ID), uuid.UUID(up.UserID), uuid.UUID(up.PermissionID), string(up.GrantType), up.CreatedAt,
	).Scan(&rowID, &grantType, &up.CreatedAt)
	if err != nil {
		return postgres.Classify(err, "upsert user permission")
	}
	up.ID = id.UserPermissionID(rowID)
	up.GrantType = models.GrantType(grantType)
	return nil
}

func (s *PostgresStore) DeleteUserPermission(ctx context.Context, userID id.UserID, permissionID id.PermissionID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM user_permissions WHERE user_id = $1 AND permission_id = $2`,
		uuid.UUID(userID), uuid.UUID(permissionID))
	if err != nil {
		return postgres.Classify(err, "delete user permission")
	}
	return requireRow(res, "delete user permission")
}

func (s *PostgresStore) ListUserPermissions(ctx context.Context, userID id.UserID) ([]*models.UserPermission, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT id, user_id, permission_id, grant_type, created_at
		FROM user_permissions WHERE user_id = $1 ORDER BY permission_id`, uuid.UUID(userID))
	if err != nil {
		return nil, postgres.Classify(err, "list user permissions")
	}
	defer rows.Close()

	var out []*models.UserPermission
	for rows.Next() {
		var (
			up                            models.UserPermission
			rowID, rowUser, rowPermission uuid.UUID
			grantType                     string
		)
		if err := rows.Scan(&rowID, &rowUser, &rowPermission, &grantType, &up.CreatedAt); err != nil {
			return nil, postgres.Classify(err, "list user permissions")
		}
		up.ID = id.UserPermissionID(rowID)
		up.UserID = id.UserID(rowUser)
		up.PermissionID = id.PermissionID(rowPermission)
		up.GrantType = models.GrantType(grantType)
		out = append(out, &up)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(err, "list user permissions")
	}
	return out, nil
}

// PurgeRole and PurgePermission duplicate the ON DELETE CASCADE clauses so the
// service behaves the same against the in-memory store.
func (s *PostgresStore) PurgeRole(ctx context.Context, roleID id.RoleID) error {
	exec := txcontext.Executor(ctx, s.db)
	if _, err := exec.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, uuid.UUID(roleID)); err != nil {
		return postgres.Classify(err, "purge role permissions")
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM user_roles WHERE role_id = $1`, uuid.UUID(roleID)); err != nil {
		return postgres.Classify(err, "purge user roles")
	}
	return nil
}

func (s *PostgresStore) PurgePermission(ctx context.Context, permissionID id.PermissionID) error {
	exec := txcontext.Executor(ctx, s.db)
	if _, err := exec.ExecContext(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, uuid.UUID(permissionID)); err != nil {
		return postgres.Classify(err, "purge role permissions")
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM user_permissions WHERE permission_id = $1`, uuid.UUID(permissionID)); err != nil {
		return postgres.Classify(err, "purge user permissions")
	}
	return nil
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
