package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/id"
)

// SeedRoles synchronizes the roles, permissions, and role_permissions tables
// with the built-in role table. Safe to run on every startup: existing rows
// are kept, each role's permission set is rewritten in one transaction.
func (s *Store) SeedRoles(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	permIDs := make(map[domain.Permission]string)
	for _, perms := range domain.RolePermissions {
		for _, p := range perms {
			if _, ok := permIDs[p]; ok {
				continue
			}
			pid, err := ensureNamedRow(ctx, tx, "permissions", string(p), "perm")
			if err != nil {
				return err
			}
			permIDs[p] = pid
		}
	}

	for role, perms := range domain.RolePermissions {
		roleID, err := ensureNamedRow(ctx, tx, "roles", string(role), "role")
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM role_permissions WHERE role_id = ?`, roleID); err != nil {
			return fmt.Errorf("clear permissions for role %s: %w", role, err)
		}
		for _, p := range perms {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)`,
				roleID, permIDs[p])
			if err != nil {
				return fmt.Errorf("attach %s to role %s: %w", p, role, err)
			}
		}
	}

	return tx.Commit()
}

// ListRolePermissions returns the permission names attached to a role,
// as seeded. Mainly used to verify the seed and by admin tooling.
func (s *Store) ListRolePermissions(ctx context.Context, role domain.Role) ([]domain.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN roles r ON r.id = rp.role_id
		WHERE r.name = ?
		ORDER BY p.name ASC`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		perms = append(perms, domain.Permission(name))
	}
	return perms, rows.Err()
}

// ensureNamedRow finds a row by unique name in the given table, inserting it
// with a fresh ID when absent, and returns its ID.
func ensureNamedRow(ctx context.Context, tx queryExecer, table, name, idPrefix string) (string, error) {
	var existing string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE name = ?`, name).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("look up %s row %s: %w", table, name, err)
	}

	rowID := id.MustGenerate(idPrefix)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+table+` (id, name) VALUES (?, ?)`, rowID, name); err != nil {
		return "", fmt.Errorf("insert %s row %s: %w", table, name, err)
	}
	return rowID, nil
}

type queryExecer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
