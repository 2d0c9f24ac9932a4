package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"kare/internal/domain/auth"
	"kare/internal/platform/config"
)

// Seed makes sure the role catalogue, the role/permission matrix and the
// bootstrap HR admin exist. It is idempotent and safe to run on every start.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	roleIDs, err := ensureRoles(ctx, pool)
	if err != nil {
		return err
	}

	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return err
	}

	return ensureAdminUser(ctx, pool, roleIDs[auth.RoleAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	roleIDs := make(map[string]string, len(auth.AllRoles))
	for _, name := range auth.AllRoles {
		var id string
		if err := pool.QueryRow(ctx, `
      INSERT INTO roles (name) VALUES ($1)
      ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
      RETURNING id
    `, name).Scan(&id); err != nil {
			return nil, err
		}
		roleIDs[name] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]string) error {
	for role, permissions := range auth.RolePermissions {
		roleID, ok := roleIDs[role]
		if !ok {
			continue
		}
		for _, permission := range permissions {
			if _, err := pool.Exec(ctx, `
        INSERT INTO role_permissions (role_id, permission)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
      `, roleID, permission); err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, roleID, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE email = $1", email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, full_name, role_id)
    VALUES ($1, $2, $3, $4)
  `, email, hash, "Administrator", roleID)
	return err
}
