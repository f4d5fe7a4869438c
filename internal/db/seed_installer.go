package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/greenvolt/loanhub/internal/config"
	"github.com/greenvolt/loanhub/internal/domain/user"
	"github.com/greenvolt/loanhub/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureDefaultInstaller creates the bootstrap superuser-installer account on
// startup. Run-once contract: if an account with the configured username
// already exists it is left alone, never overwritten.
func EnsureDefaultInstaller(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, cfg.AdminUsername).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         user.RoleInstaller,
		Superuser:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, first_name, last_name, role, is_superuser, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Superuser, u.CreatedAt, u.UpdatedAt,
	)

	return err
}
