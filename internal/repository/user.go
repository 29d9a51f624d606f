package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
}

type UserRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureUser creates the user if it does not exist yet. Existing users keep
// their stored hash so a changed env password never silently rotates
// credentials.
func (r *UserRepository) EnsureUser(ctx context.Context, username, passwordHash, role string) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, role)
	if err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", username, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		r.logger.Info().Str("username", username).Str("role", role).Msg("user created")
	}
	return nil
}
