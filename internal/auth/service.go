package auth

import (
	"context"
	"database/sql"
	"errors"

	"dota-tracker/internal/config"
	"dota-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	users  *repository.UserRepository
	tokens *JWTManager
	logger zerolog.Logger
}

func NewService(users *repository.UserRepository, tokens *JWTManager, logger zerolog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Login checks the password against the stored bcrypt hash and issues a
// token. Unknown users and bad passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.Username, user.Role)
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("username", username).Msg("user logged in")
	return token, nil
}

// EnsureAdmin seeds the configured admin account at startup. With no password
// configured nothing is seeded, which leaves every protected endpoint
// unreachable until one is set.
func (s *Service) EnsureAdmin(ctx context.Context, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		s.logger.Warn().Msg("ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.EnsureUser(ctx, cfg.AdminUser, string(hash), RoleAdmin)
}
