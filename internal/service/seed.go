package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/comic_reader/internal/logging"
	"github.com/Skotchmaster/comic_reader/internal/models"
	"github.com/Skotchmaster/comic_reader/internal/repo"
)

const defaultSeedPassword = "123456"

type seedAccount struct {
	username string
	email    string
	fullName string
	role     models.Role
}

var defaultAccounts = []seedAccount{
	{username: "admin", email: "admin@gmail.com", fullName: "Admin", role: models.RoleAdmin},
	{username: "user", email: "user@gmail.com", fullName: "User", role: models.RoleUser},
}

// SeedDefaults creates the built-in admin and user accounts when their emails
// are not taken yet. Running it again is a no-op.
func (s *AuthService) SeedDefaults(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "auth.seed")

	for _, acc := range defaultAccounts {
		_, err := s.Users.FindByEmail(ctx, acc.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repo.ErrUserNotFound) {
			return fmt.Errorf("seed %s: %w", acc.username, err)
		}

		pwHash, err := s.Hasher.Hash(defaultSeedPassword)
		if err != nil {
			return fmt.Errorf("seed %s: %w", acc.username, err)
		}
		user := &models.User{
			Username:     acc.username,
			Email:        acc.email,
			PasswordHash: pwHash,
			FullName:     acc.fullName,
			DateOfBirth:  s.Now(),
			Role:         acc.role,
		}
		if err := s.Users.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repo.ErrUserAlreadyExist) {
				l.Warn("seed_skipped", "username", acc.username, "reason", "username_taken")
				continue
			}
			return fmt.Errorf("seed %s: %w", acc.username, err)
		}
		l.Info("seed_created", "username", acc.username, "role", acc.role)
	}
	return nil
}
