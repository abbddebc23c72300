package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/comic_reader/internal/logging"
	"github.com/Skotchmaster/comic_reader/internal/models"
	"github.com/Skotchmaster/comic_reader/internal/repo"
	"github.com/Skotchmaster/comic_reader/internal/util"
)

type UserPage struct {
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	Items []models.User `json:"items"`
}

func (s *AuthService) Me(ctx context.Context, caller Caller) (*models.User, error) {
	user, err := s.Users.FindByUsername(ctx, caller.Username)
	if err != nil {
		return nil, s.lookupError(ctx, "auth.me", err)
	}
	return user, nil
}

// GetUser is open to admins and to the record's own user.
func (s *AuthService) GetUser(ctx context.Context, caller Caller, id uint) (*models.User, error) {
	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(ctx, "auth.get_user", err)
	}
	if !caller.IsAdmin() && user.Username != caller.Username {
		logging.FromContext(ctx).Warn("get_user_forbidden", "status", 403, "caller", caller.Username, "user_id", id)
		return nil, ErrForbidden
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, page, size int) (*UserPage, error) {
	offset, limit, page := util.Page(page, size)
	total, items, err := s.Users.ListUsers(ctx, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Error("list_users_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUncategorized, err)
	}
	return &UserPage{Total: total, Page: page, Size: limit, Items: items}, nil
}

func (s *AuthService) lookupError(ctx context.Context, svc string, err error) error {
	if errors.Is(err, repo.ErrUserNotFound) {
		return ErrUserNotFound
	}
	logging.FromContext(ctx).With("svc", svc).Error("lookup_failed", "status", 500, "error", err)
	return fmt.Errorf("%w: %v", ErrUncategorized, err)
}
