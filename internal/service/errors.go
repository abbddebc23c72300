package service

import "errors"

// Caller-visible failures. Handlers map these to status codes and never show
// the wrapped cause.
var (
	ErrWrongCredentials     = errors.New("wrong username or password")
	ErrUsernameOrEmailTaken = errors.New("username or email already taken")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenRequired        = errors.New("token is required")
	ErrUserNotFound         = errors.New("user not found")
	ErrWrongPassword        = errors.New("wrong password")
	ErrUncategorized        = errors.New("uncategorized error")
	ErrValidation           = errors.New("validation failed")
	ErrForbidden            = errors.New("forbidden")
)
