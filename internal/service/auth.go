package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/comic_reader/internal/hash"
	"github.com/Skotchmaster/comic_reader/internal/logging"
	"github.com/Skotchmaster/comic_reader/internal/models"
	"github.com/Skotchmaster/comic_reader/internal/mykafka"
	"github.com/Skotchmaster/comic_reader/internal/repo"
	"github.com/Skotchmaster/comic_reader/internal/tokens"
)

type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error)
}

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// Caller is the identity the decode hook resolved from a verified token.
type Caller struct {
	Username string
	Scope    string
}

func (c Caller) IsAdmin() bool {
	return c.Scope == models.RoleAdmin.Scope()
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FullName    string
	DateOfBirth time.Time
	IsMale      bool
}

type AuthResult struct {
	ID            uint      `json:"id"`
	Token         string    `json:"token"`
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"-"`
}

type AuthService struct {
	Users  UserStore
	Tokens *tokens.Service
	Hasher hash.Hasher
	Events Publisher
	Topic  string
	Now    func() time.Time
}

func NewAuthService(users UserStore, tks *tokens.Service, hasher hash.Hasher, events Publisher, topic string) *AuthService {
	if events == nil {
		events = mykafka.NopPublisher{}
	}
	return &AuthService{
		Users:  users,
		Tokens: tks,
		Hasher: hasher,
		Events: events,
		Topic:  topic,
		Now:    time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", in.Username)

	if in.Username == "" || in.Email == "" || in.Password == "" {
		l.Warn("register_failed", "status", 400, "reason", "missing_fields")
		return nil, ErrValidation
	}

	_, err := s.Users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		l.Warn("register_failed", "status", 409, "reason", "username_or_email_taken")
		return nil, ErrUsernameOrEmailTaken
	case !errors.Is(err, repo.ErrUserNotFound):
		l.Error("register_failed", "status", 500, "reason", "lookup", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUncategorized, err)
	}

	pwHash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			l.Warn("register_failed", "status", 400, "reason", "password_too_long")
			return nil, ErrValidation
		}
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUncategorized, err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
		FullName:     in.FullName,
		DateOfBirth:  in.DateOfBirth,
		IsMale:       in.IsMale,
		Role:         models.RoleUser,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_failed", "status", 409, "reason", "username_or_email_taken")
			return nil, ErrUsernameOrEmailTaken
		}
		l.Error("register_failed", "status", 500, "reason", "insert", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUncategorized, err)
	}

	l.Info("user_registered", "user_id", user.ID)
	s.publish(ctx, mykafka.UserEvent{Type: mykafka.EventUserRegistered, UserID: user.ID, Username: user.Username})
	return user, nil
}

// Login does not say whether the username or the password was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "wrong_credentials")
			return nil, ErrWrongCredentials
		}
		l.Error("login_failed", "status", 500, "reason", "lookup", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUncategorized, err)
	}
	if !s.Hasher.Matches(password, user.PasswordHash) {
		l.Warn("login_failed", "status", 401, "reason", "wrong_credentials")
		return nil, ErrWrongCredentials
	}

	issued, err := s.Tokens.Issue(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "issue", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUncategorized, err)
	}

	l.Info("login_ok", "user_id", user.ID, "jti", issued.JTI)
	s.publish(ctx, mykafka.UserEvent{Type: mykafka.EventUserLoggedIn, UserID: user.ID, Username: user.Username, JTI: issued.JTI})
	return &AuthResult{ID: user.ID, Token: issued.Token, Authenticated: true, ExpiresAt: issued.ExpiresAt}, nil
}

// Logout revokes a verified token. Logging out the same token twice succeeds
// both times.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := s.Tokens.Verify(raw)
	if err != nil {
		l.Warn("logout_failed", "status", 401, "reason", "invalid_token", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := s.Tokens.Revoke(ctx, claims); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "ledger", "jti", claims.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrUncategorized, err)
	}

	l.Info("token_revoked", "jti", claims.ID, "username", claims.Subject)
	s.publish(ctx, mykafka.UserEvent{Type: mykafka.EventTokenRevoked, Username: claims.Subject, JTI: claims.ID})
	return nil
}

// Refresh trades a live token for a new one and revokes the old token first.
// Every failure, including a subject that no longer exists, reads as
// ErrInvalidToken; the cause is kept in the message for logs only.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	res, err := s.refresh(ctx, raw)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid_token", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	l.Info("refresh_ok", "user_id", res.ID)
	return res, nil
}

func (s *AuthService) refresh(ctx context.Context, raw string) (*AuthResult, error) {
	claims, err := s.Tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	if err := s.Tokens.Consume(ctx, claims); err != nil {
		return nil, fmt.Errorf("revoke: %w", err)
	}
	s.publish(ctx, mykafka.UserEvent{Type: mykafka.EventTokenRevoked, Username: claims.Subject, JTI: claims.ID})

	user, err := s.Users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup: %w", err)
	}
	issued, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{ID: user.ID, Token: issued.Token, Authenticated: true, ExpiresAt: issued.ExpiresAt}, nil
}

func (s *AuthService) Introspect(ctx context.Context, raw string) (tokens.Introspection, error) {
	if strings.TrimSpace(raw) == "" {
		return tokens.Introspection{}, ErrTokenRequired
	}
	return s.Tokens.Introspect(ctx, raw), nil
}

// Decode is the request-time check for protected routes: the token must
// introspect as valid before its claims are returned.
func (s *AuthService) Decode(ctx context.Context, raw string) (*tokens.Claims, error) {
	res, err := s.Introspect(ctx, raw)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, ErrInvalidToken
	}
	claims, err := s.Tokens.Verify(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// ChangePassword leaves the caller's other tokens valid until they expire.
func (s *AuthService) ChangePassword(ctx context.Context, caller Caller, oldPassword, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password", "username", caller.Username)

	if newPassword == "" {
		l.Warn("change_password_failed", "status", 400, "reason", "empty_password")
		return ErrValidation
	}

	user, err := s.Users.FindByUsername(ctx, caller.Username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("change_password_failed", "status", 404, "reason", "user_not_found")
			return ErrUserNotFound
		}
		l.Error("change_password_failed", "status", 500, "reason", "lookup", "error", err)
		return fmt.Errorf("%w: %v", ErrUncategorized, err)
	}
	if !s.Hasher.Matches(oldPassword, user.PasswordHash) {
		l.Warn("change_password_failed", "status", 400, "reason", "wrong_password")
		return ErrWrongPassword
	}

	pwHash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return ErrValidation
		}
		l.Error("change_password_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return fmt.Errorf("%w: %v", ErrUncategorized, err)
	}
	if err := s.Users.UpdatePassword(ctx, user.ID, pwHash); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ErrUserNotFound
		}
		l.Error("change_password_failed", "status", 500, "reason", "update", "error", err)
		return fmt.Errorf("%w: %v", ErrUncategorized, err)
	}

	l.Info("password_changed", "user_id", user.ID)
	s.publish(ctx, mykafka.UserEvent{Type: mykafka.EventPasswordChanged, UserID: user.ID, Username: user.Username})
	return nil
}

func (s *AuthService) publish(ctx context.Context, ev mykafka.UserEvent) {
	ev.At = s.Now().UTC()
	if err := s.Events.PublishEvent(ctx, s.Topic, ev.Username, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "event", ev.Type, "error", err)
	}
}
