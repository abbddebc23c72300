package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/comic_reader/internal/logging"
	"github.com/Skotchmaster/comic_reader/internal/models"
)

// Ledger is the revocation store the service writes on logout/refresh and
// reads during introspection.
type Ledger interface {
	Exists(ctx context.Context, jti string) (bool, error)
	Save(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
}

type Issued struct {
	Token     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Introspection struct {
	Valid bool `json:"valid"`
}

type Service struct {
	keys   *Keys
	ledger Ledger
	now    func() time.Time
	newJTI func() string
	parser *jwt.Parser
}

type Option func(*Service)

// WithClock replaces time.Now for both issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(keys *Keys, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		keys:   keys,
		ledger: ledger,
		now:    time.Now,
		newJTI: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return s
}

func (s *Service) Issue(user *models.User) (*Issued, error) {
	if user == nil || user.Username == "" {
		return nil, errors.New("issue: user without username")
	}

	// NumericDate has second precision; truncating here keeps exp exactly
	// iat + ttl after the round trip.
	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.keys.ttl)
	jti := s.newJTI()

	claims := Claims{
		Scope: user.Role.Scope(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.keys.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Issued{
		Token:     signed,
		JTI:       jti,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks signature and expiry only. Revocation is a separate step so
// callers can tell a forged or stale token from a revoked one.
func (s *Service) Verify(raw string) (*Claims, error) {
	var claims Claims
	tkn, err := s.parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.keys.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if !tkn.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrMalformed
	}
	return &claims, nil
}

func (s *Service) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.ledger.Exists(ctx, jti)
}

// Revoke records the token's jti until its natural expiry. Revoking the same
// token twice is not an error.
func (s *Service) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrMalformed
	}
	_, err := s.ledger.Save(ctx, claims.ID, claims.ExpiresAt.Time)
	return err
}

// Consume revokes the token and fails with ErrAlreadyRevoked unless this call
// was the one that put its jti on the list. At most one concurrent caller
// wins for a given token.
func (s *Service) Consume(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrMalformed
	}
	inserted, err := s.ledger.Save(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrAlreadyRevoked
	}
	return nil
}

// Introspect never returns an error: anything short of a verified,
// unrevoked token reads as invalid.
func (s *Service) Introspect(ctx context.Context, raw string) Introspection {
	claims, err := s.Verify(raw)
	if err != nil {
		return Introspection{Valid: false}
	}
	revoked, err := s.IsRevoked(ctx, claims.ID)
	if err != nil {
		logging.FromContext(ctx).Warn("introspect_ledger_error", "jti", claims.ID, "error", err)
		return Introspection{Valid: false}
	}
	return Introspection{Valid: !revoked}
}
