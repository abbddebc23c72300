package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token has expired")
	ErrMalformed        = errors.New("token is malformed")
	ErrAlreadyRevoked   = errors.New("token already revoked")
)

const minSecretLen = 32

// Claims is the session token payload. Only Subject and Scope matter to
// downstream services; ID (jti) and ExpiresAt drive revocation.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Keys is built once at startup and never mutated; share it by pointer.
type Keys struct {
	secret []byte
	ttl    time.Duration
}

func NewKeys(secret []byte, ttl time.Duration) (*Keys, error) {
	if len(secret) < minSecretLen {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &Keys{secret: s, ttl: ttl}, nil
}
