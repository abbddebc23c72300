package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for inputs bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

type Hasher interface {
	Hash(password string) (string, error)
	Matches(password, hash string) bool
}

type Bcrypt struct {
	Cost int
}

// NewBcrypt falls back to bcrypt.DefaultCost when cost is outside bcrypt's range.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{Cost: cost}
}

func (b *Bcrypt) Hash(password string) (string, error) {
	if len(password) > 72 {
		return "", ErrPasswordTooLong
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

// Matches never errors: a malformed hash is simply not a match.
func (b *Bcrypt) Matches(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
