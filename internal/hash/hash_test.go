package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndMatch(t *testing.T) {
	t.Parallel()

	h := NewBcrypt(bcrypt.MinCost)
	hashed, err := h.Hash("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, "pw123", hashed)
	assert.True(t, h.Matches("pw123", hashed))
	assert.False(t, h.Matches("pw124", hashed))
}

func TestBcrypt_SaltedOutputDiffers(t *testing.T) {
	t.Parallel()

	h := NewBcrypt(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Matches("same", a))
	assert.True(t, h.Matches("same", b))
}

func TestBcrypt_MalformedHashIsNotAMatch(t *testing.T) {
	t.Parallel()

	h := NewBcrypt(bcrypt.MinCost)
	for _, bad := range []string{"", "plain-text", "$2a$10$short"} {
		assert.False(t, h.Matches("anything", bad), bad)
	}
}

func TestBcrypt_RejectsOverlongPassword(t *testing.T) {
	t.Parallel()

	_, err := NewBcrypt(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewBcrypt_CostOutOfRange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(99).Cost)
	assert.Equal(t, 12, NewBcrypt(12).Cost)
}
