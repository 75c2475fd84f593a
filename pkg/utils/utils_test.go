package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestIsEmail(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"a@x.com":            true,
		"first.last@ngo.org": true,
		"":                   false,
		"no-at-sign":         false,
		"Ada <a@x.com>":      false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsEmail(in), in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "admin@ngo.org", NormalizeEmail("  Admin@NGO.org "))
}

func TestMaskValue(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "****", MaskValue("short"))
	assert.Equal(t, "sk****cdef", MaskValue("sk_live_abcdef"))
}
