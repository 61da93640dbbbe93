package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher()

	d1, err := h.Hash("s3cret!")
	require.NoError(t, err)
	d2, err := h.Hash("s3cret!")
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2, "digests must be salted")
	assert.NotContains(t, d1, "s3cret!")
	assert.True(t, h.Verify("s3cret!", d1))
	assert.True(t, h.Verify("s3cret!", d2))
	assert.False(t, h.Verify("S3cret!", d1))
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	t.Parallel()
	assert.False(t, NewBcryptHasher().Verify("pw", "not-a-bcrypt-digest"))
	assert.False(t, NewBcryptHasher().Verify("pw", ""))
}

func TestBcryptHasher_TooLong(t *testing.T) {
	t.Parallel()
	_, err := NewBcryptHasher().Hash(strings.Repeat("a", 73))
	require.Error(t, err)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}
