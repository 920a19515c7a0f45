package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	first, err := h.Hash("correct horse")
	require.NoError(t, err)
	second, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "salted hashes should differ")
	assert.True(t, h.Verify("correct horse", first))
	assert.True(t, h.Verify("correct horse", second))
	assert.False(t, h.Verify("wrong horse", first))
}

func TestArgon2idHasherRoundTrip(t *testing.T) {
	h := Argon2idHasher{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	encoded, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.True(t, h.Verify("s3cret", encoded))
	assert.False(t, h.Verify("s3cret!", encoded))
}

func TestHashRejectsLongPasswords(t *testing.T) {
	long := strings.Repeat("a", MaxPasswordBytes+1)

	_, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash(long)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = NewArgon2idHasher().Hash(long)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyMalformedHashIsFalse(t *testing.T) {
	h, err := NewHasher("bcrypt")
	require.NoError(t, err)

	for _, encoded := range []string{
		"",
		"plaintext",
		"$2a$10$short",
		"$argon2id$v=19$m=abc$salt$key",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
	} {
		assert.False(t, h.Verify("anything", encoded), "encoded=%q", encoded)
	}
}

func TestNewHasherVerifiesEitherAlgorithm(t *testing.T) {
	bcryptHash, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash("pw")
	require.NoError(t, err)
	argonHash, err := Argon2idHasher{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}.Hash("pw")
	require.NoError(t, err)

	for _, name := range []string{"bcrypt", "argon2id"} {
		h, err := NewHasher(name)
		require.NoError(t, err)
		assert.True(t, h.Verify("pw", bcryptHash), name)
		assert.True(t, h.Verify("pw", argonHash), name)
	}
}

func TestNewHasherUnknown(t *testing.T) {
	_, err := NewHasher("md5")
	assert.ErrorIs(t, err, ErrUnknownHasher)
}
