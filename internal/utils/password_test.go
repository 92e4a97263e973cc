package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("orbital-527", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "orbital-527", hash)

	assert.True(t, VerifyPassword(hash, "orbital-527"))
	assert.False(t, VerifyPassword(hash, "orbital-528"))
	assert.False(t, VerifyPassword("not-a-hash", "orbital-527"))
}
