package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("courgette2024")
	require.NoError(t, err)
	assert.True(t, IsArgon2Hash(hash))

	ok, err := VerifyPassword("courgette2024", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPasswordWrongPassword(t *testing.T) {
	hash, err := HashPassword("courgette2024")
	require.NoError(t, err)

	ok, err := VerifyPassword("aubergine2024", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	ok, err := VerifyPassword("courgette2024", "pas-un-hash")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h1, err := HashPassword("courgette2024")
	require.NoError(t, err)
	h2, err := HashPassword("courgette2024")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}
