package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBoxSealOpen(t *testing.T) {
	box, err := NewTokenBox("session-secret")
	require.NoError(t, err)

	sealed, err := box.Seal("ya29.access-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "ya29")

	again, err := box.Seal("ya29.access-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", plain)
}

func TestTokenBoxEmpty(t *testing.T) {
	box, err := NewTokenBox("s")
	require.NoError(t, err)

	sealed, err := box.Seal("")
	require.NoError(t, err)
	assert.Equal(t, "", sealed)

	plain, err := box.Open("")
	require.NoError(t, err)
	assert.Equal(t, "", plain)
}

func TestTokenBoxRejectsTampering(t *testing.T) {
	box, _ := NewTokenBox("one")
	other, _ := NewTokenBox("two")

	sealed, err := box.Seal("refresh")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrInvalidSealed)

	_, err = box.Open("short")
	assert.ErrorIs(t, err, ErrInvalidSealed)
}

func TestNewTokenBoxRequiresSecret(t *testing.T) {
	_, err := NewTokenBox("")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
