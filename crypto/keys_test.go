package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeypairRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "id.json")
	key, err := GenerateKeypair()
	require.NoError(t, err)
	require.NoError(t, SaveKeypair(path, key))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadKeypair(path)
	require.NoError(t, err)
	require.Equal(t, key.PublicKey(), loaded.PublicKey())
}

func TestEnsureKeypairGeneratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	first, created, err := EnsureKeypair(path)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := EnsureKeypair(path)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.PublicKey(), second.PublicKey())
}

func TestSaveKeypairRejectsEmptyInput(t *testing.T) {
	key, err := GenerateKeypair()
	require.NoError(t, err)
	require.Error(t, SaveKeypair("", key))
	require.Error(t, SaveKeypair(filepath.Join(t.TempDir(), "id.json"), nil))
	_, err = LoadKeypair("")
	require.Error(t, err)
}

func TestParsePublicKey(t *testing.T) {
	key, err := ParsePublicKey(" 11111111111111111111111111111111 ")
	require.NoError(t, err)
	require.True(t, key.IsZero())

	_, err = ParsePublicKey("not-base58!")
	require.ErrorIs(t, err, ErrInvalidPublicKey)

	zero, err := ParseOptionalPublicKey("")
	require.NoError(t, err)
	require.True(t, zero.IsZero())
}
