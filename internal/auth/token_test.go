// ABOUTME: Tests for token storage precedence and local JWT expiry inspection
// ABOUTME: Uses t.Setenv for env override cases and t.TempDir for file storage

package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileTokenStore {
	t.Helper()
	t.Setenv(EnvToken, "")
	store, err := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, err)
	return store
}

func TestFileTokenStore_EmptyWhenUnconfigured(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, "", store.Token())
}

func TestFileTokenStore_SaveAndRead(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("my-token"))
	assert.Equal(t, "my-token", store.Token(), "trailing newline is trimmed")
}

func TestFileTokenStore_EnvOverridesFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("file-token"))

	t.Setenv(EnvToken, "env-token")
	assert.Equal(t, "env-token", store.Token())
}

func TestFileTokenStore_Clear(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("tok"))

	require.NoError(t, store.Clear())
	assert.Equal(t, "", store.Token())

	// Clearing an already-missing token is fine.
	require.NoError(t, store.Clear())
}

func TestFileTokenStore_DefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	store, err := NewFileTokenStore("")
	require.NoError(t, err)
	assert.Contains(t, store.Path(), filepath.Join("fluxora", "token"))
}

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "user@example.com",
		"exp": time.Now().Add(expiresIn).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestExpired_ExpiredToken(t *testing.T) {
	assert.True(t, Expired(signedToken(t, -time.Hour)))
}

func TestExpired_ValidToken(t *testing.T) {
	assert.False(t, Expired(signedToken(t, time.Hour)))
}

func TestExpired_NonJWTToken(t *testing.T) {
	// Opaque tokens are the server's business; never flag them locally.
	assert.False(t, Expired("some-opaque-api-key"))
	assert.False(t, Expired(""))
}

func TestExpired_NoExpiryClaim(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{"sub": "user@example.com"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	assert.False(t, Expired(token))
}
