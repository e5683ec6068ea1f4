// ABOUTME: File-backed bearer token storage with environment override
// ABOUTME: Clear() is the logout signal; Expired() inspects JWT expiry locally

package auth

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EnvToken overrides the token file when set.
const EnvToken = "FLUXORA_TOKEN"

// FileTokenStore reads and writes the bearer token at a fixed path. The
// environment variable takes precedence over the file on reads.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a token store at path. An empty path selects
// the default location under the user's config directory.
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	if path == "" {
		var err error
		path, err = DefaultTokenPath()
		if err != nil {
			return nil, err
		}
	}
	return &FileTokenStore{path: path}, nil
}

// DefaultTokenPath returns $XDG_CONFIG_HOME/fluxora/token, falling back to
// ~/.config/fluxora/token.
func DefaultTokenPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "fluxora", "token"), nil
}

// Token returns the current bearer token, or "" when none is configured.
// Implements gateway.TokenSource.
func (s *FileTokenStore) Token() string {
	if token := os.Getenv(EnvToken); token != "" {
		return token
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Save writes the token to the store's file with owner-only permissions.
func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token+"\n"), 0600)
}

// Clear removes the stored token. Removing a token that does not exist is
// not an error. This is the logout signal's persistence half.
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the token file location.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Expired reports whether a JWT bearer token's exp claim is in the past.
// The signature is not verified - the server does that - and tokens that
// are not JWTs or carry no expiry are reported as not expired.
func Expired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
