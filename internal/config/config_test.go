package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/nexus")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8000", cfg.HTTPPort)
	require.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	require.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 5*time.Minute, cfg.StateTTL)
	require.Equal(t, []string{"openid", "email", "profile"}, cfg.OAuth.Scopes)
	require.Equal(t, "http://localhost:8000/auth/callback", cfg.OAuth.RedirectURI())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/nexus")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("OAUTH_STATE_TTL", "90s")
	t.Setenv("OAUTH_BASE_URL", "https://api.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.HTTPPort)
	require.Equal(t, 90*time.Second, cfg.StateTTL)
	require.Equal(t, "https://api.example.com/auth/callback", cfg.OAuth.RedirectURI())
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "jwt-secret-value")
	t.Setenv("OAUTH_CLIENT_ID", "client-id")
	t.Setenv("OAUTH_CLIENT_SECRET", "client-secret")

	secrets, err := LoadSecrets()
	require.NoError(t, err)
	require.Equal(t, []byte("jwt-secret-value"), secrets.JWTSecret)

	secrets.Scrub()
	require.Nil(t, secrets.JWTSecret)
	require.Nil(t, secrets.ClientID)
	require.Nil(t, secrets.ClientSecret)
}

func TestLoadSecretsMissing(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("OAUTH_CLIENT_ID", "client-id")
	t.Setenv("OAUTH_CLIENT_SECRET", "client-secret")

	_, err := LoadSecrets()
	require.Error(t, err)
}
