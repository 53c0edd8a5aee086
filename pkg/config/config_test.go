package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8360, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Database.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
	// Development falls back to a fixed secret.
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
}

func TestNewEnvOverrides(t *testing.T) {
	t.Setenv("SHELFTALK_SERVER_PORT", "9999")
	t.Setenv("SHELFTALK_DATABASE_PATH", "/tmp/other.sqlite")
	t.Setenv("SHELFTALK_AUTH_JWT_SECRET", "supersecret")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/tmp/other.sqlite", cfg.Database.Path)
	assert.Equal(t, "supersecret", cfg.Auth.JWTSecret)
}

func TestNewProductionRequiresSecret(t *testing.T) {
	t.Setenv("SHELFTALK_ENVIRONMENT", "production")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestNewRejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("SHELFTALK_ENVIRONMENT", "staging")

	_, err := New()
	require.Error(t, err)
}
