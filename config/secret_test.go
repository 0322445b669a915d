package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSecretPassesThroughLiterals(t *testing.T) {
	v, err := ResolveSecret(context.Background(), "plain-value")
	require.NoError(t, err)
	assert.Equal(t, "plain-value", v)
}

func TestResolveSecretRejectsMalformedBucketURL(t *testing.T) {
	_, err := ResolveSecret(context.Background(), "gs://no-object-name")
	assert.Error(t, err)
}

func TestResolveSecretsNoOpForLiterals(t *testing.T) {
	cfg := &Config{
		Admin:  AdminConfig{JWTSecret: "literal-secret"},
		Player: PlayerConfig{Password: "literal-password"},
	}
	require.NoError(t, cfg.ResolveSecrets(context.Background()))
	assert.Equal(t, "literal-secret", cfg.Admin.JWTSecret)
	assert.Equal(t, "literal-password", cfg.Player.Password)
}
