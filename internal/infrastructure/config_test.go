package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("TABLE_NAME", "accounts")
	t.Setenv("AWS_REGION", "eu-west-2")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "account-gateway", cfg.Namespace)
	assert.Equal(t, "none", cfg.AuthMode)
	assert.Equal(t, "internal-admin", cfg.AdminBypassRole)
	assert.Equal(t, "accounts", cfg.TableName)
	assert.Equal(t, "eu-west-2", cfg.Region)
}

func TestLoadConfig_MissingTable(t *testing.T) {
	t.Setenv("TABLE_NAME", "")
	t.Setenv("AWS_REGION", "eu-west-2")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_MissingRegion(t *testing.T) {
	t.Setenv("TABLE_NAME", "accounts")
	t.Setenv("AWS_REGION", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_OneLoginModeRequiresIssuerAndJWKS(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_MODE", "onelogin")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("ONELOGIN_JWKS_URL", "https://sso.example.com/certs")
	t.Setenv("ONELOGIN_ISSUER", "https://sso.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "onelogin", cfg.AuthMode)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_NAMESPACE", "account-gateway-staging")
	t.Setenv("ADMIN_BYPASS_ROLE", "platform-admin")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "account-gateway-staging", cfg.Namespace)
	assert.Equal(t, "platform-admin", cfg.AdminBypassRole)
}
