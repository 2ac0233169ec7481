package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/nicolog/internal/config"
)

func TestLoadFirstRunWritesTemplate(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, ".nicolog", "config.yaml")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr, "template should be written on first run")

	assert.Equal(t, filepath.Join(home, ".nicolog"), cfg.DataDir)
	assert.Equal(t, config.DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, config.DefaultRegion, cfg.Cognito.Region)
	assert.Equal(t, config.DefaultScopes, cfg.Cognito.Scopes)
	assert.Equal(t, "LinkedIn", cfg.Cognito.Providers["linkedin"])
	assert.Equal(t, config.DefaultServerAddr, cfg.Server.Addr)

	// The written template must itself load cleanly.
	again, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadFileValues(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "config.yaml")
	yaml := `
data_dir: /var/lib/nicolog
log:
  level: debug
cognito:
  region: eu-south-1
  user_pool_id: eu-south-1_abc
  client_id: client-123
  providers:
    google: GoogleIdP
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/nicolog", cfg.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, "eu-south-1", cfg.Cognito.Region)
	assert.Equal(t, "eu-south-1_abc", cfg.Cognito.UserPoolID)
	assert.Equal(t, "client-123", cfg.Cognito.ClientID)
	assert.Equal(t, "GoogleIdP", cfg.Cognito.Providers["google"])
	assert.Equal(t, "Facebook", cfg.Cognito.Providers["facebook"])
	assert.NoError(t, cfg.Cognito.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cognito:\n  client_id: from-file\n"), 0o600))

	t.Setenv("NICOLOG_COGNITO_CLIENT_ID", "from-env")
	t.Setenv("NICOLOG_SERVER_ADDR", ":8080")
	t.Setenv("NICOLOG_DATA_DIR", "/tmp/nicolog-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Cognito.ClientID)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/tmp/nicolog-env", cfg.DataDir)
}

func TestLoadInvalidYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestCognitoValidate(t *testing.T) {
	err := config.CognitoConfig{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cognito.region")
	assert.Contains(t, err.Error(), "cognito.client_id")

	assert.NoError(t, config.CognitoConfig{Region: "eu-west-1", ClientID: "x"}.Validate())
}
