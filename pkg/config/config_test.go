package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiredFieldMissing(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")

	cfg, err := New()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required config")
	assert.Contains(t, err.Error(), "DATABASE_FILE_PATH")
	assert.Contains(t, err.Error(), "BACKEND_URL")
}

func TestNew_WithEnvVar(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DATABASE_FILE_PATH", "/tmp/test.db")
	t.Setenv("BACKEND_URL", "https://api.maktaba.example")
	t.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.DatabaseFilePath)
	assert.Equal(t, "https://api.maktaba.example", cfg.BackendURL)
}

func TestNew_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database_file_path: /data/agent.db
backend_url: https://api.maktaba.example
server_port: 8080
database_debug: true
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CONFIG_FILE", configPath)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/agent.db", cfg.DatabaseFilePath)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.True(t, cfg.DatabaseDebug)
}

func TestNew_EnvVarOverridesConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database_file_path: /data/agent.db
backend_url: https://api.maktaba.example
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CONFIG_FILE", configPath)
	t.Setenv("DATABASE_FILE_PATH", "/override/agent.db")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/override/agent.db", cfg.DatabaseFilePath)
	assert.Equal(t, "https://api.maktaba.example", cfg.BackendURL)
}

func TestNew_TestDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, 0, cfg.ServerPort)
}
