package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/habitflow/internal/keyring"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	gokeyring.MockInit()
	path := writeFile(t, `
backend:
  endpoint: /tmp/habits.db
  api_key: hf_0123456789abcdef
log:
  level: debug
timezone: Asia/Tokyo
completion_window_days: 14
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/habits.db", cfg.Backend.Endpoint)
	assert.Equal(t, "hf_0123456789abcdef", cfg.Backend.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, 14, cfg.CompletionWindowDays)
	assert.Equal(t, path, cfg.Path)
	assert.Empty(t, cfg.Backend.Missing())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	gokeyring.MockInit()
	path := writeFile(t, "backend:\n  endpoint: /tmp/file.db\n")
	t.Setenv(EnvEndpoint, "memory:")
	t.Setenv(EnvAPIKey, "hf_fromenvironment00")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory:", cfg.Backend.Endpoint)
	assert.Equal(t, "hf_fromenvironment00", cfg.Backend.APIKey)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "Local", cfg.Timezone)
	assert.Equal(t, 30, cfg.CompletionWindowDays)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, []string{EnvEndpoint, EnvAPIKey}, cfg.Backend.Missing())
}

func TestLoadExplicitMissingFile(t *testing.T) {
	gokeyring.MockInit()
	path := filepath.Join(t.TempDir(), "fresh", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, filepath.Dir(path), cfg.Dir())
}

func TestLoadMissingFileFromEnv(t *testing.T) {
	gokeyring.MockInit()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
}

func TestLoadAPIKeyFromKeyring(t *testing.T) {
	gokeyring.MockInit()
	require.NoError(t, keyring.SetAPIKey("hf_storedinkeyring0"))
	path := writeFile(t, "backend:\n  endpoint: \"memory:\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hf_storedinkeyring0", cfg.Backend.APIKey)
	assert.Empty(t, cfg.Backend.Missing())
}

func TestValidate(t *testing.T) {
	base := Config{Log: Log{Level: "warn"}, Timezone: "UTC", CompletionWindowDays: 30}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"zero window", func(c *Config) { c.CompletionWindowDays = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestSaveOmitsAPIKey(t *testing.T) {
	gokeyring.MockInit()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Config{
		Backend:              Backend{Endpoint: "/tmp/h.db", APIKey: "hf_secretsecret000"},
		Log:                  Log{Level: "info"},
		Timezone:             "UTC",
		CompletionWindowDays: 30,
	}
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hf_secretsecret000")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/h.db", loaded.Backend.Endpoint)
	assert.Empty(t, loaded.Backend.APIKey)
}

func TestSaveQuotesMemoryEndpoint(t *testing.T) {
	gokeyring.MockInit()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Config{
		Backend:              Backend{Endpoint: "memory:"},
		Log:                  Log{Level: "warn"},
		Timezone:             "UTC",
		CompletionWindowDays: 30,
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory:", loaded.Backend.Endpoint)
}
