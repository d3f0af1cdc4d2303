package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaultsWhenFileMissing(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "no-such-file.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Address())
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 4, cfg.Game.UserCount)
	assert.Equal(t, 3, cfg.Game.RoundCount)
	assert.Equal(t, "file", cfg.Words.Source)
	assert.Equal(t, "words.txt", cfg.Words.Path)
	require.NoError(t, cfg.Validate())
}

func TestConfigLoadFromFile(t *testing.T) {
	t.Parallel()

	content := `
server {
  address   = "0.0.0.0"
  port      = 9000
  log_level = "debug"
  log_file  = "quiddler.log"
}

game {
  user_count  = 2
  round_count = 5
}

words {
  source = "sqlite"
  path   = "words.db"
}
`
	path := filepath.Join(t.TempDir(), "quiddler.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9000", cfg.Address())
	assert.Equal(t, "quiddler.log", cfg.Server.LogFile)
	assert.Equal(t, 2, cfg.Game.UserCount)
	assert.Equal(t, 5, cfg.Game.RoundCount)
	// Unset game values fall back to defaults
	assert.Equal(t, 200, cfg.Game.GameLimit)
	assert.Equal(t, 60, cfg.Game.TurnLimit)
	assert.Equal(t, "sqlite", cfg.Words.Source)
	assert.Equal(t, "words.db", cfg.Words.Path)
}

func TestConfigLoadPartialFile(t *testing.T) {
	t.Parallel()

	content := `
server {
  port = 4242
}
`
	path := filepath.Join(t.TempDir(), "partial.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:4242", cfg.Address())
	require.NotNil(t, cfg.Game)
	assert.Equal(t, 4, cfg.Game.UserCount)
	require.NotNil(t, cfg.Words)
	assert.Equal(t, "file", cfg.Words.Source)
}

func TestConfigLoadBadSyntax(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`server { port = `), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "verbose" }},
		{"zero players", func(c *Config) { c.Game.UserCount = 0 }},
		{"zero rounds", func(c *Config) { c.Game.RoundCount = -1 }},
		{"bad words source", func(c *Config) { c.Words.Source = "redis" }},
		{"empty words path", func(c *Config) { c.Words.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigRules(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Game.UserCount = 3
	cfg.Game.RoundCount = 8

	rules := cfg.Rules()
	assert.Equal(t, 3, rules.UserCount)
	assert.Equal(t, 8, rules.RoundCount)
	assert.Equal(t, 200, rules.GameLimit)
	assert.Equal(t, 60, rules.TurnLimit)
}
