package client

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete client configuration
type Config struct {
	Server ServerConnection `hcl:"server,block"`
	Player PlayerSettings   `hcl:"player,block"`
}

// ServerConnection contains server connection settings
type ServerConnection struct {
	URL            string `hcl:"url,optional"`
	ConnectTimeout int    `hcl:"connect_timeout,optional"`
	RequestTimeout int    `hcl:"request_timeout,optional"`
}

// PlayerSettings contains player-specific settings
type PlayerSettings struct {
	Name     string `hcl:"name,optional"`
	HandSize int    `hcl:"hand_size,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConnection{
			URL:            "http://localhost:8080",
			ConnectTimeout: 10,
			RequestTimeout: 30,
		},
		Player: PlayerSettings{
			Name:     "",
			HandSize: 10,
			LogLevel: "warn",
			LogFile:  "",
		},
	}
}

// LoadConfig loads client configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()

	if config.Server.URL == "" {
		config.Server.URL = defaults.Server.URL
	}
	if config.Server.ConnectTimeout == 0 {
		config.Server.ConnectTimeout = defaults.Server.ConnectTimeout
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = defaults.Server.RequestTimeout
	}

	if config.Player.HandSize == 0 {
		config.Player.HandSize = defaults.Player.HandSize
	}
	if config.Player.LogLevel == "" {
		config.Player.LogLevel = defaults.Player.LogLevel
	}

	return &config, nil
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}

	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.Player.HandSize < 1 {
		return fmt.Errorf("hand size must be positive")
	}

	switch c.Player.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Player.LogLevel)
	}

	return nil
}
