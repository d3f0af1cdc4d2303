package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"quiddler/internal/session"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   *GameSettings  `hcl:"game,block"`
	Words  *WordsSettings `hcl:"words,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// GameSettings controls the table rules for a game session
type GameSettings struct {
	UserCount  int `hcl:"user_count,optional"`
	RoundCount int `hcl:"round_count,optional"`
	GameLimit  int `hcl:"game_limit,optional"`
	TurnLimit  int `hcl:"turn_limit,optional"`
}

// WordsSettings configures the word validator backend
type WordsSettings struct {
	Source string `hcl:"source,optional"`
	Path   string `hcl:"path,optional"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "",
		},
		Game: &GameSettings{
			UserCount:  4,
			RoundCount: 3,
			GameLimit:  200,
			TurnLimit:  60,
		},
		Words: &WordsSettings{
			Source: "file",
			Path:   "words.txt",
		},
	}
}

// LoadConfig loads server configuration from an HCL file. A missing file
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
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}

	if config.Game == nil {
		config.Game = DefaultConfig().Game
	}
	if config.Game.UserCount == 0 {
		config.Game.UserCount = 4
	}
	if config.Game.RoundCount == 0 {
		config.Game.RoundCount = 3
	}
	if config.Game.GameLimit == 0 {
		config.Game.GameLimit = 200
	}
	if config.Game.TurnLimit == 0 {
		config.Game.TurnLimit = 60
	}

	if config.Words == nil {
		config.Words = DefaultConfig().Words
	}
	if config.Words.Source == "" {
		config.Words.Source = "file"
	}
	if config.Words.Path == "" {
		config.Words.Path = "words.txt"
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if c.Game.UserCount < 1 {
		return fmt.Errorf("user_count must be positive, got %d", c.Game.UserCount)
	}
	if c.Game.RoundCount < 1 {
		return fmt.Errorf("round_count must be positive, got %d", c.Game.RoundCount)
	}
	if c.Game.GameLimit < 1 {
		return fmt.Errorf("game_limit must be positive, got %d", c.Game.GameLimit)
	}
	if c.Game.TurnLimit < 1 {
		return fmt.Errorf("turn_limit must be positive, got %d", c.Game.TurnLimit)
	}

	switch c.Words.Source {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid words source: %s", c.Words.Source)
	}
	if c.Words.Path == "" {
		return fmt.Errorf("words path must be set")
	}

	return nil
}

// Address returns the full server listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Rules converts the game settings into session rules
func (c *Config) Rules() session.Rules {
	return session.Rules{
		UserCount:  c.Game.UserCount,
		RoundCount: c.Game.RoundCount,
		GameLimit:  c.Game.GameLimit,
		TurnLimit:  c.Game.TurnLimit,
	}
}
