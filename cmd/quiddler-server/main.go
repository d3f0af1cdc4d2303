package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"quiddler/internal/deck"
	"quiddler/internal/randutil"
	"quiddler/internal/server"
	"quiddler/internal/session"
	"quiddler/internal/words"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"quiddler.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Words    string `short:"w" long:"words" help:"Word list path (overrides config)"`
	Players  int    `short:"p" long:"players" help:"Number of players per game (overrides config)"`
	Seed     int64  `long:"seed" help:"Deck shuffle seed (0 = random)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Load configuration
	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Words != "" {
		cfg.Words.Path = CLI.Words
	}
	if CLI.Players > 0 {
		cfg.Game.UserCount = CLI.Players
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	// Setup logging
	logOutput := os.Stderr
	if cfg.Server.LogFile != "" {
		f, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			fmt.Printf("Failed to open log file: %v\n", err)
			ctx.Exit(1)
		}
		defer func() { _ = f.Close() }()
		logOutput = f
	}

	logger := log.New(logOutput)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	// Load the word validator
	var validator words.Validator
	switch cfg.Words.Source {
	case "sqlite":
		validator, err = words.LoadSQLite(cfg.Words.Path)
	default:
		validator, err = words.LoadFile(cfg.Words.Path)
	}
	if err != nil {
		logger.Error("Failed to load word list", "source", cfg.Words.Source, "path", cfg.Words.Path, "error", err)
		ctx.Exit(1)
	}

	rng := randutil.NewFromTime()
	if CLI.Seed != 0 {
		rng = randutil.New(CLI.Seed)
	}

	coordinator := session.New(cfg.Rules(), deck.New(rng), validator, logger)
	wsServer := server.NewServer(cfg.Address(), coordinator, logger, quartz.NewReal())

	logger.Info("Starting Quiddler Server",
		"addr", cfg.Address(),
		"players", cfg.Game.UserCount,
		"rounds", cfg.Game.RoundCount,
		"words", cfg.Words.Path)

	var g errgroup.Group
	g.Go(wsServer.Start)
	g.Go(func() error {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logger.Info("Shutting down server...")
		_ = wsServer.Stop()
		os.Exit(0)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}
