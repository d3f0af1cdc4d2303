package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"quiddler/internal/client"
	"quiddler/internal/server"
	"quiddler/internal/session"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"quiddler-client.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" long:"server" help:"Server URL to connect to (overrides config)"`
	Player   string `short:"p" long:"player" help:"Player name (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	LogFile  string `long:"log-file" help:"Log file path (overrides config)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Load configuration
	cfg, err := client.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Server != "" {
		cfg.Server.URL = CLI.Server
	}
	if CLI.Player != "" {
		cfg.Player.Name = CLI.Player
	}
	if CLI.LogLevel != "" {
		cfg.Player.LogLevel = CLI.LogLevel
	}
	if CLI.LogFile != "" {
		cfg.Player.LogFile = CLI.LogFile
	}

	// Get player name if not set
	if cfg.Player.Name == "" {
		fmt.Print("Enter your player name: ")
		var input string
		_, _ = fmt.Scanln(&input)
		cfg.Player.Name = strings.TrimSpace(input)
		if cfg.Player.Name == "" {
			fmt.Println("Player name is required")
			ctx.Exit(1)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	// Setup logging, to a file when configured so the console stays readable
	logOutput := os.Stderr
	if cfg.Player.LogFile != "" {
		f, err := os.OpenFile(cfg.Player.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			fmt.Printf("Failed to open log file: %v\n", err)
			ctx.Exit(1)
		}
		defer func() { _ = f.Close() }()
		logOutput = f
	}

	logger := log.New(logOutput)
	switch cfg.Player.LogLevel {
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

	wsClient := client.NewClient(cfg.Server.URL, logger)
	registerHandlers(wsClient)

	if err := wsClient.Connect(); err != nil {
		fmt.Printf("Failed to connect to server: %v\n", err)
		ctx.Exit(1)
	}
	defer func() { _ = wsClient.Disconnect() }()

	if err := wsClient.Register(cfg.Player.Name); err != nil {
		fmt.Printf("Failed to register: %v\n", err)
		ctx.Exit(1)
	}

	timeout := time.Duration(cfg.Server.RequestTimeout) * time.Second
	msg, err := wsClient.WaitForMessage(server.MessageTypeRegisterResponse, timeout)
	if err != nil {
		fmt.Printf("No register response: %v\n", err)
		ctx.Exit(1)
	}

	var resp server.RegisterResponseData
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		fmt.Printf("Bad register response: %v\n", err)
		ctx.Exit(1)
	}
	if !resp.Success {
		fmt.Printf("Registration rejected: %s\n", resp.Error)
		ctx.Exit(1)
	}
	wsClient.SetPlayerID(resp.ID)

	if err := wsClient.Join(); err != nil {
		fmt.Printf("Failed to join: %v\n", err)
		ctx.Exit(1)
	}

	fmt.Println("=== Quiddler Client ===")
	fmt.Println("Connected to server: " + cfg.Server.URL)
	fmt.Println("Player: " + cfg.Player.Name)
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  ready                  - mark yourself ready for the next game")
	fmt.Println("  draw <count>           - draw cards from the deck")
	fmt.Println("  play <word> [cards...] - play a word, optionally naming the cards used")
	fmt.Println("  check <name>           - check whether a username is taken")
	fmt.Println("  leave                  - leave the table")
	fmt.Println("  quit                   - quit the game")
	fmt.Println()

	runCommandLoop(wsClient, cfg.Player.HandSize)
}

// registerHandlers wires server pushes to console output.
func registerHandlers(c *client.Client) {
	c.AddEventHandler(server.MessageTypeGameUpdate, func(msg *server.Message) {
		var payload session.Payload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return
		}

		fmt.Printf("\n--- Round %s ---\n", payload.RoundStatus)
		for _, line := range payload.Roster {
			fmt.Println("  " + line)
		}
		switch {
		case payload.EndGame:
			fmt.Println(payload.EndGameMessage)
		case payload.StartGame:
			fmt.Println("Game on! Play a word when you are ready.")
		case payload.GameState:
			fmt.Println("Your turn is open.")
		case payload.ReadyState:
			fmt.Println("Waiting for players to ready up.")
		default:
			fmt.Println("Waiting for the other players to finish their turns.")
		}
	})

	c.AddEventHandler(server.MessageTypeCardsDealt, func(msg *server.Message) {
		var data server.CardsDealtData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		if len(data.Cards) == 0 {
			fmt.Println("The deck is out of cards.")
			return
		}
		fmt.Printf("Your cards: %s\n", strings.Join(data.Cards, " "))
	})

	c.AddEventHandler(server.MessageTypeWordResult, func(msg *server.Message) {
		var data server.WordResultData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		if data.Accepted {
			fmt.Printf("Word accepted for %d points!\n", data.Score)
			if len(data.Cards) > 0 {
				fmt.Printf("Replacement cards: %s\n", strings.Join(data.Cards, " "))
			}
		} else {
			fmt.Println("Word rejected, no points this turn.")
		}
	})

	c.AddEventHandler(server.MessageTypeUsernameResult, func(msg *server.Message) {
		var data server.UsernameResultData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		if data.Taken {
			fmt.Printf("%q is taken.\n", data.Name)
		} else {
			fmt.Printf("%q is available.\n", data.Name)
		}
	})

	c.AddEventHandler(server.MessageTypeError, func(msg *server.Message) {
		var data server.ErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		fmt.Printf("Server error (%s): %s\n", data.Code, data.Message)
	})
}

// runCommandLoop reads player commands from stdin until quit or EOF.
func runCommandLoop(c *client.Client, handSize int) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "ready":
			err = c.Ready()

		case "draw":
			count := handSize
			if len(fields) > 1 {
				count, err = strconv.Atoi(fields[1])
				if err != nil {
					fmt.Println("Usage: draw <count>")
					continue
				}
			}
			err = c.RequestCards(count)

		case "play":
			if len(fields) < 2 {
				fmt.Println("Usage: play <word> [cards...]")
				continue
			}
			err = c.SubmitWord(fields[1], fields[2:])

		case "check":
			if len(fields) != 2 {
				fmt.Println("Usage: check <name>")
				continue
			}
			err = c.CheckUsername(fields[1])

		case "leave":
			err = c.Leave()

		case "quit":
			_ = c.Leave()
			return

		default:
			fmt.Printf("Unknown command: %s\n", fields[0])
			continue
		}

		if err != nil {
			fmt.Printf("Command failed: %v\n", err)
		}
	}
}
