package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"quiddler/internal/server" // Reuse message types
)

// Client represents a WebSocket client for the word game
type Client struct {
	serverURL  string
	conn       *websocket.Conn
	send       chan *server.Message
	receive    chan *server.Message
	logger     *log.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.RWMutex
	connected  bool
	playerName string
	playerID   int
	closeOnce  sync.Once

	// Event handlers
	eventHandlers map[server.MessageType][]EventHandler
}

// EventHandler is a function that handles incoming events
type EventHandler func(*server.Message)

// NewClient creates a new WebSocket client
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:     serverURL,
		send:          make(chan *server.Message, 256),
		receive:       make(chan *server.Message, 256),
		logger:        logger.WithPrefix("client"),
		ctx:           ctx,
		cancel:        cancel,
		eventHandlers: make(map[server.MessageType][]EventHandler),
	}
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect() error {
	c.logger.Info("Connecting to server", "url", c.serverURL)

	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	// Convert http/https to ws/wss
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	// Add WebSocket path
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventProcessor()

	c.logger.Info("Connected to server")
	return nil
}

// Disconnect closes the WebSocket connection
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.Close() // Ignore close errors during shutdown
			c.connected = false
		}

		close(c.send)
		close(c.receive)

		c.logger.Info("Disconnected from server")
	})
	return nil
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SendMessage sends a message to the server
func (c *Client) SendMessage(msg *server.Message) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg server.Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.logger.Debug("Received message", "type", msg.Type)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second) // Ping interval
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// eventProcessor processes incoming messages and dispatches to handlers
func (c *Client) eventProcessor() {
	for {
		select {
		case msg := <-c.receive:
			c.handleMessage(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches messages to registered handlers
func (c *Client) handleMessage(msg *server.Message) {
	c.mu.RLock()
	handlers, exists := c.eventHandlers[msg.Type]
	c.mu.RUnlock()

	if exists {
		for _, handler := range handlers {
			go handler(msg) // Handle asynchronously
		}
	} else {
		c.logger.Debug("No handler for message type", "type", msg.Type)
	}
}

// AddEventHandler adds an event handler for a specific message type
func (c *Client) AddEventHandler(messageType server.MessageType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.eventHandlers[messageType] = append(c.eventHandlers[messageType], handler)
}

// Register registers a player name with the server
func (c *Client) Register(playerName string) error {
	c.mu.Lock()
	c.playerName = playerName
	c.mu.Unlock()

	msg, err := server.NewMessage(server.MessageTypeRegister, server.RegisterData{
		Name: playerName,
	}, time.Now())
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// Join announces the registered player to the table
func (c *Client) Join() error {
	msg, err := server.NewMessage(server.MessageTypeJoin, server.JoinData{}, time.Now())
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// CheckUsername asks the server whether a name is already taken
func (c *Client) CheckUsername(name string) error {
	msg, err := server.NewMessage(server.MessageTypeUsernameCheck, server.UsernameCheckData{
		Name: name,
	}, time.Now())
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// SubmitWord plays a word made from the given cards
func (c *Client) SubmitWord(word string, cards []string) error {
	msg, err := server.NewMessage(server.MessageTypeSubmitWord, server.SubmitWordData{
		Word:  word,
		Cards: cards,
	}, time.Now())
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// RequestCards asks the dealer for count cards
func (c *Client) RequestCards(count int) error {
	msg, err := server.NewMessage(server.MessageTypeRequestCards, server.RequestCardsData{
		Count: count,
	}, time.Now())
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// Ready marks the player as ready for the next game
func (c *Client) Ready() error {
	msg, err := server.NewMessage(server.MessageTypeReady, nil, time.Now())
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// Leave removes the player from the table
func (c *Client) Leave() error {
	msg, err := server.NewMessage(server.MessageTypeLeave, nil, time.Now())
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// SetPlayerID records the id assigned by the server
func (c *Client) SetPlayerID(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = id
}

// GetPlayerID returns the id assigned by the server, or 0 before registration
func (c *Client) GetPlayerID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// GetPlayerName returns the player name
func (c *Client) GetPlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// WaitForMessage waits for a specific message type with timeout
func (c *Client) WaitForMessage(messageType server.MessageType, timeout time.Duration) (*server.Message, error) {
	responseChan := make(chan *server.Message, 1)

	// Add temporary handler
	handler := func(msg *server.Message) {
		select {
		case responseChan <- msg:
		default:
		}
	}

	c.AddEventHandler(messageType, handler)

	// Wait for response or timeout
	select {
	case msg := <-responseChan:
		return msg, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for %s", messageType)
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}
