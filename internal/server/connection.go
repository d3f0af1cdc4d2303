package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"quiddler/internal/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one client's WebSocket. It doubles as the player's
// notification channel: the coordinator pushes game updates through Notify.
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	playerID    int
	playerName  string
	coordinator *session.Coordinator
	clock       quartz.Clock
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
}

// NewConnection creates a new connection wrapper.
func NewConnection(conn *websocket.Conn, coordinator *session.Coordinator, logger *log.Logger, clock quartz.Clock) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		coordinator: coordinator,
		clock:       clock,
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Notify implements session.Notifier by pushing a game update to the
// client. It never blocks on the peer: delivery is fire-and-forget via the
// send buffer.
func (c *Connection) Notify(payload session.Payload) error {
	msg, err := NewMessage(MessageTypeGameUpdate, payload, c.clock.Now())
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// SendMessage queues a message for the client.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// PlayerID returns the registered player id, or 0 before registration.
func (c *Connection) PlayerID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// PlayerName returns the registered player name.
func (c *Connection) PlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

func (c *Connection) setPlayer(id int, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = id
	c.playerName = name
}

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := c.clock.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches an incoming client message.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.PlayerName())

	switch msg.Type {
	case MessageTypeRegister:
		var data RegisterData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse register data")
			return
		}
		c.handleRegister(data)

	case MessageTypeJoin:
		var data JoinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join data")
			return
		}
		c.handleJoin(data)

	case MessageTypeUsernameCheck:
		var data UsernameCheckData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse username check data")
			return
		}
		c.respond(MessageTypeUsernameResult, UsernameResultData{
			Name:  data.Name,
			Taken: c.coordinator.UsernameTaken(data.Name),
		})

	case MessageTypeSubmitWord:
		var data SubmitWordData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse word data")
			return
		}
		c.handleSubmitWord(data)

	case MessageTypeRequestCards:
		var data RequestCardsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse card request data")
			return
		}
		c.handleRequestCards(data)

	case MessageTypeReady:
		c.handleReady()

	case MessageTypeLeave:
		c.handleLeave()

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleRegister(data RegisterData) {
	c.logger.Info("Register request", "name", data.Name)

	if c.PlayerID() != 0 {
		c.sendError("already_registered", "Connection already has a player")
		return
	}
	if data.Name == "" {
		c.sendError("invalid_register", "Player name required")
		return
	}

	id, err := c.coordinator.Register(data.Name, c)
	if err != nil {
		c.respond(MessageTypeRegisterResponse, RegisterResponseData{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.setPlayer(id, data.Name)
	c.respond(MessageTypeRegisterResponse, RegisterResponseData{
		Success: true,
		ID:      id,
	})
}

func (c *Connection) handleJoin(data JoinData) {
	id := c.PlayerID()
	if id == 0 {
		c.sendError("not_registered", "Must register first")
		return
	}

	if err := c.coordinator.Join(id, data.Name); err != nil {
		c.sendError("join_failed", err.Error())
		return
	}
	if data.Name != "" {
		c.setPlayer(id, data.Name)
	}
	// No direct response: the refreshed roster arrives as a game update.
}

func (c *Connection) handleSubmitWord(data SubmitWordData) {
	id := c.PlayerID()
	if id == 0 {
		c.sendError("not_registered", "Must register first")
		return
	}

	accepted, score, dealt, err := c.coordinator.SubmitWord(id, data.Word, data.Cards)
	if err != nil {
		c.sendError("submit_failed", err.Error())
		return
	}

	c.respond(MessageTypeWordResult, WordResultData{
		Accepted: accepted,
		Score:    score,
		Cards:    dealt,
	})
}

func (c *Connection) handleRequestCards(data RequestCardsData) {
	if c.PlayerID() == 0 {
		c.sendError("not_registered", "Must register first")
		return
	}

	cards := c.coordinator.RequestCards(data.Count)
	c.respond(MessageTypeCardsDealt, CardsDealtData{Cards: cards})
}

func (c *Connection) handleReady() {
	id := c.PlayerID()
	if id == 0 {
		c.sendError("not_registered", "Must register first")
		return
	}

	if err := c.coordinator.MarkReady(id); err != nil {
		c.sendError("ready_failed", err.Error())
	}
}

func (c *Connection) handleLeave() {
	id := c.PlayerID()
	if id == 0 {
		c.sendError("not_registered", "Must register first")
		return
	}

	if err := c.coordinator.Leave(id); err != nil {
		c.sendError("leave_failed", err.Error())
		return
	}
	c.setPlayer(0, "")
}

// respond sends a typed response to the client, logging marshal failures.
func (c *Connection) respond(mt MessageType, data any) {
	msg, err := NewMessage(mt, data, c.clock.Now())
	if err != nil {
		c.logger.Error("Failed to create message", "type", mt, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

// sendError sends an error message to the client.
func (c *Connection) sendError(code, message string) {
	c.respond(MessageTypeError, ErrorData{Code: code, Message: message})
}
