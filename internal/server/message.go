package server

import (
	"encoding/json"
	"time"
)

// Message is the base WebSocket message envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message stamped with the given time.
func NewMessage(messageType MessageType, data any, at time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: at,
	}, nil
}

// Client → Server Messages

type RegisterData struct {
	Name string `json:"name"`
}

type JoinData struct {
	Name string `json:"name,omitempty"`
}

type UsernameCheckData struct {
	Name string `json:"name"`
}

type SubmitWordData struct {
	Word string `json:"word"`
	// Cards lists the card tokens consumed by the word; when empty the
	// word is treated as single-letter cards.
	Cards []string `json:"cards,omitempty"`
}

type RequestCardsData struct {
	Count int `json:"count"`
}

// Server → Client Messages

type RegisterResponseData struct {
	Success bool   `json:"success"`
	ID      int    `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type UsernameResultData struct {
	Name  string `json:"name"`
	Taken bool   `json:"taken"`
}

type CardsDealtData struct {
	Cards []string `json:"cards"`
}

type WordResultData struct {
	Accepted bool     `json:"accepted"`
	Score    int      `json:"score"`
	Cards    []string `json:"cards,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
