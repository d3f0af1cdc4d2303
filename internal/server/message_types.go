package server

// MessageType identifies a WebSocket message with type safety.
type MessageType string

const (
	// Client to server messages
	MessageTypeRegister      MessageType = "register"
	MessageTypeJoin          MessageType = "join"
	MessageTypeUsernameCheck MessageType = "username_check"
	MessageTypeSubmitWord    MessageType = "submit_word"
	MessageTypeRequestCards  MessageType = "request_cards"
	MessageTypeReady         MessageType = "ready"
	MessageTypeLeave         MessageType = "leave"

	// Server to client messages
	MessageTypeRegisterResponse MessageType = "register_response"
	MessageTypeUsernameResult   MessageType = "username_result"
	MessageTypeCardsDealt       MessageType = "cards_dealt"
	MessageTypeWordResult       MessageType = "word_result"
	MessageTypeGameUpdate       MessageType = "game_update"
	MessageTypeError            MessageType = "error"
)

// String returns the string representation of the message type.
func (mt MessageType) String() string {
	return string(mt)
}
