package session

import "errors"

// Registration errors are user-correctable and surfaced verbatim to the
// caller. ErrUnknownPlayer indicates a caller contract violation: it is
// logged server-side and never shown to players.
var (
	ErrNameTaken      = errors.New("username already taken")
	ErrSessionFull    = errors.New("the game is already full")
	ErrGameInProgress = errors.New("the game is currently in progress")
	ErrUnknownPlayer  = errors.New("unknown player id")
)
