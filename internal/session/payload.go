package session

// Payload is the point-in-time snapshot pushed to every connected player
// after a mutating operation. It is not a diff; clients hold no state other
// than their own last snapshot.
type Payload struct {
	// Roster lists "name : score" for every active player, in id order.
	Roster []string `json:"roster"`

	// StartGame is set on the broadcast that begins a new game.
	StartGame bool `json:"startGame"`

	// EndGame is set on the terminal broadcast of a game.
	EndGame bool `json:"endGame"`

	// GameState tells the recipient whether they may act right now.
	GameState bool `json:"gameState"`

	// ReadyState tells the recipient whether to show a ready control.
	ReadyState bool `json:"readyState"`

	// EndGameMessage carries the winner text when EndGame is set.
	EndGameMessage string `json:"endGameMessage"`

	// RoundStatus is "current/limit", e.g. "2/3".
	RoundStatus string `json:"roundStatus"`
}
