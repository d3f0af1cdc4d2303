// Package session implements the multiplayer session coordinator: the single
// shared game-state authority. It serializes all mutating requests, runs the
// round/game state machine, and pushes snapshot payloads to every connected
// player after each mutation.
package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"quiddler/internal/deck"
	"quiddler/internal/words"
)

// Rules carries the configured game limits. The coordinator reads them once
// at construction and never reloads them. GameLimit and TurnLimit are
// validated at load but unused by the current state machine.
type Rules struct {
	UserCount  int
	RoundCount int
	GameLimit  int
	TurnLimit  int
}

// A score at or above this earns the congratulatory suffix on the winner
// message.
const congratsScore = 40

// Coordinator owns all session state. Exactly one instance exists for the
// process lifetime.
//
// Locking discipline: every mutating operation holds mu while it updates
// state and builds the per-recipient payloads, then hands off to flush,
// which releases mu before pushing. Pushes never hold mu, so a recipient
// that issues a new request while processing a push cannot deadlock; bmu
// keeps broadcasts in mutation order.
type Coordinator struct {
	mu  sync.RWMutex
	bmu sync.Mutex

	rules     Rules
	deck      *deck.Deck
	words     words.Validator
	notifiers *notifierSet
	logger    *log.Logger

	players    map[int]*Player
	nextID     int
	round      int
	inProgress bool
	gameID     string
}

// New creates the session coordinator.
func New(rules Rules, d *deck.Deck, v words.Validator, logger *log.Logger) *Coordinator {
	logger = logger.WithPrefix("session")
	return &Coordinator{
		rules:     rules,
		deck:      d,
		words:     v,
		notifiers: newNotifierSet(logger),
		logger:    logger,
		players:   make(map[int]*Player),
		nextID:    1,
	}
}

// Register admits a new player and attaches their push channel. Ids are
// strictly increasing from 1 and never reused. Fails while a game is in
// progress, when the session is full, or when the name is already held by
// an active player (case-sensitive exact match).
func (c *Coordinator) Register(name string, n Notifier) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inProgress {
		c.logger.Info("Login attempt made while the game was in progress", "name", name)
		return 0, ErrGameInProgress
	}
	if len(c.players) >= c.rules.UserCount {
		c.logger.Info("Login attempt made while the game was full", "name", name)
		return 0, ErrSessionFull
	}
	if c.nameTakenLocked(name) {
		c.logger.Info("Login attempt made with duplicate username", "name", name)
		return 0, ErrNameTaken
	}

	id := c.nextID
	c.nextID++
	c.players[id] = &Player{ID: id, Name: name}
	c.notifiers.add(id, n)

	c.logger.Info("New client added to the game", "id", id, "name", name)
	return id, nil
}

// Join announces a registered player to the session by broadcasting the
// refreshed roster. It does not change the phase. A non-empty name renames
// the player, subject to the same uniqueness rule Register enforces.
func (c *Coordinator) Join(id int, name string) error {
	c.mu.Lock()
	p, ok := c.players[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Error("Join for unknown player id", "id", id)
		return ErrUnknownPlayer
	}
	if name != "" && name != p.Name {
		if c.nameTakenLocked(name) {
			c.mu.Unlock()
			c.logger.Info("Join attempt made with duplicate username", "id", id, "name", name)
			return ErrNameTaken
		}
		p.Name = name
	}
	c.logger.Info("Player joined the game", "player", p.Name, "players", len(c.players))

	c.flush(c.stepLocked(false))
	return nil
}

// SubmitWord validates the word and, if valid, adds its score and redraws
// the cards consumed. An invalid word awards zero. Either way the player's
// turn ends and the transition rules run exactly once. Deck exhaustion
// during the redraw is swallowed here and surfaced as a forced end-game
// broadcast; the player simply receives no further cards.
func (c *Coordinator) SubmitWord(id int, word string, cardsUsed []string) (accepted bool, score int, dealt []string, err error) {
	c.mu.Lock()
	p, ok := c.players[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Error("Word submission for unknown player id", "id", id)
		return false, 0, nil, ErrUnknownPlayer
	}

	if len(cardsUsed) == 0 {
		cardsUsed = splitLetters(word)
	}

	exhausted := false
	accepted = word != "" && c.words.Validate(word)
	if accepted {
		p.Score += c.deck.Score(cardsUsed)
		c.logger.Info("Word completed", "player", p.Name, "word", word, "score", p.Score)

		for range cardsUsed {
			card, derr := c.deck.Draw()
			if derr != nil {
				c.logger.Error("Deck exhausted during redraw", "player", p.Name, "error", derr)
				exhausted = true
				dealt = nil
				break
			}
			dealt = append(dealt, card)
		}
	} else {
		c.logger.Info("Word rejected", "player", p.Name, "word", word)
	}

	p.TurnEnded = true
	score = p.Score

	c.flush(c.stepLocked(exhausted))
	return accepted, score, dealt, nil
}

// MarkReady sets the player's ready flag. If this completes the all-ready
// set, the next broadcast starts a new game.
func (c *Coordinator) MarkReady(id int) error {
	c.mu.Lock()
	p, ok := c.players[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Error("Ready for unknown player id", "id", id)
		return ErrUnknownPlayer
	}
	p.Ready = true
	c.logger.Debug("Player is ready", "player", p.Name)

	c.flush(c.stepLocked(false))
	return nil
}

// Leave removes the player and their channel. When the last player leaves
// the session returns to the lobby with the round counter cleared.
func (c *Coordinator) Leave(id int) error {
	c.mu.Lock()
	p, ok := c.players[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Error("Leave for unknown player id", "id", id)
		return ErrUnknownPlayer
	}
	c.logger.Info("Player is leaving the game", "player", p.Name)

	delete(c.players, id)
	c.notifiers.remove(id)

	if len(c.players) == 0 {
		c.inProgress = false
		c.round = 0
		c.gameID = ""
	}

	c.flush(c.stepLocked(false))
	return nil
}

// RequestCards draws count cards for the caller's initial deal. A
// non-positive count is rejected without touching the deck. Running out
// of cards forces the end of the game and returns no cards; the exhaustion
// is surfaced only through the broadcast state.
func (c *Coordinator) RequestCards(count int) []string {
	if count <= 0 {
		c.logger.Error("Card request with non-positive count", "requested", count)
		return nil
	}

	c.mu.Lock()

	// count is client-controlled; never pre-allocate beyond the pile.
	cards := make([]string, 0, min(count, c.deck.Remaining()))
	for i := 0; i < count; i++ {
		card, err := c.deck.Draw()
		if err != nil {
			c.logger.Error("Deck exhausted during deal", "requested", count, "error", err)
			c.flush(c.stepLocked(true))
			return nil
		}
		cards = append(cards, card)
	}

	c.logger.Debug("Dealt cards", "count", count, "remaining", c.deck.Remaining())
	c.mu.Unlock()
	return cards
}

// UsernameTaken reports whether an active player already holds name. Pure
// query: no state change, no broadcast.
func (c *Coordinator) UsernameTaken(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nameTakenLocked(name)
}

// Round returns the current round number (0 while in the lobby).
func (c *Coordinator) Round() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.round
}

// InProgress reports whether a game is currently running.
func (c *Coordinator) InProgress() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inProgress
}

// PlayerCount returns the number of active players.
func (c *Coordinator) PlayerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.players)
}

// flush hands the deliveries built under mu to the broadcast lane. It must
// be called with mu write-held and releases it. bmu is taken before mu is
// released so broadcasts cannot reorder across operations.
func (c *Coordinator) flush(deliveries []delivery) {
	c.bmu.Lock()
	c.mu.Unlock()
	c.notifiers.deliver(deliveries)
	c.bmu.Unlock()
}

// stepLocked evaluates the transition rules after a mutating event and
// builds one payload per connected player. Rule priority: start, round
// advance, end (round-limit overrun or deck exhaustion), waiting.
func (c *Coordinator) stepLocked(exhausted bool) []delivery {
	start := false
	end := exhausted

	switch {
	case exhausted:
		c.logger.Info("An end game condition has been forced", "game", c.gameID)

	case !c.inProgress && len(c.players) > 0 && c.allReadyLocked():
		start = true
		c.startGameLocked()

	case c.inProgress && len(c.players) > 0 && c.allTurnsEndedLocked():
		for _, p := range c.players {
			p.TurnEnded = false
		}
		c.round++
		if c.round > c.rules.RoundCount {
			end = true
		} else {
			c.logger.Info("Beginning a new round", "game", c.gameID, "round", c.round)
		}
	}

	if end {
		c.logger.Info("Ending the game", "game", c.gameID)
		c.inProgress = false
	}

	roster := c.rosterLocked()
	message := c.winnerMessageLocked(end, exhausted)
	status := c.roundStatusLocked(end)

	deliveries := make([]delivery, 0, len(c.players))
	for _, id := range c.sortedIDsLocked() {
		p := c.players[id]
		n, ok := c.notifiers.get(id)
		if !ok {
			continue
		}
		deliveries = append(deliveries, delivery{
			id:       id,
			name:     p.Name,
			notifier: n,
			payload: Payload{
				Roster:         roster,
				StartGame:      start,
				EndGame:        end,
				GameState:      !end && !p.TurnEnded,
				ReadyState:     !c.inProgress,
				EndGameMessage: message,
				RoundStatus:    status,
			},
		})
	}
	return deliveries
}

// startGameLocked resets deck and players for a fresh game.
func (c *Coordinator) startGameLocked() {
	c.inProgress = true
	c.round = 1
	c.gameID = uuid.NewString()
	c.deck.Reset()

	for _, p := range c.players {
		p.Score = 0
		p.Ready = false
		p.TurnEnded = false
	}

	c.logger.Info("Starting the game", "game", c.gameID, "players", len(c.players))
}

// winnerMessageLocked builds the end-game message. Ties are not specially
// broken: the first player with the maximum score in id order wins.
func (c *Coordinator) winnerMessageLocked(end, exhausted bool) string {
	if !end {
		return ""
	}

	var best *Player
	for _, id := range c.sortedIDsLocked() {
		p := c.players[id]
		if best == nil || p.Score > best.Score {
			best = p
		}
	}

	var result string
	switch {
	case best == nil || best.Score == 0:
		return "Nobody wins, please play again"
	case len(c.players) > 1:
		if exhausted {
			result = fmt.Sprintf("End of deck, %s wins with a score of %d!", best.Name, best.Score)
		} else {
			result = fmt.Sprintf("The winner is %s with a score of %d!", best.Name, best.Score)
		}
	default:
		if exhausted {
			result = fmt.Sprintf("End of deck, you scored %d", best.Score)
		} else {
			result = fmt.Sprintf("You scored %d", best.Score)
		}
	}
	if best.Score >= congratsScore {
		result += ", Good Job!"
	}
	return result
}

func (c *Coordinator) roundStatusLocked(end bool) string {
	if end {
		return fmt.Sprintf("%d/%d", c.rules.RoundCount, c.rules.RoundCount)
	}
	return fmt.Sprintf("%d/%d", c.round, c.rules.RoundCount)
}

func (c *Coordinator) rosterLocked() []string {
	roster := make([]string, 0, len(c.players))
	for _, id := range c.sortedIDsLocked() {
		p := c.players[id]
		roster = append(roster, fmt.Sprintf("%s : %d", p.Name, p.Score))
	}
	return roster
}

func (c *Coordinator) sortedIDsLocked() []int {
	ids := make([]int, 0, len(c.players))
	for id := range c.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (c *Coordinator) nameTakenLocked(name string) bool {
	for _, p := range c.players {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (c *Coordinator) allReadyLocked() bool {
	for _, p := range c.players {
		if !p.Ready {
			c.logger.Debug("Still waiting on player to be ready", "player", p.Name)
			return false
		}
	}
	return true
}

func (c *Coordinator) allTurnsEndedLocked() bool {
	for _, p := range c.players {
		if !p.TurnEnded {
			c.logger.Debug("Still waiting on player to finish their turn", "player", p.Name)
			return false
		}
	}
	return true
}

// splitLetters falls back to scoring a word as single-letter cards when the
// client did not say which cards it consumed.
func splitLetters(word string) []string {
	word = strings.ToUpper(strings.TrimSpace(word))
	letters := make([]string, 0, len(word))
	for _, r := range word {
		letters = append(letters, string(r))
	}
	return letters
}
