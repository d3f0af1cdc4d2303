package session

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiddler/internal/deck"
	"quiddler/internal/randutil"
)

// stubWords accepts every word except those listed.
type stubWords struct {
	rejected map[string]bool
}

func (s *stubWords) Validate(word string) bool {
	return !s.rejected[word]
}

// recordingNotifier captures pushed payloads; it can be told to fail.
type recordingNotifier struct {
	mu       sync.Mutex
	payloads []Payload
	fail     bool
}

func (n *recordingNotifier) Notify(p Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("channel unavailable")
	}
	n.payloads = append(n.payloads, p)
	return nil
}

func (n *recordingNotifier) last(t *testing.T) Payload {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.payloads) == 0 {
		t.Fatal("no payloads delivered")
	}
	return n.payloads[len(n.payloads)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.payloads)
}

func testRules() Rules {
	return Rules{UserCount: 4, RoundCount: 3, GameLimit: 200, TurnLimit: 60}
}

func newTestCoordinator(rules Rules, rejected ...string) *Coordinator {
	words := &stubWords{rejected: make(map[string]bool)}
	for _, w := range rejected {
		words.rejected[w] = true
	}
	logger := log.New(io.Discard)
	return New(rules, deck.New(randutil.New(42)), words, logger)
}

// addPlayer registers and joins one player, returning its id and channel.
func addPlayer(t *testing.T, c *Coordinator, name string) (int, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	id, err := c.Register(name, n)
	require.NoError(t, err)
	require.NoError(t, c.Join(id, name))
	return id, n
}

func startGame(t *testing.T, c *Coordinator, ids ...int) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, c.MarkReady(id))
	}
	require.True(t, c.InProgress(), "game should have started")
}

func TestRegisterAllocatesIncreasingIDs(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())

	a, _ := addPlayer(t, c, "alice")
	b, _ := addPlayer(t, c, "bob")
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)

	// Ids are never reused within the process lifetime.
	require.NoError(t, c.Leave(a))
	d, _ := addPlayer(t, c, "carol")
	assert.Equal(t, 3, d)
}

func TestRegisterNameTaken(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	addPlayer(t, c, "alice")

	_, err := c.Register("alice", &recordingNotifier{})
	assert.ErrorIs(t, err, ErrNameTaken)

	// Exact match is case-sensitive.
	_, err = c.Register("Alice", &recordingNotifier{})
	assert.NoError(t, err)
}

func TestRegisterSessionFull(t *testing.T) {
	t.Parallel()
	rules := testRules()
	rules.UserCount = 2
	c := newTestCoordinator(rules)

	addPlayer(t, c, "alice")
	addPlayer(t, c, "bob")

	_, err := c.Register("carol", &recordingNotifier{})
	assert.ErrorIs(t, err, ErrSessionFull)
}

func TestRegisterGameInProgress(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	a, _ := addPlayer(t, c, "alice")
	b, _ := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	_, err := c.Register("carol", &recordingNotifier{})
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestUsernameTaken(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	addPlayer(t, c, "alice")

	assert.True(t, c.UsernameTaken("alice"))
	assert.False(t, c.UsernameTaken("bob"))
	assert.False(t, c.UsernameTaken("Alice"))
}

func TestAllReadyStartsGame(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	a, na := addPlayer(t, c, "alice")
	b, nb := addPlayer(t, c, "bob")
	d, nd := addPlayer(t, c, "carol")

	require.NoError(t, c.MarkReady(a))
	require.NoError(t, c.MarkReady(b))
	assert.False(t, c.InProgress(), "game must not start until everyone is ready")

	require.NoError(t, c.MarkReady(d))
	require.True(t, c.InProgress())
	assert.Equal(t, 1, c.Round())

	for _, n := range []*recordingNotifier{na, nb, nd} {
		p := n.last(t)
		assert.True(t, p.StartGame)
		assert.True(t, p.GameState)
		assert.False(t, p.ReadyState)
		assert.False(t, p.EndGame)
		assert.Equal(t, "1/3", p.RoundStatus)
		assert.Equal(t, []string{"alice : 0", "bob : 0", "carol : 0"}, p.Roster)
	}
}

func TestWaitingStateReflectsTurnEnded(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	a, na := addPlayer(t, c, "alice")
	b, nb := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	accepted, score, dealt, err := c.SubmitWord(a, "cat", []string{"C", "A", "T"})
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, 13, score)
	assert.Len(t, dealt, 3)

	// The submitter sees controls disabled; the peer may still act.
	assert.False(t, na.last(t).GameState)
	assert.True(t, nb.last(t).GameState)
	assert.False(t, na.last(t).EndGame)
	assert.Equal(t, []string{"alice : 13", "bob : 0"}, nb.last(t).Roster)
}

func TestInvalidWordScoresZeroAndEndsTurn(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules(), "xyzzy")
	a, na := addPlayer(t, c, "alice")
	b, _ := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	accepted, score, dealt, err := c.SubmitWord(a, "xyzzy", nil)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Zero(t, score)
	assert.Empty(t, dealt)
	assert.False(t, na.last(t).GameState, "turn still ends on an invalid word")
}

func TestRoundAdvanceAndRoundLimitEndsGame(t *testing.T) {
	t.Parallel()
	rules := testRules()
	rules.RoundCount = 2
	c := newTestCoordinator(rules)
	a, na := addPlayer(t, c, "alice")
	b, nb := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	// Round 1 completes for both players.
	_, _, _, err := c.SubmitWord(a, "at", []string{"A", "T"})
	require.NoError(t, err)
	_, _, _, err = c.SubmitWord(b, "in", []string{"IN"})
	require.NoError(t, err)

	assert.Equal(t, 2, c.Round())
	assert.True(t, na.last(t).GameState, "turn flags reset on round advance")
	assert.False(t, na.last(t).ReadyState)
	assert.Equal(t, "2/2", na.last(t).RoundStatus)

	// Round 2 completes; the limit is overrun and the game ends.
	_, _, _, err = c.SubmitWord(a, "at", []string{"A", "T"})
	require.NoError(t, err)
	_, _, _, err = c.SubmitWord(b, "in", []string{"IN"})
	require.NoError(t, err)

	for _, n := range []*recordingNotifier{na, nb} {
		p := n.last(t)
		assert.True(t, p.EndGame)
		assert.False(t, p.GameState)
		assert.True(t, p.ReadyState)
		assert.Equal(t, "2/2", p.RoundStatus)
	}
	assert.False(t, c.InProgress())
}

func TestWinnerMessageNamesHighestScore(t *testing.T) {
	t.Parallel()
	rules := testRules()
	rules.RoundCount = 1
	c := newTestCoordinator(rules, "zzz")
	a, na := addPlayer(t, c, "alice")
	b, _ := addPlayer(t, c, "bob")
	d, _ := addPlayer(t, c, "carol")
	startGame(t, c, a, b, d)

	// alice 40, bob 25, carol 0.
	_, _, _, err := c.SubmitWord(a, "wow", []string{"W", "W", "CL", "W"})
	require.NoError(t, err)
	_, _, _, err = c.SubmitWord(b, "qw", []string{"Q", "W"})
	require.NoError(t, err)
	_, _, _, err = c.SubmitWord(d, "zzz", nil)
	require.NoError(t, err)

	p := na.last(t)
	require.True(t, p.EndGame)
	assert.Contains(t, p.EndGameMessage, "The winner is alice with a score of 40!")
	assert.Contains(t, p.EndGameMessage, "Good Job!")
}

func TestWinnerMessageAllZero(t *testing.T) {
	t.Parallel()
	rules := testRules()
	rules.RoundCount = 1
	c := newTestCoordinator(rules, "zzz")
	a, na := addPlayer(t, c, "alice")
	b, _ := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	_, _, _, err := c.SubmitWord(a, "zzz", nil)
	require.NoError(t, err)
	_, _, _, err = c.SubmitWord(b, "zzz", nil)
	require.NoError(t, err)

	assert.Equal(t, "Nobody wins, please play again", na.last(t).EndGameMessage)
}

func TestWinnerMessageSinglePlayer(t *testing.T) {
	t.Parallel()
	rules := testRules()
	rules.RoundCount = 1
	c := newTestCoordinator(rules)
	a, na := addPlayer(t, c, "alice")
	startGame(t, c, a)

	// 45 points: above the congratulation cutoff.
	_, _, _, err := c.SubmitWord(a, "quiz", []string{"Q", "U", "I", "Z"})
	require.NoError(t, err)

	p := na.last(t)
	require.True(t, p.EndGame)
	assert.Equal(t, "You scored 45, Good Job!", p.EndGameMessage)
}

func TestDeckExhaustionForcesEndGame(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	a, na := addPlayer(t, c, "alice")
	b, nb := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	// Drain the pile, then a redraw mid-round forces the end of the game
	// even though roundNumber < roundLimit.
	cards := c.RequestCards(116)
	require.Len(t, cards, 116)

	_, score, dealt, err := c.SubmitWord(a, "cat", []string{"C", "A", "T"})
	require.NoError(t, err)
	assert.Equal(t, 13, score, "the word still scores")
	assert.Empty(t, dealt, "exhaustion is swallowed; no cards are dealt")

	require.Equal(t, 1, c.Round())
	for _, n := range []*recordingNotifier{na, nb} {
		p := n.last(t)
		assert.True(t, p.EndGame)
		assert.False(t, p.GameState)
		assert.True(t, p.ReadyState)
	}
	assert.Contains(t, na.last(t).EndGameMessage, "End of deck")
	assert.False(t, c.InProgress())
}

func TestRequestCardsExhaustionBroadcastsEndGame(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	a, na := addPlayer(t, c, "alice")
	b, _ := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	require.Len(t, c.RequestCards(118), 118)

	assert.Nil(t, c.RequestCards(1))
	assert.True(t, na.last(t).EndGame)
}

func TestRequestCardsRejectsNonPositiveCount(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	a, na := addPlayer(t, c, "alice")
	b, _ := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	before := na.count()
	assert.Nil(t, c.RequestCards(-1))
	assert.Nil(t, c.RequestCards(0))

	// A rejected request is a no-op: no broadcast, no forced end game.
	assert.Equal(t, before, na.count())
	assert.True(t, c.InProgress())

	// The pile is untouched and a sane follow-up deal still succeeds.
	assert.Len(t, c.RequestCards(10), 10)
}

func TestRequestCardsOversizedCountForcesEndGame(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	a, na := addPlayer(t, c, "alice")
	b, _ := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	// A deal larger than the whole pile drains it and ends the game; the
	// request itself must not blow up on the allocation.
	assert.Nil(t, c.RequestCards(1<<30))
	assert.True(t, na.last(t).EndGame)
	assert.False(t, c.InProgress())
}

func TestJoinRenameKeepsNamesUnique(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	addPlayer(t, c, "alice")
	b, nb := addPlayer(t, c, "bob")

	// Renaming onto an active player's name is rejected like Register.
	assert.ErrorIs(t, c.Join(b, "alice"), ErrNameTaken)
	assert.Equal(t, []string{"alice : 0", "bob : 0"}, nb.last(t).Roster)

	// Re-announcing the current name and renaming to a free one still work.
	require.NoError(t, c.Join(b, "bob"))
	require.NoError(t, c.Join(b, "robert"))
	assert.Equal(t, []string{"alice : 0", "robert : 0"}, nb.last(t).Roster)
}

func TestLastLeaveResetsSession(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	a, _ := addPlayer(t, c, "alice")
	b, _ := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	require.NoError(t, c.Leave(a))
	require.NoError(t, c.Leave(b))

	assert.Equal(t, 0, c.Round())
	assert.False(t, c.InProgress())
	assert.Equal(t, 0, c.PlayerCount())

	// Session is lobby-eligible again: a fresh all-ready vote starts a game.
	d, _ := addPlayer(t, c, "carol")
	require.NoError(t, c.MarkReady(d))
	assert.True(t, c.InProgress())
}

func TestLeaveRebroadcastsRoster(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	a, _ := addPlayer(t, c, "alice")
	_, nb := addPlayer(t, c, "bob")

	require.NoError(t, c.Leave(a))
	assert.Equal(t, []string{"bob : 0"}, nb.last(t).Roster)
}

func TestBroadcastFailureIsIsolated(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())

	bad := &recordingNotifier{fail: true}
	id, err := c.Register("alice", bad)
	require.NoError(t, err)
	require.NoError(t, c.Join(id, "alice"))

	_, nb := addPlayer(t, c, "bob")
	before := nb.count()

	// alice's channel fails on every push; bob must still hear about it.
	require.NoError(t, c.MarkReady(id))
	assert.Greater(t, nb.count(), before)
}

func TestUnknownPlayerIsContractViolation(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(testRules())
	addPlayer(t, c, "alice")

	assert.ErrorIs(t, c.Join(99, "ghost"), ErrUnknownPlayer)
	assert.ErrorIs(t, c.MarkReady(99), ErrUnknownPlayer)
	assert.ErrorIs(t, c.Leave(99), ErrUnknownPlayer)
	_, _, _, err := c.SubmitWord(99, "cat", nil)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestScoresResetOnNewGame(t *testing.T) {
	t.Parallel()
	rules := testRules()
	rules.RoundCount = 1
	c := newTestCoordinator(rules)
	a, na := addPlayer(t, c, "alice")
	b, _ := addPlayer(t, c, "bob")
	startGame(t, c, a, b)

	_, _, _, err := c.SubmitWord(a, "cat", []string{"C", "A", "T"})
	require.NoError(t, err)
	_, _, _, err = c.SubmitWord(b, "dog", []string{"D", "O", "G"})
	require.NoError(t, err)
	require.True(t, na.last(t).EndGame)

	// A fresh all-ready vote starts a new game with clean scores.
	startGame(t, c, a, b)
	assert.Equal(t, []string{"alice : 0", "bob : 0"}, na.last(t).Roster)
	assert.Equal(t, 1, c.Round())
}
