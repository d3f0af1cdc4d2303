package deck

import (
	"errors"
	rand "math/rand/v2"
	"strings"
)

// ErrDeckExhausted is returned by Draw when every card has been dealt.
// Callers treat it as a forced end-game trigger, not a retryable error.
var ErrDeckExhausted = errors.New("no more cards in the deck")

// Deck holds the shuffled Quiddler draw pile. A cursor marks the next
// undrawn card; drawing past the end fails rather than wrapping.
type Deck struct {
	values map[string]int
	cards  []string
	idx    int
	rng    *rand.Rand
}

// New builds a populated, shuffled deck using the provided random source.
func New(rng *rand.Rand) *Deck {
	values := make(map[string]int, len(Template))
	for _, c := range Template {
		values[c.Letter] = c.Value
	}

	d := &Deck{
		values: values,
		cards:  make([]string, 0, TemplateSize()),
		rng:    rng,
	}
	d.Reset()
	return d
}

// Draw returns the next card and advances the cursor.
func (d *Deck) Draw() (string, error) {
	if d.idx >= len(d.cards) {
		return "", ErrDeckExhausted
	}
	card := d.cards[d.idx]
	d.idx++
	return card, nil
}

// Score sums the point values of the cards used. Order is irrelevant,
// duplicates count individually, and unknown tokens score zero.
func (d *Deck) Score(cardsUsed []string) int {
	score := 0
	for _, card := range cardsUsed {
		score += d.values[strings.ToUpper(card)]
	}
	return score
}

// Reset rebuilds the draw pile from the template and reshuffles. Used at
// the start of every new game; mid-game rounds reuse the remaining pile.
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	d.idx = 0
	for _, c := range Template {
		for i := 0; i < c.Count; i++ {
			d.cards = append(d.cards, c.Letter)
		}
	}
	d.shuffle()
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.idx
}

// shuffle performs a Fisher-Yates permutation of the draw pile.
func (d *Deck) shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}
