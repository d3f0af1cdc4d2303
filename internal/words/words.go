// Package words provides dictionary membership checks for word validation.
// Lists are loaded once at startup from either a flat text file or a sqlite
// database; the rest of the system only sees the Validator interface.
package words

import "strings"

// Validator answers membership queries against a preloaded word list.
type Validator interface {
	Validate(word string) bool
}

// List is an in-memory, case-normalized word set.
type List struct {
	words map[string]struct{}
}

// Validate reports whether word is in the list. Lookup is case-insensitive.
func (l *List) Validate(word string) bool {
	_, ok := l.words[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// Len returns the number of distinct words loaded.
func (l *List) Len() int {
	return len(l.words)
}

func newList() *List {
	return &List{words: make(map[string]struct{})}
}

func (l *List) add(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	l.words[word] = struct{}{}
}
