package deck

// Card describes one Quiddler card type: the letter(s) printed on it, how
// many copies the deck holds, and the points it scores.
type Card struct {
	Letter string
	Count  int
	Value  int
}

// Template is the fixed Quiddler card set: 30 card types, 118 cards total.
// Includes the five double-letter cards (CL, ER, IN, QU, TH).
var Template = []Card{
	{"A", 10, 2},
	{"B", 2, 8},
	{"C", 2, 8},
	{"D", 4, 5},
	{"E", 12, 2},
	{"F", 2, 6},
	{"G", 4, 6},
	{"H", 2, 7},
	{"I", 8, 2},
	{"J", 2, 13},
	{"K", 2, 8},
	{"L", 4, 3},
	{"M", 2, 5},
	{"N", 6, 5},
	{"O", 8, 2},
	{"P", 2, 6},
	{"Q", 2, 15},
	{"R", 6, 5},
	{"S", 4, 3},
	{"T", 6, 3},
	{"U", 6, 4},
	{"V", 2, 11},
	{"W", 2, 10},
	{"X", 2, 12},
	{"Y", 4, 4},
	{"Z", 2, 14},
	{"CL", 2, 10},
	{"ER", 2, 7},
	{"IN", 2, 7},
	{"QU", 2, 9},
	{"TH", 2, 9},
}

// TemplateSize returns the total number of cards the template expands to.
func TemplateSize() int {
	total := 0
	for _, c := range Template {
		total += c.Count
	}
	return total
}
