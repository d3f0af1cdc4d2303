package session

// Player holds the per-player state owned by the coordinator. Ids are
// allocated from 1 and never reused within the process lifetime.
type Player struct {
	ID        int
	Name      string
	Score     int
	Ready     bool
	TurnEnded bool
}
