package session

import "github.com/charmbracelet/log"

// Notifier is a persistent push channel to one connected player. Notify is
// fire-and-forget: implementations must not block waiting for the client to
// acknowledge delivery.
type Notifier interface {
	Notify(Payload) error
}

// delivery pairs a built payload with its destination channel. Deliveries
// are assembled under the coordinator lock and pushed after release.
type delivery struct {
	id       int
	name     string
	notifier Notifier
	payload  Payload
}

// notifierSet holds one notifier per registered player, keyed by player id.
type notifierSet struct {
	channels map[int]Notifier
	logger   *log.Logger
}

func newNotifierSet(logger *log.Logger) *notifierSet {
	return &notifierSet{
		channels: make(map[int]Notifier),
		logger:   logger,
	}
}

func (s *notifierSet) add(id int, n Notifier) {
	s.channels[id] = n
}

func (s *notifierSet) remove(id int) {
	delete(s.channels, id)
}

func (s *notifierSet) get(id int) (Notifier, bool) {
	n, ok := s.channels[id]
	return n, ok
}

// deliver pushes each payload in turn. A failure on one channel is logged
// and must not prevent delivery to the remaining channels.
func (s *notifierSet) deliver(deliveries []delivery) {
	for _, d := range deliveries {
		if err := d.notifier.Notify(d.payload); err != nil {
			s.logger.Error("Failed to deliver game update",
				"player", d.name, "id", d.id, "error", err)
		}
	}
}
