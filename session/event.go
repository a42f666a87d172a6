package session

import (
	"time"

	"github.com/sonnes/parley/core"
)

// EventKind enumerates conversation lifecycle changes.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event describes one change to the collection. Conversation is a copy taken
// at the time of the change; for EventDeleted it is the removed record.
type Event struct {
	Kind         EventKind         `json:"kind"`
	Conversation core.Conversation `json:"conversation"`
	At           time.Time         `json:"at"`
}

// Listener receives store events.
type Listener func(Event)

// Fanout combines listeners into one.
func Fanout(listeners ...Listener) Listener {
	return func(e Event) {
		for _, l := range listeners {
			if l != nil {
				l(e)
			}
		}
	}
}
