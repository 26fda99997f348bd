package script

import (
	"fmt"
	"strings"
)

// Event identifies a game event a script can handle.
type Event int

const (
	EventCreated Event = iota
	EventPlayerEnters
	EventPlayerLeaves
	EventPlayerTouches
	EventPlayerClicks
	EventPlayerChats
	EventTimeout

	eventCount
)

var eventNames = [...]string{
	EventCreated:       "Created",
	EventPlayerEnters:  "PlayerEnters",
	EventPlayerLeaves:  "PlayerLeaves",
	EventPlayerTouches: "PlayerTouches",
	EventPlayerClicks:  "PlayerClicks",
	EventPlayerChats:   "PlayerChats",
	EventTimeout:       "Timeout",
}

func (e Event) String() string {
	if e >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// Events returns all defined events in declaration order.
func Events() []Event {
	out := make([]Event, eventCount)
	for i := range out {
		out[i] = Event(i)
	}
	return out
}

// ParseEvent resolves an event by name, case-insensitively. GS1 headers use
// the uppercase form (PLAYERCHATS), GS2 handlers the mixed-case form.
func ParseEvent(name string) (Event, bool) {
	for i, n := range eventNames {
		if strings.EqualFold(n, name) {
			return Event(i), true
		}
	}
	return 0, false
}

// EventArgs carries the payload handed to an event handler. Fields not
// relevant to a given event are zero.
type EventArgs struct {
	Player  ObjectRef
	Message string
	X, Y    float64
}
