package dispatch

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/torchlight/gserver/script"
)

// State tracks one script invocation. There is no suspended state;
// scripts run to completion or to a limit.
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateTimedOut
)

var stateNames = [...]string{
	StatePending:   "Pending",
	StateRunning:   "Running",
	StateCompleted: "Completed",
	StateFailed:    "Failed",
	StateTimedOut:  "TimedOut",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Invocation is the record of one script run against one event.
type Invocation struct {
	ID      uuid.UUID
	Owner   string
	Event   script.Event
	State   State
	Err     error
	Started time.Time
	Elapsed time.Duration
}

func newInvocation(owner string, event script.Event) *Invocation {
	return &Invocation{
		ID:    uuid.New(),
		Owner: owner,
		Event: event,
		State: StatePending,
	}
}

func (inv *Invocation) start() {
	inv.State = StateRunning
	inv.Started = time.Now()
}

// finish resolves the terminal state from the run error. Timeouts and
// stack overflows are TimedOut and Failed respectively.
func (inv *Invocation) finish(err error) {
	inv.Elapsed = time.Since(inv.Started)
	inv.Err = err
	switch {
	case err == nil:
		inv.State = StateCompleted
	case errors.Is(err, script.ErrTimeout):
		inv.State = StateTimedOut
	default:
		inv.State = StateFailed
	}
}
