package dispatch

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/torchlight/gserver/script"
)

// TimerService fires recurring Timeout events for owners that asked for
// them. One schedule per owner; rescheduling replaces the old interval.
type TimerService struct {
	dispatcher *Dispatcher
	cron       *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewTimerService builds a stopped timer service over a dispatcher.
func NewTimerService(d *Dispatcher) *TimerService {
	return &TimerService{
		dispatcher: d,
		cron:       cron.New(),
		entries:    make(map[string]cron.EntryID),
	}
}

// Start begins firing schedules.
func (t *TimerService) Start() {
	t.cron.Start()
}

// Stop halts the scheduler and waits for running fires to return.
func (t *TimerService) Stop() {
	<-t.cron.Stop().Done()
}

// Schedule fires Timeout for the owner at the given interval, replacing
// any earlier schedule. Intervals are rounded up to whole seconds.
func (t *TimerService) Schedule(ownerID string, every time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.entries[ownerID]; ok {
		t.cron.Remove(id)
	}
	t.entries[ownerID] = t.cron.Schedule(cron.Every(every), cron.FuncJob(func() {
		t.dispatcher.Fire(ownerID, script.EventTimeout, script.EventArgs{})
	}))
}

// Cancel removes the owner's schedule, if any.
func (t *TimerService) Cancel(ownerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.entries[ownerID]; ok {
		t.cron.Remove(id)
		delete(t.entries, ownerID)
	}
}
