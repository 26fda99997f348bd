// Package dispatch routes external game events to the scripts bound to
// each owner and tracks per-invocation state.
package dispatch

import (
	"sync"

	"github.com/remeh/sizedwaitgroup"
	"github.com/tliron/commonlog"

	"github.com/torchlight/gserver/script"
)

// Script is one bound script, language-independent. The engine wraps
// parsed GS1 scripts and compiled GS2 programs behind this.
type Script interface {
	// HandlesEvent reports whether the script has a handler for the event.
	HandlesEvent(event script.Event) bool

	// RunInit executes the script's one-time init body, if any.
	RunInit(ctx *script.Context) error

	// RunEvent executes the script's handler for the event.
	RunEvent(ctx *script.Context, event script.Event) (bool, error)
}

// Saver persists context globals after completed invocations. Optional.
type Saver interface {
	SaveGlobals(owner string, globals map[string]script.Value) error
}

type owner struct {
	ctx     *script.Context
	scripts []Script
}

// Dispatcher owns the event binding tables. Scripts bound to the same
// owner share one context and run serialized; different owners run
// independently.
type Dispatcher struct {
	log         commonlog.Logger
	maxParallel int

	mu     sync.RWMutex
	owners map[string]*owner
	saver  Saver
}

// NewDispatcher builds a dispatcher. maxParallel bounds Broadcast
// fan-out; zero or negative means 8.
func NewDispatcher(maxParallel int) *Dispatcher {
	if maxParallel <= 0 {
		maxParallel = 8
	}
	return &Dispatcher{
		log:         commonlog.GetLogger("gserver.dispatch"),
		maxParallel: maxParallel,
		owners:      make(map[string]*owner),
	}
}

// SetSaver wires a persistence sink. Globals are saved after every
// event whose invocations all completed or failed without destroying
// the context.
func (d *Dispatcher) SetSaver(s Saver) {
	d.mu.Lock()
	d.saver = s
	d.mu.Unlock()
}

// Bind attaches a script to an owner, creating the owner's context on
// first use, and runs the script's init body. Scripts fire in binding
// order.
func (d *Dispatcher) Bind(ownerID string, s Script) error {
	d.mu.Lock()
	o, ok := d.owners[ownerID]
	if !ok {
		o = &owner{ctx: script.NewContext(ownerID)}
		d.owners[ownerID] = o
	}
	o.scripts = append(o.scripts, s)
	d.mu.Unlock()

	return o.ctx.Run(func() error {
		return s.RunInit(o.ctx)
	})
}

// Context returns the owner's script context.
func (d *Dispatcher) Context(ownerID string) (*script.Context, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := d.owners[ownerID]
	if !ok {
		return nil, false
	}
	return o.ctx, true
}

// Owners returns the ids of all registered owners.
func (d *Dispatcher) Owners() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.owners))
	for id := range d.owners {
		ids = append(ids, id)
	}
	return ids
}

// Fire delivers one event to every bound script of the owner that
// handles it, in binding order, under the context's run lock. A failing
// script is logged and does not stop later scripts. The returned
// invocations are in execution order.
func (d *Dispatcher) Fire(ownerID string, event script.Event, args script.EventArgs) ([]*Invocation, error) {
	d.mu.RLock()
	o, ok := d.owners[ownerID]
	saver := d.saver
	d.mu.RUnlock()
	if !ok {
		return nil, script.NewRuntimeError("no scripts bound to owner %q", ownerID)
	}

	var invocations []*Invocation
	err := o.ctx.Run(func() error {
		o.ctx.SetEventArgs(args)
		if args.Player.ID != "" {
			player := args.Player
			o.ctx.SetPlayer(&player)
		}

		d.mu.RLock()
		scripts := o.scripts
		d.mu.RUnlock()

		for _, s := range scripts {
			if !s.HandlesEvent(event) {
				continue
			}
			inv := newInvocation(ownerID, event)
			invocations = append(invocations, inv)

			inv.start()
			_, runErr := s.RunEvent(o.ctx, event)
			inv.finish(runErr)

			if runErr != nil {
				d.log.Errorf("script failed: owner=%s event=%s state=%s: %s",
					ownerID, event, inv.State, runErr)
			}
		}
		return nil
	})
	if err != nil {
		return invocations, err
	}

	if saver != nil && len(invocations) > 0 {
		if saveErr := saver.SaveGlobals(ownerID, o.ctx.Globals()); saveErr != nil {
			d.log.Errorf("saving globals for %s: %s", ownerID, saveErr)
		}
	}
	return invocations, nil
}

// Broadcast fires one event for every owner, with bounded parallelism.
func (d *Dispatcher) Broadcast(event script.Event, args script.EventArgs) {
	swg := sizedwaitgroup.New(d.maxParallel)
	for _, id := range d.Owners() {
		swg.Add()
		go func(id string) {
			defer swg.Done()
			if _, err := d.Fire(id, event, args); err != nil {
				d.log.Debugf("broadcast to %s: %s", id, err)
			}
		}(id)
	}
	swg.Wait()
}

// Destroy tears down an owner. In-flight invocations finish; later
// fires fail.
func (d *Dispatcher) Destroy(ownerID string) {
	d.mu.Lock()
	o, ok := d.owners[ownerID]
	if ok {
		delete(d.owners, ownerID)
	}
	d.mu.Unlock()
	if ok {
		o.ctx.Destroy()
	}
}
