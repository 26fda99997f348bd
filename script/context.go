package script

import (
	"fmt"
	"sort"
	"sync"
)

// Context is the per-owner execution context. It holds the global variable
// table shared by every handler of one script binding, plus handles to the
// entities the script runs against. All methods are safe for concurrent
// use; handler execution itself is serialized through Run.
type Context struct {
	owner string

	mu        sync.Mutex
	globals   map[string]Value
	player    *ObjectRef
	level     *ObjectRef
	eventArgs EventArgs
	destroyed bool

	// runMu serializes handler invocations against this context. Destroy
	// takes it too, so an in-flight invocation always finishes before the
	// context is torn down.
	runMu sync.Mutex
}

// NewContext creates a context for the given owner (NPC, level, or weapon
// identifier).
func NewContext(owner string) *Context {
	return &Context{
		owner:   owner,
		globals: make(map[string]Value),
	}
}

// Owner returns the owner identifier the context was created with.
func (c *Context) Owner() string {
	return c.owner
}

// GetGlobal reads a global variable. The second result is false if the
// name was never set.
func (c *Context) GetGlobal(name string) (Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.globals[name]
	return v, ok
}

// SetGlobal writes a global variable. Writes are visible immediately, even
// when the invocation that made them later fails.
func (c *Context) SetGlobal(name string, v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.globals[name] = v
}

// Globals returns a snapshot copy of the global table.
func (c *Context) Globals() map[string]Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Value, len(c.globals))
	for k, v := range c.globals {
		out[k] = v
	}
	return out
}

// GlobalNames returns the defined global names in sorted order.
func (c *Context) GlobalNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.globals))
	for k := range c.globals {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoadGlobals merges a saved global table into the context. Existing
// entries with the same name are overwritten.
func (c *Context) LoadGlobals(globals map[string]Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range globals {
		c.globals[k] = v
	}
}

// SetPlayer attaches the player the current event concerns. Pass nil to
// clear it.
func (c *Context) SetPlayer(ref *ObjectRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.player = ref
}

// Player returns the attached player handle, or false if none is set.
func (c *Context) Player() (ObjectRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player == nil {
		return ObjectRef{}, false
	}
	return *c.player, true
}

// SetEventArgs attaches the payload of the event being dispatched. The
// dispatcher sets it before each invocation; builtins read it to answer
// chat text and touch coordinates.
func (c *Context) SetEventArgs(args EventArgs) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventArgs = args
}

// EventArgs returns the payload of the current event.
func (c *Context) EventArgs() EventArgs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eventArgs
}

// SetLevel attaches the level the script runs in.
func (c *Context) SetLevel(ref *ObjectRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = ref
}

// Level returns the attached level handle, or false if none is set.
func (c *Context) Level() (ObjectRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.level == nil {
		return ObjectRef{}, false
	}
	return *c.level, true
}

// Run executes fn with the context's invocation lock held. Invocations on
// the same context never overlap; invocations on different contexts run
// freely in parallel. Returns an error without calling fn if the context
// has been destroyed.
func (c *Context) Run(fn func() error) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	c.mu.Lock()
	dead := c.destroyed
	c.mu.Unlock()
	if dead {
		return fmt.Errorf("context %q is destroyed", c.owner)
	}
	return fn()
}

// Destroy marks the context dead. An in-flight invocation finishes first;
// later invocations are rejected. Destroy is idempotent.
func (c *Context) Destroy() {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.mu.Lock()
	c.destroyed = true
	c.mu.Unlock()
}

// Destroyed reports whether Destroy has been called.
func (c *Context) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}
