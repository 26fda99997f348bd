package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torchlight/gserver/script"
)

// fakeScript handles a fixed event set and records runs.
type fakeScript struct {
	name    string
	handles map[script.Event]bool
	err     error

	initCalls int
	runs      []script.Event
}

func (f *fakeScript) HandlesEvent(event script.Event) bool { return f.handles[event] }

func (f *fakeScript) RunInit(ctx *script.Context) error {
	f.initCalls++
	return nil
}

func (f *fakeScript) RunEvent(ctx *script.Context, event script.Event) (bool, error) {
	f.runs = append(f.runs, event)
	return true, f.err
}

func handlerFor(events ...script.Event) map[script.Event]bool {
	m := make(map[script.Event]bool)
	for _, e := range events {
		m[e] = true
	}
	return m
}

func TestBindRunsInit(t *testing.T) {
	d := NewDispatcher(0)
	s := &fakeScript{handles: handlerFor(script.EventCreated)}
	require.NoError(t, d.Bind("npc-1", s))
	assert.Equal(t, 1, s.initCalls)

	_, ok := d.Context("npc-1")
	assert.True(t, ok)
}

func TestFireSelectsHandlers(t *testing.T) {
	d := NewDispatcher(0)
	chat := &fakeScript{name: "chat", handles: handlerFor(script.EventPlayerChats)}
	timer := &fakeScript{name: "timer", handles: handlerFor(script.EventTimeout)}
	require.NoError(t, d.Bind("npc-1", chat))
	require.NoError(t, d.Bind("npc-1", timer))

	invs, err := d.Fire("npc-1", script.EventPlayerChats, script.EventArgs{})
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, StateCompleted, invs[0].State)
	assert.Equal(t, []script.Event{script.EventPlayerChats}, chat.runs)
	assert.Empty(t, timer.runs)
}

func TestFireUnknownOwner(t *testing.T) {
	d := NewDispatcher(0)
	_, err := d.Fire("ghost", script.EventCreated, script.EventArgs{})
	require.Error(t, err)
}

// TestFireContinuesPastFailure verifies one failing script does not
// stop the scripts bound after it.
func TestFireContinuesPastFailure(t *testing.T) {
	d := NewDispatcher(0)
	bad := &fakeScript{handles: handlerFor(script.EventCreated), err: script.NewRuntimeError("boom")}
	good := &fakeScript{handles: handlerFor(script.EventCreated)}
	require.NoError(t, d.Bind("npc-1", bad))
	require.NoError(t, d.Bind("npc-1", good))

	invs, err := d.Fire("npc-1", script.EventCreated, script.EventArgs{})
	require.NoError(t, err)
	require.Len(t, invs, 2)
	assert.Equal(t, StateFailed, invs[0].State)
	assert.Equal(t, StateCompleted, invs[1].State)
	assert.Len(t, good.runs, 1)
}

func TestTimeoutMapsToTimedOut(t *testing.T) {
	d := NewDispatcher(0)
	slow := &fakeScript{handles: handlerFor(script.EventCreated), err: script.ErrTimeout}
	require.NoError(t, d.Bind("npc-1", slow))

	invs, err := d.Fire("npc-1", script.EventCreated, script.EventArgs{})
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, StateTimedOut, invs[0].State)
	assert.Equal(t, "TimedOut", invs[0].State.String())
}

func TestFireSetsPlayer(t *testing.T) {
	d := NewDispatcher(0)
	s := &fakeScript{handles: handlerFor(script.EventPlayerChats)}
	require.NoError(t, d.Bind("npc-1", s))

	player := script.ObjectRef{Kind: script.ObjectPlayer, ID: "alice"}
	_, err := d.Fire("npc-1", script.EventPlayerChats, script.EventArgs{Player: player})
	require.NoError(t, err)

	ctx, _ := d.Context("npc-1")
	got, ok := ctx.Player()
	require.True(t, ok)
	assert.Equal(t, "alice", got.ID)
}

// TestFireBindsEventArgs verifies chat text and coordinates are visible
// to the handler through the context while it runs.
func TestFireBindsEventArgs(t *testing.T) {
	d := NewDispatcher(0)
	var seen script.EventArgs
	s := &payloadReader{handles: handlerFor(script.EventPlayerChats), seen: &seen}
	require.NoError(t, d.Bind("npc-1", s))

	_, err := d.Fire("npc-1", script.EventPlayerChats, script.EventArgs{
		Player:  script.ObjectRef{Kind: script.ObjectPlayer, ID: "alice"},
		Message: "open sesame",
		X:       3,
		Y:       7,
	})
	require.NoError(t, err)

	assert.Equal(t, "open sesame", seen.Message)
	assert.Equal(t, 3.0, seen.X)
	assert.Equal(t, 7.0, seen.Y)
}

// payloadReader snapshots the event payload the context exposes.
type payloadReader struct {
	handles map[script.Event]bool
	seen    *script.EventArgs
}

func (p *payloadReader) HandlesEvent(event script.Event) bool { return p.handles[event] }
func (p *payloadReader) RunInit(ctx *script.Context) error    { return nil }

func (p *payloadReader) RunEvent(ctx *script.Context, event script.Event) (bool, error) {
	*p.seen = ctx.EventArgs()
	return true, nil
}

func TestDestroyRejectsLaterFires(t *testing.T) {
	d := NewDispatcher(0)
	s := &fakeScript{handles: handlerFor(script.EventCreated)}
	require.NoError(t, d.Bind("npc-1", s))

	d.Destroy("npc-1")
	_, err := d.Fire("npc-1", script.EventCreated, script.EventArgs{})
	require.Error(t, err)
	_, ok := d.Context("npc-1")
	assert.False(t, ok)
}

type recordingSaver struct {
	mu    sync.Mutex
	saves map[string]map[string]script.Value
}

func (r *recordingSaver) SaveGlobals(owner string, globals map[string]script.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saves == nil {
		r.saves = make(map[string]map[string]script.Value)
	}
	r.saves[owner] = globals
	return nil
}

// globalWriter bumps a counter global on every run.
type globalWriter struct {
	handles map[script.Event]bool
}

func (g *globalWriter) HandlesEvent(event script.Event) bool { return g.handles[event] }
func (g *globalWriter) RunInit(ctx *script.Context) error    { return nil }

func (g *globalWriter) RunEvent(ctx *script.Context, event script.Event) (bool, error) {
	v, _ := ctx.GetGlobal("x")
	n, _ := v.ToNumber()
	ctx.SetGlobal("x", script.Number(n+1))
	return true, nil
}

func TestSaverRunsAfterFire(t *testing.T) {
	d := NewDispatcher(0)
	saver := &recordingSaver{}
	d.SetSaver(saver)
	require.NoError(t, d.Bind("npc-1", &globalWriter{handles: handlerFor(script.EventTimeout)}))

	_, err := d.Fire("npc-1", script.EventTimeout, script.EventArgs{})
	require.NoError(t, err)

	saved := saver.saves["npc-1"]
	require.NotNil(t, saved)
	assert.Equal(t, 1.0, saved["x"].Num())
}

// TestBroadcast delivers one event to every owner concurrently.
func TestBroadcast(t *testing.T) {
	d := NewDispatcher(4)
	owners := []string{"npc-1", "npc-2", "npc-3", "npc-4", "npc-5"}
	for _, id := range owners {
		require.NoError(t, d.Bind(id, &globalWriter{handles: handlerFor(script.EventTimeout)}))
	}

	for i := 0; i < 10; i++ {
		d.Broadcast(script.EventTimeout, script.EventArgs{})
	}

	for _, id := range owners {
		ctx, ok := d.Context(id)
		require.True(t, ok)
		v, _ := ctx.GetGlobal("x")
		assert.Equal(t, 10.0, v.Num(), "owner %s", id)
	}
}
