package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torchlight/gserver/builtins"
	"github.com/torchlight/gserver/script"
	"github.com/torchlight/gserver/storage"
)

// chatWorld records text sent to players.
type chatWorld struct {
	builtins.NopWorld
	sent []string
}

func (w *chatWorld) SendToPlayer(player script.ObjectRef, text string) error {
	w.sent = append(w.sent, player.ID+"|"+text)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *chatWorld) {
	t.Helper()
	world := &chatWorld{}
	e := New(world, Options{})
	t.Cleanup(e.Close)
	return e, world
}

func chatArgs(playerID string) script.EventArgs {
	return script.EventArgs{Player: script.ObjectRef{Kind: script.ObjectPlayer, ID: playerID}}
}

func TestParseLanguage(t *testing.T) {
	lang, ok := ParseLanguage("GS1")
	require.True(t, ok)
	assert.Equal(t, LangGS1, lang)
	lang, ok = ParseLanguage("gs2")
	require.True(t, ok)
	assert.Equal(t, LangGS2, lang)
	_, ok = ParseLanguage("lua")
	assert.False(t, ok)
}

// TestGS1EndToEnd runs the chat greeter scenario: the script fires on
// PlayerChats only, sending exactly one message.
func TestGS1EndToEnd(t *testing.T) {
	e, world := newTestEngine(t)

	_, err := e.LoadScript("npc-1", "ON PLAYERCHATS\nSHOWTEXT Hello", LangGS1)
	require.NoError(t, err)

	invs, err := e.TriggerEvent("npc-1", script.EventPlayerChats, chatArgs("alice"))
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, []string{"alice|Hello"}, world.sent)

	invs, err = e.TriggerEvent("npc-1", script.EventPlayerEnters, chatArgs("alice"))
	require.NoError(t, err)
	assert.Empty(t, invs)
	assert.Len(t, world.sent, 1)
}

// TestGS2EndToEnd binds a GS2 counter script and fires Timeout 100
// times.
func TestGS2EndToEnd(t *testing.T) {
	e, _ := newTestEngine(t)

	src := `
global x = 0;

on Timeout {
	x = x + 1;
}
`
	_, err := e.LoadScript("npc-1", src, LangGS2)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		_, err := e.TriggerEvent("npc-1", script.EventTimeout, script.EventArgs{})
		require.NoError(t, err)
	}

	ctx, ok := e.Context("npc-1")
	require.True(t, ok)
	v, ok := ctx.GetGlobal("x")
	require.True(t, ok)
	assert.Equal(t, 100.0, v.Num())
}

func TestGS2InitRunsAtBind(t *testing.T) {
	e, world := newTestEngine(t)

	src := `
global greeting = "Hi";

on PlayerChats {
	showtext(greeting);
}
`
	_, err := e.LoadScript("npc-1", src, LangGS2)
	require.NoError(t, err)

	_, err = e.TriggerEvent("npc-1", script.EventPlayerChats, chatArgs("bob"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bob|Hi"}, world.sent)
}

func TestCheckScript(t *testing.T) {
	e, _ := newTestEngine(t)

	require.NoError(t, e.CheckScript("ON CREATED\nSHOWTEXT hi", LangGS1))
	require.NoError(t, e.CheckScript("on Created { showtext(\"hi\"); }", LangGS2))

	var parseErr *script.ParseError
	err := e.CheckScript("ON BANANA\nSHOWTEXT hi", LangGS1)
	require.ErrorAs(t, err, &parseErr)
	err = e.CheckScript("on Created { if }", LangGS2)
	require.ErrorAs(t, err, &parseErr)
	err = e.CheckScript("on Created { nosuchbuiltin(); }", LangGS2)
	require.Error(t, err)
}

// TestCompileCache verifies identical sources parse once.
func TestCompileCache(t *testing.T) {
	e, _ := newTestEngine(t)

	a, err := e.compileSource("ON CREATED\nSHOWTEXT hi", LangGS1)
	require.NoError(t, err)
	b, err := e.compileSource("ON CREATED\nSHOWTEXT hi", LangGS1)
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := e.compileSource("ON CREATED\nSHOWTEXT yo", LangGS1)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestMultipleScriptsPerOwner(t *testing.T) {
	e, world := newTestEngine(t)

	_, err := e.LoadScript("npc-1", "ON PLAYERCHATS\nSHOWTEXT first", LangGS1)
	require.NoError(t, err)
	_, err = e.LoadScript("npc-1", "ON PLAYERCHATS\nSHOWTEXT second", LangGS1)
	require.NoError(t, err)

	invs, err := e.TriggerEvent("npc-1", script.EventPlayerChats, chatArgs("alice"))
	require.NoError(t, err)
	require.Len(t, invs, 2)
	assert.Equal(t, []string{"alice|first", "alice|second"}, world.sent)
}

func TestDestroyOwner(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.LoadScript("npc-1", "ON CREATED\nSHOWTEXT hi", LangGS1)
	require.NoError(t, err)
	e.DestroyOwner("npc-1")

	_, err = e.TriggerEvent("npc-1", script.EventCreated, script.EventArgs{})
	require.Error(t, err)
}

// TestPersistenceRoundTrip destroys an owner and reloads it; saved
// globals win over the script's initializers.
func TestPersistenceRoundTrip(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "globals.db"))
	require.NoError(t, err)
	defer store.Close()

	src := `
global coins = 5;

on PlayerClicks {
	coins = coins + 1;
}
`
	e, _ := newTestEngine(t)
	e.AttachStore(store)

	_, err = e.LoadScript("npc-1", src, LangGS2)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = e.TriggerEvent("npc-1", script.EventPlayerClicks, chatArgs("alice"))
		require.NoError(t, err)
	}
	e.DestroyOwner("npc-1")

	e2, _ := newTestEngine(t)
	e2.AttachStore(store)
	_, err = e2.LoadScript("npc-1", src, LangGS2)
	require.NoError(t, err)

	ctx, ok := e2.Context("npc-1")
	require.True(t, ok)
	v, ok := ctx.GetGlobal("coins")
	require.True(t, ok)
	assert.Equal(t, 8.0, v.Num(), "stored value overrides the initializer")
}

// TestTimeoutRequest honors the GS1 "SET timeout n" convention.
func TestTimeoutRequest(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.LoadScript("npc-1", "ON CREATED\nSET timeout 2", LangGS1)
	require.NoError(t, err)
	_, err = e.TriggerEvent("npc-1", script.EventCreated, script.EventArgs{})
	require.NoError(t, err)

	e.mu.Lock()
	want := e.lastTimeout["npc-1"]
	e.mu.Unlock()
	assert.Equal(t, 2*time.Second, want)

	// setting timeout back to zero cancels the schedule
	ctx, _ := e.Context("npc-1")
	ctx.SetGlobal("timeout", script.Number(0))
	e.applyTimeoutRequest("npc-1")
	e.mu.Lock()
	_, had := e.lastTimeout["npc-1"]
	e.mu.Unlock()
	assert.False(t, had)
}

func TestRuntimeFailureRecorded(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.LoadScript("npc-1", "on PlayerClicks { x = 1 / 0; }", LangGS2)
	require.NoError(t, err)

	invs, err := e.TriggerEvent("npc-1", script.EventPlayerClicks, chatArgs("alice"))
	require.NoError(t, err)
	require.Len(t, invs, 1)
	var runtimeErr *script.RuntimeError
	assert.ErrorAs(t, invs[0].Err, &runtimeErr)
}
