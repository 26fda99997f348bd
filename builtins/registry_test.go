package builtins

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torchlight/gserver/script"
)

// mockWorld records every outward action so tests can assert on what a
// builtin did to the game server.
type mockWorld struct {
	NopWorld

	sent    []string
	casts   []string
	sounds  []string
	props   map[string]script.Value
	weapons map[string]bool
}

func newMockWorld() *mockWorld {
	return &mockWorld{
		props:   make(map[string]script.Value),
		weapons: make(map[string]bool),
	}
}

func (m *mockWorld) SendToPlayer(player script.ObjectRef, text string) error {
	m.sent = append(m.sent, player.ID+"|"+text)
	return nil
}

func (m *mockWorld) BroadcastToLevel(level script.ObjectRef, text string) error {
	m.casts = append(m.casts, level.ID+"|"+text)
	return nil
}

func (m *mockWorld) PlaySound(level script.ObjectRef, sound string) error {
	m.sounds = append(m.sounds, sound)
	return nil
}

func (m *mockWorld) GetProperty(ref script.ObjectRef, name string) (script.Value, error) {
	v, ok := m.props[ref.ID+"."+name]
	if !ok {
		return script.Null, nil
	}
	return v, nil
}

func (m *mockWorld) SetProperty(ref script.ObjectRef, name string, v script.Value) error {
	m.props[ref.ID+"."+name] = v
	return nil
}

func (m *mockWorld) GiveWeapon(player script.ObjectRef, weapon string) error {
	m.weapons[player.ID+"|"+weapon] = true
	return nil
}

func (m *mockWorld) HasWeapon(player script.ObjectRef, weapon string) (bool, error) {
	return m.weapons[player.ID+"|"+weapon], nil
}

func (m *mockWorld) PlayersInLevel(level script.ObjectRef) ([]script.ObjectRef, error) {
	return []script.ObjectRef{
		{Kind: script.ObjectPlayer, ID: "p1"},
		{Kind: script.ObjectPlayer, ID: "p2"},
	}, nil
}

func eventCtx() *script.Context {
	ctx := script.NewContext("npc-1")
	player := script.ObjectRef{Kind: script.ObjectPlayer, ID: "alice"}
	level := script.ObjectRef{Kind: script.ObjectLevel, ID: "town"}
	ctx.SetPlayer(&player)
	ctx.SetLevel(&level)
	return ctx
}

func call(t *testing.T, r *Registry, ctx *script.Context, name string, args ...script.Value) script.Value {
	t.Helper()
	v, err := r.CallByName(ctx, name, args)
	require.NoError(t, err)
	return v
}

// TestRegistryIndicesStable verifies builtin indices survive repeated
// construction, since compiled programs embed them.
func TestRegistryIndicesStable(t *testing.T) {
	a := NewRegistry(NopWorld{})
	b := NewRegistry(NopWorld{})

	require.Equal(t, a.Len(), b.Len())
	for _, name := range a.Names() {
		ia, ok := a.Resolve(name)
		require.True(t, ok)
		ib, ok := b.Resolve(name)
		require.True(t, ok)
		assert.Equal(t, ia, ib, "index of %s", name)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry(NopWorld{})
	names := r.Names()
	assert.True(t, sort.StringsAreSorted(names))
	assert.GreaterOrEqual(t, len(names), 200)
}

func TestRegistryAliases(t *testing.T) {
	r := NewRegistry(NopWorld{})
	ctx := script.NewContext("x")

	assert.Equal(t, 5.0, call(t, r, ctx, "strlen", script.String("hello")).Num())

	b, ok := r.Lookup("substr")
	require.True(t, ok)
	assert.Equal(t, "substr(s, start, len)", b.Signature)
}

// Per-property accessors read and write through the same world surface
// as the generic prop builtins.
func TestPropertyAccessors(t *testing.T) {
	world := newMockWorld()
	r := NewRegistry(world)
	ctx := eventCtx()

	call(t, r, ctx, "setplayerhp", script.Number(42))
	assert.Equal(t, 42.0, call(t, r, ctx, "playerhp").Num())
	assert.Equal(t, 42.0, call(t, r, ctx, "playerprop", script.String("hp")).Num())

	npc := script.Object(script.ObjectRef{Kind: script.ObjectNPC, ID: "npc-9"})
	call(t, r, ctx, "setnpcimage", npc, script.String("guard.png"))
	assert.Equal(t, "guard.png", call(t, r, ctx, "npcimage", npc).Str())
}

func TestRegistryUnknownBuiltin(t *testing.T) {
	r := NewRegistry(NopWorld{})
	_, err := r.CallByName(script.NewContext("x"), "nosuchthing", nil)
	var callErr *script.InvalidCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "nosuchthing", callErr.Target)
}

func TestMathBuiltins(t *testing.T) {
	r := NewRegistry(NopWorld{})
	ctx := script.NewContext("x")

	assert.Equal(t, 5.0, call(t, r, ctx, "abs", script.Number(-5)).Num())
	assert.Equal(t, 8.0, call(t, r, ctx, "pow", script.Number(2), script.Number(3)).Num())
	assert.Equal(t, 3.0, call(t, r, ctx, "min", script.Number(3), script.Number(7)).Num())
	assert.Equal(t, 5.0, call(t, r, ctx, "clamp", script.Number(9), script.Number(1), script.Number(5)).Num())
	assert.Equal(t, 2.0, call(t, r, ctx, "floor", script.Number(2.9)).Num())
}

func TestStringBuiltins(t *testing.T) {
	r := NewRegistry(NopWorld{})
	ctx := script.NewContext("x")

	assert.Equal(t, "HELLO", call(t, r, ctx, "uppercase", script.String("hello")).Str())
	assert.Equal(t, 5.0, call(t, r, ctx, "length", script.String("hello")).Num())

	// substring clips out-of-range bounds instead of failing
	v := call(t, r, ctx, "substring", script.String("hello"), script.Number(3), script.Number(99))
	assert.Equal(t, "lo", v.Str())

	// tonumber yields null on junk, not an error
	assert.True(t, call(t, r, ctx, "tonumber", script.String("zebra")).IsNull())
	assert.Equal(t, 4.5, call(t, r, ctx, "tonumber", script.String(" 4.5 ")).Num())
}

func TestArrayBuiltins(t *testing.T) {
	r := NewRegistry(NopWorld{})
	ctx := script.NewContext("x")

	arr := call(t, r, ctx, "arraynew", script.Number(0))
	grown := call(t, r, ctx, "arrayappend", arr, script.Number(1))
	assert.Equal(t, 0.0, call(t, r, ctx, "arraylen", arr).Num(), "append must not mutate the original")
	assert.Equal(t, 1.0, call(t, r, ctx, "arraylen", grown).Num())

	joined := call(t, r, ctx, "arrayjoin",
		script.Array([]script.Value{script.Number(1), script.String("a")}), script.String("-"))
	assert.Equal(t, "1-a", joined.Str())
}

func TestFormatBuiltin(t *testing.T) {
	r := NewRegistry(NopWorld{})
	ctx := script.NewContext("x")

	v := call(t, r, ctx, "format",
		script.String("hi {0}, you have {1} coins"),
		script.String("alice"), script.Number(30))
	assert.Equal(t, "hi alice, you have 30 coins", v.Str())
}

func TestTypeofBuiltin(t *testing.T) {
	r := NewRegistry(NopWorld{})
	ctx := script.NewContext("x")

	assert.Equal(t, "number", call(t, r, ctx, "typeof", script.Number(1)).Str())
	assert.Equal(t, "null", call(t, r, ctx, "typeof", script.Null).Str())
	assert.True(t, call(t, r, ctx, "isarray", script.Array(nil)).IsTruthy())
}

// TestShowtext verifies showtext targets the player attached to the
// current event.
func TestShowtext(t *testing.T) {
	world := newMockWorld()
	r := NewRegistry(world)
	ctx := eventCtx()

	call(t, r, ctx, "showtext", script.String("Hello"))
	require.Len(t, world.sent, 1)
	assert.Equal(t, "alice|Hello", world.sent[0])
}

// TestEventPayloadBuiltins verifies scripts can read the chat text and
// coordinates of the event being dispatched.
func TestEventPayloadBuiltins(t *testing.T) {
	r := NewRegistry(newMockWorld())
	ctx := eventCtx()

	assert.Equal(t, "", call(t, r, ctx, "chatmessage").Str())

	ctx.SetEventArgs(script.EventArgs{Message: "hello there", X: 12, Y: 34})
	assert.Equal(t, "hello there", call(t, r, ctx, "chatmessage").Str())
	assert.Equal(t, 12.0, call(t, r, ctx, "eventx").Num())
	assert.Equal(t, 34.0, call(t, r, ctx, "eventy").Num())
}

func TestShowtextWithoutPlayer(t *testing.T) {
	r := NewRegistry(newMockWorld())
	ctx := script.NewContext("npc-1")

	_, err := r.CallByName(ctx, "showtext", []script.Value{script.String("Hello")})
	var callErr *script.InvalidCallError
	require.ErrorAs(t, err, &callErr)
}

func TestBroadcastAndSound(t *testing.T) {
	world := newMockWorld()
	r := NewRegistry(world)
	ctx := eventCtx()

	call(t, r, ctx, "broadcast", script.String("event starting"))
	call(t, r, ctx, "playsound", script.String("bell.wav"))

	require.Len(t, world.casts, 1)
	assert.Equal(t, "town|event starting", world.casts[0])
	assert.Equal(t, []string{"bell.wav"}, world.sounds)
}

func TestPlayerProps(t *testing.T) {
	world := newMockWorld()
	r := NewRegistry(world)
	ctx := eventCtx()

	call(t, r, ctx, "setplayerprop", script.String("hp"), script.Number(80))
	v := call(t, r, ctx, "playerprop", script.String("hp"))
	assert.Equal(t, 80.0, v.Num())
}

func TestWeapons(t *testing.T) {
	world := newMockWorld()
	r := NewRegistry(world)
	ctx := eventCtx()

	assert.False(t, call(t, r, ctx, "hasweapon", script.String("bow")).IsTruthy())
	call(t, r, ctx, "giveweapon", script.String("bow"))
	assert.True(t, call(t, r, ctx, "hasweapon", script.String("bow")).IsTruthy())

	// explicit player handle form
	bob := script.Object(script.ObjectRef{Kind: script.ObjectPlayer, ID: "bob"})
	call(t, r, ctx, "giveweapon", bob, script.String("sword"))
	assert.True(t, call(t, r, ctx, "hasweapon", bob, script.String("sword")).IsTruthy())
}

func TestPlayerList(t *testing.T) {
	world := newMockWorld()
	r := NewRegistry(world)
	ctx := eventCtx()

	assert.Equal(t, 2.0, call(t, r, ctx, "playercount").Num())
	list := call(t, r, ctx, "playerlist")
	require.Equal(t, script.KindArray, list.Kind)
	assert.Equal(t, "p1", list.Elems()[0].Ref().ID)
}

func TestSpawnAndRemoveNPC(t *testing.T) {
	r := NewRegistry(NopWorld{})
	ctx := eventCtx()

	npc := call(t, r, ctx, "spawnnpc", script.String("guard"), script.Number(3), script.Number(4))
	require.Equal(t, script.KindObject, npc.Kind)
	assert.Equal(t, script.ObjectNPC, npc.Ref().Kind)
	call(t, r, ctx, "removenpc", npc)
}

func TestHostMembers(t *testing.T) {
	world := newMockWorld()
	h := NewHost(NewRegistry(world), world)
	ctx := eventCtx()

	arr := script.Array([]script.Value{script.Number(1), script.Number(2)})
	v, err := h.GetMember(ctx, arr, "length")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.Num())

	bob := script.Object(script.ObjectRef{Kind: script.ObjectPlayer, ID: "bob"})
	require.NoError(t, h.SetMember(ctx, bob, "hp", script.Number(50)))
	v, err = h.GetMember(ctx, bob, "hp")
	require.NoError(t, err)
	assert.Equal(t, 50.0, v.Num())

	err = h.SetMember(ctx, script.Number(1), "x", script.Null)
	var runtimeErr *script.RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
}

func TestHostMethods(t *testing.T) {
	world := newMockWorld()
	h := NewHost(NewRegistry(world), world)
	ctx := eventCtx()

	arr := script.Array([]script.Value{script.Number(1), script.Number(2), script.Number(3)})
	v, err := h.CallMethod(ctx, arr, "size", nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.Num())

	_, err = h.CallMethod(ctx, script.Number(1), "size", nil)
	require.True(t, errors.As(err, new(*script.InvalidCallError)))
}
