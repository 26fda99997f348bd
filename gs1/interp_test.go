package gs1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torchlight/gserver/pkg/bytecode"
	"github.com/torchlight/gserver/script"
)

// mockCaller records builtin invocations by name.
type mockCaller struct {
	calls []struct {
		Name string
		Args []script.Value
	}
	err error
}

func (m *mockCaller) CallByName(ctx *script.Context, name string, args []script.Value) (script.Value, error) {
	m.calls = append(m.calls, struct {
		Name string
		Args []script.Value
	}{name, args})
	return script.Null, m.err
}

func runEvent(t *testing.T, src string, event script.Event) (*mockCaller, *script.Context, error) {
	t.Helper()
	sc, err := Parse(src)
	require.NoError(t, err)
	caller := &mockCaller{}
	in := NewInterpreter(caller, bytecode.Limits{})
	ctx := script.NewContext("test")
	_, err = in.RunEvent(ctx, sc, event)
	return caller, ctx, err
}

func TestParseBlocks(t *testing.T) {
	sc, err := Parse("ON CREATED\nSHOWTEXT hi\nON PLAYERCHATS\nSHOWTEXT yo\nSHOWTEXT again")
	require.NoError(t, err)
	require.Len(t, sc.Blocks, 2)
	assert.Equal(t, script.EventCreated, sc.Blocks[0].Event)
	assert.Len(t, sc.Blocks[0].Commands, 1)
	assert.Equal(t, script.EventPlayerChats, sc.Blocks[1].Event)
	assert.Len(t, sc.Blocks[1].Commands, 2)
	assert.True(t, sc.HandlesEvent(script.EventCreated))
	assert.False(t, sc.HandlesEvent(script.EventTimeout))
}

func TestParseUnknownEvent(t *testing.T) {
	_, err := Parse("ON BANANA\nSHOWTEXT hi")
	var parseErr *script.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Line)
}

func TestParseCommandOutsideBlock(t *testing.T) {
	_, err := Parse("SHOWTEXT hi")
	var parseErr *script.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseCommentsAndBlanks(t *testing.T) {
	sc, err := Parse("# greeting script\n\nON CREATED\n  # noop\n  SHOWTEXT hi\n")
	require.NoError(t, err)
	require.Len(t, sc.Blocks, 1)
	assert.Len(t, sc.Blocks[0].Commands, 1)
}

func TestParseQuotedArgs(t *testing.T) {
	sc, err := Parse(`ON CREATED
SHOWTEXT "hello there \"friend\""`)
	require.NoError(t, err)
	cmd := sc.Blocks[0].Commands[0]
	require.Len(t, cmd.Args, 1)
	assert.True(t, cmd.Args[0].Quoted)
	assert.Equal(t, `hello there "friend"`, cmd.Args[0].Text)
}

func TestParseUnterminatedString(t *testing.T) {
	_, err := Parse("ON CREATED\nSHOWTEXT \"oops")
	var parseErr *script.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
}

// TestEventSelectivity verifies the PLAYERCHATS block fires once on
// PlayerChats and never on other events.
func TestEventSelectivity(t *testing.T) {
	src := "ON PLAYERCHATS\nSHOWTEXT Hello"

	caller, _, err := runEvent(t, src, script.EventPlayerChats)
	require.NoError(t, err)
	require.Len(t, caller.calls, 1)
	assert.Equal(t, "showtext", caller.calls[0].Name)
	require.Len(t, caller.calls[0].Args, 1)
	assert.Equal(t, "Hello", caller.calls[0].Args[0].Str())

	caller, _, err = runEvent(t, src, script.EventPlayerEnters)
	require.NoError(t, err)
	assert.Empty(t, caller.calls)
}

func TestUnhandledEvent(t *testing.T) {
	sc, err := Parse("ON CREATED\nSHOWTEXT hi")
	require.NoError(t, err)
	in := NewInterpreter(&mockCaller{}, bytecode.Limits{})
	handled, err := in.RunEvent(script.NewContext("test"), sc, script.EventTimeout)
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestSetAndSubstitution(t *testing.T) {
	src := "ON CREATED\nSET coins 30\nSHOWTEXT $coins\nSHOWTEXT $missing"
	caller, ctx, err := runEvent(t, src, script.EventCreated)
	require.NoError(t, err)

	v, ok := ctx.GetGlobal("coins")
	require.True(t, ok)
	assert.Equal(t, 30.0, v.Num())

	require.Len(t, caller.calls, 2)
	assert.Equal(t, 30.0, caller.calls[0].Args[0].Num())
	assert.True(t, caller.calls[1].Args[0].IsNull())
}

func TestIfComparisons(t *testing.T) {
	src := `ON CREATED
SET hp 40
IF $hp < 50 SHOWTEXT low
IF $hp >= 50 SHOWTEXT fine
IF $hp == 40 SHOWTEXT exact
IF abc != abc SHOWTEXT never`
	caller, _, err := runEvent(t, src, script.EventCreated)
	require.NoError(t, err)
	require.Len(t, caller.calls, 2)
	assert.Equal(t, "low", caller.calls[0].Args[0].Str())
	assert.Equal(t, "exact", caller.calls[1].Args[0].Str())
}

// TestIfSet verifies control verbs may follow a taken IF.
func TestIfSet(t *testing.T) {
	src := "ON CREATED\nIF 1 == 1 SET won yes"
	_, ctx, err := runEvent(t, src, script.EventCreated)
	require.NoError(t, err)
	v, ok := ctx.GetGlobal("won")
	require.True(t, ok)
	assert.Equal(t, "yes", v.Str())
}

// TestGotoLoop counts down with a GOTO loop.
func TestGotoLoop(t *testing.T) {
	src := `ON CREATED
SET n 3
LABEL top
IF $n == 0 GOTO done
TICK $n
SET n 0
GOTO top
LABEL done
SHOWTEXT finished`
	// the loop body cannot decrement without arithmetic verbs, so it
	// zeroes n after one tick
	caller, _, err := runEvent(t, src, script.EventCreated)
	require.NoError(t, err)
	require.Len(t, caller.calls, 2)
	assert.Equal(t, "tick", caller.calls[0].Name)
	assert.Equal(t, "showtext", caller.calls[1].Name)
}

func TestGotoUnknownLabel(t *testing.T) {
	_, _, err := runEvent(t, "ON CREATED\nGOTO nowhere", script.EventCreated)
	var runtimeErr *script.RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
}

// TestGotoLoopTimesOut verifies an infinite GOTO loop hits the budget
// instead of hanging.
func TestGotoLoopTimesOut(t *testing.T) {
	sc, err := Parse("ON CREATED\nLABEL top\nGOTO top")
	require.NoError(t, err)
	in := NewInterpreter(&mockCaller{}, bytecode.Limits{
		InstructionBudget: 10_000,
		WallClock:         time.Second,
	})
	_, err = in.RunEvent(script.NewContext("test"), sc, script.EventCreated)
	require.ErrorIs(t, err, script.ErrTimeout)
}

func TestBuiltinErrorStops(t *testing.T) {
	sc, err := Parse("ON CREATED\nBOOM\nSHOWTEXT unreached")
	require.NoError(t, err)
	caller := &mockCaller{err: script.NewRuntimeError("boom")}
	in := NewInterpreter(caller, bytecode.Limits{})
	_, err = in.RunEvent(script.NewContext("test"), sc, script.EventCreated)
	var runtimeErr *script.RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	assert.Len(t, caller.calls, 1)
}

func TestNumericBareArgs(t *testing.T) {
	caller, _, err := runEvent(t, "ON CREATED\nWARPTO 12 -3.5 town", script.EventCreated)
	require.NoError(t, err)
	require.Len(t, caller.calls, 1)
	args := caller.calls[0].Args
	require.Len(t, args, 3)
	assert.Equal(t, 12.0, args[0].Num())
	assert.Equal(t, -3.5, args[1].Num())
	assert.Equal(t, "town", args[2].Str())
}

func TestDuplicateLabelRejected(t *testing.T) {
	_, err := Parse("ON CREATED\nLABEL a\nLABEL a")
	var parseErr *script.ParseError
	require.ErrorAs(t, err, &parseErr)
}
