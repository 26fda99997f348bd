// Package bytecode implements the GS2 back end: a byte-addressed
// instruction set, the code generator that lowers the compiler's AST into
// it, and the stack VM that executes it under resource limits.
package bytecode

import (
	"time"

	"github.com/torchlight/gserver/script"
)

// Function is one compiled function body: a named chunk with its
// parameter and local slot counts. Event handlers and the init body are
// compiled as zero-parameter functions.
type Function struct {
	Name       string
	ParamCount uint8
	LocalCount uint8 // total slots including parameters
	Chunk      *Chunk
}

// Program is the compiled form of a GS2 script. It is immutable after
// compilation and safe to share between contexts.
type Program struct {
	// Functions in definition order. Index 0 is always the init function.
	Functions []*Function

	// FuncIndex resolves a function name to its table index.
	FuncIndex map[string]uint16

	// Handlers maps each handled event to its function index.
	Handlers map[script.Event]uint16

	// GlobalNames lists the names declared with `global`, in declaration
	// order.
	GlobalNames []string
}

// InitFuncIndex is the function table slot of the implicit init body.
const InitFuncIndex uint16 = 0

// HandlesEvent reports whether the program has a handler for the event.
func (p *Program) HandlesEvent(e script.Event) bool {
	_, ok := p.Handlers[e]
	return ok
}

// Host provides the VM's view of the outside world: the builtin registry
// and property access on game objects. Implementations must be safe for
// concurrent use.
type Host interface {
	// CallBuiltin invokes the builtin at the index the compiler resolved.
	CallBuiltin(ctx *script.Context, index int, args []script.Value) (script.Value, error)

	// CallMethod invokes a named method on a receiver value.
	CallMethod(ctx *script.Context, recv script.Value, name string, args []script.Value) (script.Value, error)

	// GetMember reads a named property of a receiver value.
	GetMember(ctx *script.Context, recv script.Value, name string) (script.Value, error)

	// SetMember writes a named property of a receiver value.
	SetMember(ctx *script.Context, recv script.Value, name string, v script.Value) error
}

// BuiltinResolver resolves builtin names to registry indices at compile
// time.
type BuiltinResolver interface {
	ResolveBuiltin(name string) (int, bool)
}

// Limits bounds one VM invocation. Zero fields fall back to the defaults.
type Limits struct {
	MaxFrameDepth     int
	MaxStackDepth     int
	InstructionBudget int
	WallClock         time.Duration
}

// Default execution limits.
const (
	DefaultMaxFrameDepth     = 64
	DefaultMaxStackDepth     = 4096
	DefaultInstructionBudget = 1_000_000
	DefaultWallClock         = 100 * time.Millisecond
)

// DefaultLimits returns the default execution limits.
func DefaultLimits() Limits {
	return Limits{
		MaxFrameDepth:     DefaultMaxFrameDepth,
		MaxStackDepth:     DefaultMaxStackDepth,
		InstructionBudget: DefaultInstructionBudget,
		WallClock:         DefaultWallClock,
	}
}

// WithDefaults fills zero fields with the default limits.
func (l Limits) WithDefaults() Limits {
	if l.MaxFrameDepth <= 0 {
		l.MaxFrameDepth = DefaultMaxFrameDepth
	}
	if l.MaxStackDepth <= 0 {
		l.MaxStackDepth = DefaultMaxStackDepth
	}
	if l.InstructionBudget <= 0 {
		l.InstructionBudget = DefaultInstructionBudget
	}
	if l.WallClock <= 0 {
		l.WallClock = DefaultWallClock
	}
	return l
}
