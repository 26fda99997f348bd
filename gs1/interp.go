package gs1

import (
	"strconv"
	"strings"
	"time"

	"github.com/torchlight/gserver/pkg/bytecode"
	"github.com/torchlight/gserver/script"
)

// Caller dispatches a verb to a builtin by name. The builtin registry
// satisfies this.
type Caller interface {
	CallByName(ctx *script.Context, name string, args []script.Value) (script.Value, error)
}

// Interpreter executes parsed event blocks directly. Commands count
// against the instruction budget and wall clock so a GOTO loop ends in
// a timeout instead of hanging the caller.
type Interpreter struct {
	caller Caller
	limits bytecode.Limits
}

// NewInterpreter builds an interpreter over a builtin dispatcher.
// Zero limits fields fall back to defaults.
func NewInterpreter(caller Caller, limits bytecode.Limits) *Interpreter {
	return &Interpreter{caller: caller, limits: limits.WithDefaults()}
}

// RunEvent executes the blocks bound to the event, in source order.
// Returns false when no block handles the event.
func (in *Interpreter) RunEvent(ctx *script.Context, sc *Script, event script.Event) (bool, error) {
	handled := false
	for _, b := range sc.Blocks {
		if b.Event != event {
			continue
		}
		handled = true
		if err := in.runBlock(ctx, b); err != nil {
			return true, err
		}
	}
	return handled, nil
}

type run struct {
	in       *Interpreter
	ctx      *script.Context
	block    *Block
	budget   int
	deadline time.Time
}

func (in *Interpreter) runBlock(ctx *script.Context, b *Block) error {
	r := &run{
		in:       in,
		ctx:      ctx,
		block:    b,
		budget:   in.limits.InstructionBudget,
		deadline: time.Now().Add(in.limits.WallClock),
	}

	pc := 0
	for pc < len(b.Commands) {
		r.budget--
		if r.budget <= 0 || time.Now().After(r.deadline) {
			return script.ErrTimeout
		}

		next, err := r.exec(b.Commands[pc], pc)
		if err != nil {
			return err
		}
		if next >= 0 {
			pc = next
			continue
		}
		pc++
	}
	return nil
}

// exec runs one command. It returns the next command index for a taken
// GOTO, or -1 to fall through.
func (r *run) exec(cmd Command, pc int) (int, error) {
	switch cmd.Verb {
	case "label":
		return -1, nil

	case "set":
		if len(cmd.Args) != 2 {
			return -1, script.NewRuntimeError("line %d: expected SET <name> <value>", cmd.Line)
		}
		name := strings.TrimPrefix(cmd.Args[0].Text, "$")
		r.ctx.SetGlobal(name, r.resolve(cmd.Args[1]))
		return -1, nil

	case "goto":
		if len(cmd.Args) != 1 {
			return -1, script.NewRuntimeError("line %d: expected GOTO <label>", cmd.Line)
		}
		target, ok := r.block.labels[strings.ToLower(cmd.Args[0].Text)]
		if !ok {
			return -1, script.NewRuntimeError("line %d: unknown label %q", cmd.Line, cmd.Args[0].Text)
		}
		return target, nil

	case "if":
		if len(cmd.Args) < 4 {
			return -1, script.NewRuntimeError("line %d: expected IF <lhs> <op> <rhs> <command>", cmd.Line)
		}
		hold, err := r.compare(cmd.Args[0], cmd.Args[1].Text, cmd.Args[2], cmd.Line)
		if err != nil {
			return -1, err
		}
		if !hold {
			return -1, nil
		}
		inner := Command{
			Verb: strings.ToLower(cmd.Args[3].Text),
			Args: cmd.Args[4:],
			Line: cmd.Line,
		}
		return r.exec(inner, pc)

	default:
		args := make([]script.Value, len(cmd.Args))
		for i, a := range cmd.Args {
			args[i] = r.resolve(a)
		}
		_, err := r.in.caller.CallByName(r.ctx, cmd.Verb, args)
		return -1, err
	}
}

func (r *run) compare(lhs Arg, op string, rhs Arg, line int) (bool, error) {
	a := r.resolve(lhs)
	b := r.resolve(rhs)
	switch op {
	case "==":
		return script.Equals(a, b), nil
	case "!=":
		return !script.Equals(a, b), nil
	case "<":
		return script.Compare(a, b) < 0, nil
	case "<=":
		return script.Compare(a, b) <= 0, nil
	case ">":
		return script.Compare(a, b) > 0, nil
	case ">=":
		return script.Compare(a, b) >= 0, nil
	}
	return false, script.NewRuntimeError("line %d: unknown comparison %q", line, op)
}

// resolve turns one raw token into a value: quoted text is a string,
// $name reads a context global (missing reads are null), numeric text
// is a number, anything else stays a bare string.
func (r *run) resolve(a Arg) script.Value {
	if a.Quoted {
		return script.String(a.Text)
	}
	if strings.HasPrefix(a.Text, "$") {
		v, ok := r.ctx.GetGlobal(a.Text[1:])
		if !ok {
			return script.Null
		}
		return v
	}
	if n, err := strconv.ParseFloat(a.Text, 64); err == nil {
		return script.Number(n)
	}
	return script.String(a.Text)
}
