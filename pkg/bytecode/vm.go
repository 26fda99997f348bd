package bytecode

import (
	"time"

	"github.com/torchlight/gserver/script"
)

// ---------------------------------------------------------------------------
// VM: stack machine executing compiled programs
// ---------------------------------------------------------------------------

// timeCheckInterval is how many instructions run between wall-clock checks.
const timeCheckInterval = 1024

// frame is one function activation.
type frame struct {
	fn     *Function
	ip     int
	locals []script.Value
}

// VM executes one invocation at a time against a script context. A VM is
// not safe for concurrent use; the dispatcher serializes invocations per
// context.
type VM struct {
	prog   *Program
	host   Host
	limits Limits

	stack  []script.Value
	frames []frame

	instrs   int
	deadline time.Time
}

// NewVM creates a VM for a compiled program.
func NewVM(prog *Program, host Host, limits Limits) *VM {
	return &VM{
		prog:   prog,
		host:   host,
		limits: limits.WithDefaults(),
	}
}

// RunInit executes the implicit init body.
func (v *VM) RunInit(ctx *script.Context) error {
	_, err := v.Run(ctx, InitFuncIndex, nil)
	return err
}

// RunHandler executes the handler for an event. Returns false if the
// program has no handler for it.
func (v *VM) RunHandler(ctx *script.Context, event script.Event) (bool, error) {
	idx, ok := v.prog.Handlers[event]
	if !ok {
		return false, nil
	}
	_, err := v.Run(ctx, idx, nil)
	return true, err
}

// Run executes the function at the given table index with the given
// arguments and returns its result. Global reads and writes go through
// ctx; writes made before a failure are kept.
func (v *VM) Run(ctx *script.Context, fnIndex uint16, args []script.Value) (script.Value, error) {
	if int(fnIndex) >= len(v.prog.Functions) {
		return script.Null, script.NewRuntimeError("no function at index %d", fnIndex)
	}
	fn := v.prog.Functions[int(fnIndex)]
	if len(args) != int(fn.ParamCount) {
		return script.Null, &script.InvalidCallError{
			Target:  fn.Name,
			Message: "wrong argument count",
		}
	}

	v.stack = v.stack[:0]
	v.frames = v.frames[:0]
	v.instrs = 0
	v.deadline = time.Now().Add(v.limits.WallClock)

	v.pushFrame(fn, args)
	return v.exec(ctx)
}

func (v *VM) pushFrame(fn *Function, args []script.Value) {
	locals := make([]script.Value, fn.LocalCount)
	copy(locals, args)
	v.frames = append(v.frames, frame{fn: fn, locals: locals})
}

func (v *VM) push(val script.Value) error {
	if len(v.stack) >= v.limits.MaxStackDepth {
		return script.ErrStackOverflow
	}
	v.stack = append(v.stack, val)
	return nil
}

func (v *VM) pop() script.Value {
	val := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return val
}

// popN removes and returns the top n values in push order.
func (v *VM) popN(n int) []script.Value {
	vals := make([]script.Value, n)
	copy(vals, v.stack[len(v.stack)-n:])
	v.stack = v.stack[:len(v.stack)-n]
	return vals
}

func (v *VM) exec(ctx *script.Context) (script.Value, error) {
	for {
		f := &v.frames[len(v.frames)-1]
		code := f.fn.Chunk.Code

		if f.ip >= len(code) {
			return script.Null, script.NewRuntimeError("instruction pointer out of range in %s", f.fn.Name)
		}

		v.instrs++
		if v.instrs > v.limits.InstructionBudget {
			return script.Null, script.ErrTimeout
		}
		if v.instrs%timeCheckInterval == 0 && time.Now().After(v.deadline) {
			return script.Null, script.ErrTimeout
		}

		op := Opcode(code[f.ip])
		f.ip++

		switch op {
		case OpNop:

		case OpPop:
			if err := v.requireStack(1, op); err != nil {
				return script.Null, err
			}
			v.pop()

		case OpDup:
			if err := v.requireStack(1, op); err != nil {
				return script.Null, err
			}
			if err := v.push(v.stack[len(v.stack)-1]); err != nil {
				return script.Null, err
			}

		case OpConst:
			idx := v.readU16(f, code)
			if int(idx) >= len(f.fn.Chunk.Constants) {
				return script.Null, script.NewRuntimeError("constant index %d out of range", idx)
			}
			if err := v.push(f.fn.Chunk.Constants[idx]); err != nil {
				return script.Null, err
			}

		case OpNull:
			if err := v.push(script.Null); err != nil {
				return script.Null, err
			}
		case OpTrue:
			if err := v.push(script.Bool(true)); err != nil {
				return script.Null, err
			}
		case OpFalse:
			if err := v.push(script.Bool(false)); err != nil {
				return script.Null, err
			}
		case OpZero:
			if err := v.push(script.Number(0)); err != nil {
				return script.Null, err
			}
		case OpOne:
			if err := v.push(script.Number(1)); err != nil {
				return script.Null, err
			}

		case OpLoadLocal:
			slot := int(v.readU8(f, code))
			if slot >= len(f.locals) {
				return script.Null, script.NewRuntimeError("local slot %d out of range in %s", slot, f.fn.Name)
			}
			if err := v.push(f.locals[slot]); err != nil {
				return script.Null, err
			}

		case OpStoreLocal:
			slot := int(v.readU8(f, code))
			if slot >= len(f.locals) {
				return script.Null, script.NewRuntimeError("local slot %d out of range in %s", slot, f.fn.Name)
			}
			if err := v.requireStack(1, op); err != nil {
				return script.Null, err
			}
			f.locals[slot] = v.pop()

		case OpLoadGlobal:
			name, err := v.readName(f, code)
			if err != nil {
				return script.Null, err
			}
			val, ok := ctx.GetGlobal(name)
			if !ok {
				return script.Null, &script.VariableNotFoundError{Name: name}
			}
			if err := v.push(val); err != nil {
				return script.Null, err
			}

		case OpStoreGlobal:
			name, err := v.readName(f, code)
			if err != nil {
				return script.Null, err
			}
			if err := v.requireStack(1, op); err != nil {
				return script.Null, err
			}
			ctx.SetGlobal(name, v.pop())

		case OpMakeArray:
			n := int(v.readU16(f, code))
			if err := v.requireStack(n, op); err != nil {
				return script.Null, err
			}
			if err := v.push(script.Array(v.popN(n))); err != nil {
				return script.Null, err
			}

		case OpIndex:
			if err := v.requireStack(2, op); err != nil {
				return script.Null, err
			}
			idx := v.pop()
			arr := v.pop()
			elem, err := indexValue(arr, idx)
			if err != nil {
				return script.Null, err
			}
			if err := v.push(elem); err != nil {
				return script.Null, err
			}

		case OpSetIndex:
			if err := v.requireStack(3, op); err != nil {
				return script.Null, err
			}
			val := v.pop()
			idx := v.pop()
			arr := v.pop()
			if err := setIndexValue(arr, idx, val); err != nil {
				return script.Null, err
			}
			if err := v.push(val); err != nil {
				return script.Null, err
			}

		case OpMember:
			name, err := v.readName(f, code)
			if err != nil {
				return script.Null, err
			}
			if err := v.requireStack(1, op); err != nil {
				return script.Null, err
			}
			recv := v.pop()
			val, err := v.host.GetMember(ctx, recv, name)
			if err != nil {
				return script.Null, err
			}
			if err := v.push(val); err != nil {
				return script.Null, err
			}

		case OpSetMember:
			name, err := v.readName(f, code)
			if err != nil {
				return script.Null, err
			}
			if err := v.requireStack(2, op); err != nil {
				return script.Null, err
			}
			val := v.pop()
			recv := v.pop()
			if err := v.host.SetMember(ctx, recv, name, val); err != nil {
				return script.Null, err
			}
			if err := v.push(val); err != nil {
				return script.Null, err
			}

		case OpAdd:
			if err := v.requireStack(2, op); err != nil {
				return script.Null, err
			}
			b := v.pop()
			a := v.pop()
			if err := v.push(script.Add(a, b)); err != nil {
				return script.Null, err
			}

		case OpSub, OpMul, OpDiv, OpMod:
			if err := v.requireStack(2, op); err != nil {
				return script.Null, err
			}
			b := v.pop()
			a := v.pop()
			res, err := script.Arith(arithOpName(op), a, b)
			if err != nil {
				return script.Null, err
			}
			if err := v.push(res); err != nil {
				return script.Null, err
			}

		case OpNeg:
			if err := v.requireStack(1, op); err != nil {
				return script.Null, err
			}
			n, err := v.pop().ToNumber()
			if err != nil {
				return script.Null, err
			}
			if err := v.push(script.Number(-n)); err != nil {
				return script.Null, err
			}

		case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr:
			if err := v.requireStack(2, op); err != nil {
				return script.Null, err
			}
			b := v.pop()
			a := v.pop()
			res, err := bitwise(op, a, b)
			if err != nil {
				return script.Null, err
			}
			if err := v.push(res); err != nil {
				return script.Null, err
			}

		case OpBitNot:
			if err := v.requireStack(1, op); err != nil {
				return script.Null, err
			}
			n, err := v.pop().ToNumber()
			if err != nil {
				return script.Null, err
			}
			if err := v.push(script.Number(float64(^int64(n)))); err != nil {
				return script.Null, err
			}

		case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
			if err := v.requireStack(2, op); err != nil {
				return script.Null, err
			}
			b := v.pop()
			a := v.pop()
			if err := v.push(script.Bool(compare(op, a, b))); err != nil {
				return script.Null, err
			}

		case OpNot:
			if err := v.requireStack(1, op); err != nil {
				return script.Null, err
			}
			if err := v.push(script.Bool(!v.pop().IsTruthy())); err != nil {
				return script.Null, err
			}

		case OpJump:
			delta := v.readI16(f, code)
			f.ip += delta

		case OpJumpTrue:
			delta := v.readI16(f, code)
			if err := v.requireStack(1, op); err != nil {
				return script.Null, err
			}
			if v.pop().IsTruthy() {
				f.ip += delta
			}

		case OpJumpFalse:
			delta := v.readI16(f, code)
			if err := v.requireStack(1, op); err != nil {
				return script.Null, err
			}
			if !v.pop().IsTruthy() {
				f.ip += delta
			}

		case OpCall:
			idx := v.readU16(f, code)
			argc := int(v.readU8(f, code))
			if int(idx) >= len(v.prog.Functions) {
				return script.Null, script.NewRuntimeError("no function at index %d", idx)
			}
			if len(v.frames) >= v.limits.MaxFrameDepth {
				return script.Null, script.ErrStackOverflow
			}
			if err := v.requireStack(argc, op); err != nil {
				return script.Null, err
			}
			args := v.popN(argc)
			v.pushFrame(v.prog.Functions[idx], args)

		case OpCallBuiltin:
			idx := int(v.readU16(f, code))
			argc := int(v.readU8(f, code))
			if err := v.requireStack(argc, op); err != nil {
				return script.Null, err
			}
			args := v.popN(argc)
			res, err := v.host.CallBuiltin(ctx, idx, args)
			if err != nil {
				return script.Null, err
			}
			if err := v.push(res); err != nil {
				return script.Null, err
			}

		case OpCallMethod:
			name, err := v.readName(f, code)
			if err != nil {
				return script.Null, err
			}
			argc := int(v.readU8(f, code))
			if err := v.requireStack(argc+1, op); err != nil {
				return script.Null, err
			}
			args := v.popN(argc)
			recv := v.pop()
			res, err := v.host.CallMethod(ctx, recv, name, args)
			if err != nil {
				return script.Null, err
			}
			if err := v.push(res); err != nil {
				return script.Null, err
			}

		case OpReturn, OpReturnNull:
			result := script.Null
			if op == OpReturn {
				if err := v.requireStack(1, op); err != nil {
					return script.Null, err
				}
				result = v.pop()
			}
			v.frames = v.frames[:len(v.frames)-1]
			if len(v.frames) == 0 {
				return result, nil
			}
			if err := v.push(result); err != nil {
				return script.Null, err
			}

		default:
			return script.Null, script.NewRuntimeError("unknown opcode 0x%02X in %s", byte(op), f.fn.Name)
		}
	}
}

// requireStack guards against stack underflow from malformed bytecode.
func (v *VM) requireStack(n int, op Opcode) error {
	if len(v.stack) < n {
		return script.NewRuntimeError("stack underflow in %s", op)
	}
	return nil
}

func (v *VM) readU8(f *frame, code []byte) byte {
	b := code[f.ip]
	f.ip++
	return b
}

func (v *VM) readU16(f *frame, code []byte) uint16 {
	n := uint16(code[f.ip])<<8 | uint16(code[f.ip+1])
	f.ip += 2
	return n
}

func (v *VM) readI16(f *frame, code []byte) int {
	return int(int16(v.readU16(f, code)))
}

// readName reads a u16 operand and resolves it in the constant pool as a
// string.
func (v *VM) readName(f *frame, code []byte) (string, error) {
	idx := v.readU16(f, code)
	if int(idx) >= len(f.fn.Chunk.Constants) {
		return "", script.NewRuntimeError("constant index %d out of range", idx)
	}
	return f.fn.Chunk.Constants[idx].Str(), nil
}

func arithOpName(op Opcode) string {
	switch op {
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "%"
	}
}

func compare(op Opcode, a, b script.Value) bool {
	switch op {
	case OpEq:
		return script.Equals(a, b)
	case OpNe:
		return !script.Equals(a, b)
	case OpLt:
		return script.Compare(a, b) < 0
	case OpLe:
		return script.Compare(a, b) <= 0
	case OpGt:
		return script.Compare(a, b) > 0
	default:
		return script.Compare(a, b) >= 0
	}
}

func bitwise(op Opcode, a, b script.Value) (script.Value, error) {
	af, err := a.ToNumber()
	if err != nil {
		return script.Null, err
	}
	bf, err := b.ToNumber()
	if err != nil {
		return script.Null, err
	}
	ai, bi := int64(af), int64(bf)

	switch op {
	case OpBitAnd:
		return script.Number(float64(ai & bi)), nil
	case OpBitOr:
		return script.Number(float64(ai | bi)), nil
	case OpBitXor:
		return script.Number(float64(ai ^ bi)), nil
	case OpShl:
		if bi < 0 || bi > 63 {
			return script.Null, script.NewRuntimeError("shift count %d out of range", bi)
		}
		return script.Number(float64(ai << uint(bi))), nil
	default: // OpShr
		if bi < 0 || bi > 63 {
			return script.Null, script.NewRuntimeError("shift count %d out of range", bi)
		}
		return script.Number(float64(ai >> uint(bi))), nil
	}
}

// indexValue reads arr[idx] with bounds checking. Strings index to their
// characters.
func indexValue(arr, idx script.Value) (script.Value, error) {
	i, err := idx.ToNumber()
	if err != nil {
		return script.Null, err
	}
	n := int(i)

	switch arr.Kind {
	case script.KindArray:
		elems := arr.Elems()
		if n < 0 || n >= len(elems) {
			return script.Null, script.NewRuntimeError("array index %d out of range (length %d)", n, len(elems))
		}
		return elems[n], nil
	case script.KindString:
		s := arr.Str()
		if n < 0 || n >= len(s) {
			return script.Null, script.NewRuntimeError("string index %d out of range (length %d)", n, len(s))
		}
		return script.String(string(s[n])), nil
	default:
		return script.Null, script.NewRuntimeError("cannot index a %s", arr.Kind)
	}
}

// setIndexValue writes arr[idx] = val in place.
func setIndexValue(arr, idx, val script.Value) error {
	if arr.Kind != script.KindArray {
		return script.NewRuntimeError("cannot assign into a %s", arr.Kind)
	}
	i, err := idx.ToNumber()
	if err != nil {
		return err
	}
	n := int(i)
	elems := arr.Elems()
	if n < 0 || n >= len(elems) {
		return script.NewRuntimeError("array index %d out of range (length %d)", n, len(elems))
	}
	elems[n] = val
	return nil
}
