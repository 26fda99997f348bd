package bytecode

import (
	"github.com/torchlight/gserver/compiler"
	"github.com/torchlight/gserver/script"
)

// ---------------------------------------------------------------------------
// Code generator: lowers the compiler's AST into a Program
// ---------------------------------------------------------------------------

// initFuncName is the synthetic name of the implicit init body.
const initFuncName = "<init>"

// Compile lowers a parsed GS2 program into executable bytecode. Builtin
// names are resolved to registry indices here; an unknown call target or
// event rejects the whole script.
func Compile(src *compiler.Program, resolver BuiltinResolver) (*Program, error) {
	c := &codegen{
		resolver: resolver,
		prog: &Program{
			FuncIndex: make(map[string]uint16),
			Handlers:  make(map[script.Event]uint16),
		},
		globals: make(map[string]bool),
	}
	return c.compile(src)
}

type codegen struct {
	resolver BuiltinResolver
	prog     *Program
	globals  map[string]bool
}

// errorAt builds a ParseError at a node's position.
func errorAt(n compiler.Node, format string, args ...any) error {
	return script.NewParseError(n.Span().Start.Line, format, args...)
}

func (c *codegen) compile(src *compiler.Program) (*Program, error) {
	// Declared globals are known to every function body.
	for _, g := range src.Globals {
		if !c.globals[g.Name] {
			c.globals[g.Name] = true
			c.prog.GlobalNames = append(c.prog.GlobalNames, g.Name)
		}
	}

	// Assign function table slots up front so bodies can call forward.
	// Slot 0 is the init body.
	c.prog.Functions = append(c.prog.Functions, &Function{Name: initFuncName})
	c.prog.FuncIndex[initFuncName] = InitFuncIndex

	for _, fn := range src.Functions {
		if _, exists := c.prog.FuncIndex[fn.Name]; exists {
			return nil, errorAt(fn, "function %q redefined", fn.Name)
		}
		if len(fn.Params) > 255 {
			return nil, errorAt(fn, "function %q has too many parameters", fn.Name)
		}
		idx := uint16(len(c.prog.Functions))
		c.prog.Functions = append(c.prog.Functions, &Function{
			Name:       fn.Name,
			ParamCount: uint8(len(fn.Params)),
		})
		c.prog.FuncIndex[fn.Name] = idx
	}

	seenEvents := make(map[script.Event]bool)
	handlerStart := len(c.prog.Functions)
	for _, h := range src.Handlers {
		ev, ok := script.ParseEvent(h.Event)
		if !ok {
			return nil, errorAt(h, "unknown event %q", h.Event)
		}
		if seenEvents[ev] {
			return nil, errorAt(h, "duplicate handler for event %s", ev)
		}
		seenEvents[ev] = true
		idx := uint16(len(c.prog.Functions))
		c.prog.Functions = append(c.prog.Functions, &Function{Name: "on " + ev.String()})
		c.prog.Handlers[ev] = idx
	}

	// Init body: global initializers first, then the top-level statements.
	initFn := newFuncCompiler(c, c.prog.Functions[InitFuncIndex], nil)
	for _, g := range src.Globals {
		if err := initFn.compileGlobalInit(g); err != nil {
			return nil, err
		}
	}
	for _, stmt := range src.Init {
		if err := initFn.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	if err := initFn.finish(); err != nil {
		return nil, err
	}

	for i, fn := range src.Functions {
		fc := newFuncCompiler(c, c.prog.Functions[i+1], fn.Params)
		if err := fc.compileBlockStmts(fn.Body); err != nil {
			return nil, err
		}
		if err := fc.finish(); err != nil {
			return nil, err
		}
	}

	for i, h := range src.Handlers {
		fc := newFuncCompiler(c, c.prog.Functions[handlerStart+i], nil)
		if err := fc.compileBlockStmts(h.Body); err != nil {
			return nil, err
		}
		if err := fc.finish(); err != nil {
			return nil, err
		}
	}

	return c.prog, nil
}

// ---------------------------------------------------------------------------
// Per-function compilation
// ---------------------------------------------------------------------------

// loopScope tracks jump placeholders of one enclosing loop.
type loopScope struct {
	breakJumps    []int
	continueJumps []int
}

type funcCompiler struct {
	c     *codegen
	fn    *Function
	chunk *Chunk
	slots map[string]uint8
	loops []*loopScope
}

func newFuncCompiler(c *codegen, fn *Function, params []string) *funcCompiler {
	fc := &funcCompiler{
		c:     c,
		fn:    fn,
		chunk: NewChunk(),
		slots: make(map[string]uint8),
	}
	fn.Chunk = fc.chunk
	for i, p := range params {
		fc.slots[p] = uint8(i)
	}
	return fc
}

// finish seals the function body with an implicit null return.
func (fc *funcCompiler) finish() error {
	fc.chunk.Emit(OpReturnNull)
	fc.fn.LocalCount = uint8(len(fc.slots))
	return nil
}

// defineSlot allocates a local slot for a name.
func (fc *funcCompiler) defineSlot(n compiler.Node, name string) (uint8, error) {
	if slot, ok := fc.slots[name]; ok {
		return slot, nil
	}
	if len(fc.slots) >= 255 {
		return 0, errorAt(n, "too many local variables in %s", fc.fn.Name)
	}
	slot := uint8(len(fc.slots))
	fc.slots[name] = slot
	return slot, nil
}

func (fc *funcCompiler) compileGlobalInit(g *compiler.GlobalDecl) error {
	if g.Init != nil {
		if err := fc.compileExpr(g.Init); err != nil {
			return err
		}
	} else {
		fc.chunk.Emit(OpNull)
	}
	idx, err := fc.chunk.AddName(g.Name)
	if err != nil {
		return err
	}
	fc.chunk.EmitU16(OpStoreGlobal, idx)
	return nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (fc *funcCompiler) compileBlockStmts(b *compiler.Block) error {
	for _, stmt := range b.Stmts {
		if err := fc.compileStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (fc *funcCompiler) compileStmt(stmt compiler.Stmt) error {
	switch s := stmt.(type) {
	case *compiler.ExprStmt:
		if err := fc.compileExpr(s.Expr); err != nil {
			return err
		}
		fc.chunk.Emit(OpPop)
		return nil

	case *compiler.Block:
		return fc.compileBlockStmts(s)

	case *compiler.If:
		return fc.compileIf(s)

	case *compiler.While:
		return fc.compileWhile(s)

	case *compiler.For:
		return fc.compileFor(s)

	case *compiler.Break:
		if len(fc.loops) == 0 {
			return errorAt(s, "break outside loop")
		}
		loop := fc.loops[len(fc.loops)-1]
		loop.breakJumps = append(loop.breakJumps, fc.chunk.EmitJump(OpJump))
		return nil

	case *compiler.Continue:
		if len(fc.loops) == 0 {
			return errorAt(s, "continue outside loop")
		}
		loop := fc.loops[len(fc.loops)-1]
		loop.continueJumps = append(loop.continueJumps, fc.chunk.EmitJump(OpJump))
		return nil

	case *compiler.Return:
		if s.Value != nil {
			if err := fc.compileExpr(s.Value); err != nil {
				return err
			}
			fc.chunk.Emit(OpReturn)
		} else {
			fc.chunk.Emit(OpReturnNull)
		}
		return nil

	case *compiler.GlobalDecl:
		// a global declared mid-body is visible from here on
		if !fc.c.globals[s.Name] {
			fc.c.globals[s.Name] = true
			fc.c.prog.GlobalNames = append(fc.c.prog.GlobalNames, s.Name)
		}
		return fc.compileGlobalInit(s)

	default:
		return errorAt(stmt, "unsupported statement")
	}
}

func (fc *funcCompiler) compileIf(s *compiler.If) error {
	if err := fc.compileExpr(s.Cond); err != nil {
		return err
	}
	elseJump := fc.chunk.EmitJump(OpJumpFalse)

	if s.Then != nil {
		if err := fc.compileStmt(s.Then); err != nil {
			return err
		}
	}

	if s.Else == nil {
		return fc.chunk.PatchJump(elseJump)
	}

	endJump := fc.chunk.EmitJump(OpJump)
	if err := fc.chunk.PatchJump(elseJump); err != nil {
		return err
	}
	if err := fc.compileStmt(s.Else); err != nil {
		return err
	}
	return fc.chunk.PatchJump(endJump)
}

func (fc *funcCompiler) compileWhile(s *compiler.While) error {
	loopStart := fc.chunk.CurrentOffset()
	if err := fc.compileExpr(s.Cond); err != nil {
		return err
	}
	exitJump := fc.chunk.EmitJump(OpJumpFalse)

	loop := &loopScope{}
	fc.loops = append(fc.loops, loop)
	if s.Body != nil {
		if err := fc.compileStmt(s.Body); err != nil {
			return err
		}
	}
	fc.loops = fc.loops[:len(fc.loops)-1]

	// continue re-tests the condition
	for _, j := range loop.continueJumps {
		if err := fc.chunk.PatchJumpTo(j, loopStart); err != nil {
			return err
		}
	}

	if err := fc.chunk.EmitLoop(loopStart); err != nil {
		return err
	}
	if err := fc.chunk.PatchJump(exitJump); err != nil {
		return err
	}
	for _, j := range loop.breakJumps {
		if err := fc.chunk.PatchJump(j); err != nil {
			return err
		}
	}
	return nil
}

func (fc *funcCompiler) compileFor(s *compiler.For) error {
	if s.Init != nil {
		if err := fc.compileStmt(s.Init); err != nil {
			return err
		}
	}

	condStart := fc.chunk.CurrentOffset()
	exitJump := -1
	if s.Cond != nil {
		if err := fc.compileExpr(s.Cond); err != nil {
			return err
		}
		exitJump = fc.chunk.EmitJump(OpJumpFalse)
	}

	loop := &loopScope{}
	fc.loops = append(fc.loops, loop)
	if s.Body != nil {
		if err := fc.compileStmt(s.Body); err != nil {
			return err
		}
	}
	fc.loops = fc.loops[:len(fc.loops)-1]

	// continue jumps to the post clause
	postStart := fc.chunk.CurrentOffset()
	for _, j := range loop.continueJumps {
		if err := fc.chunk.PatchJumpTo(j, postStart); err != nil {
			return err
		}
	}

	if s.Post != nil {
		if err := fc.compileStmt(s.Post); err != nil {
			return err
		}
	}

	if err := fc.chunk.EmitLoop(condStart); err != nil {
		return err
	}
	if exitJump >= 0 {
		if err := fc.chunk.PatchJump(exitJump); err != nil {
			return err
		}
	}
	for _, j := range loop.breakJumps {
		if err := fc.chunk.PatchJump(j); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var binaryOps = map[compiler.TokenType]Opcode{
	compiler.TokenPlus:    OpAdd,
	compiler.TokenMinus:   OpSub,
	compiler.TokenStar:    OpMul,
	compiler.TokenSlash:   OpDiv,
	compiler.TokenPercent: OpMod,
	compiler.TokenEq:      OpEq,
	compiler.TokenNotEq:   OpNe,
	compiler.TokenLt:      OpLt,
	compiler.TokenLtEq:    OpLe,
	compiler.TokenGt:      OpGt,
	compiler.TokenGtEq:    OpGe,
	compiler.TokenAmp:     OpBitAnd,
	compiler.TokenPipe:    OpBitOr,
	compiler.TokenCaret:   OpBitXor,
	compiler.TokenShl:     OpShl,
	compiler.TokenShr:     OpShr,
}

// compoundOps maps compound assignment tokens to their arithmetic opcode.
var compoundOps = map[compiler.TokenType]Opcode{
	compiler.TokenPlusAssign:  OpAdd,
	compiler.TokenMinusAssign: OpSub,
	compiler.TokenStarAssign:  OpMul,
	compiler.TokenSlashAssign: OpDiv,
}

func (fc *funcCompiler) compileExpr(expr compiler.Expr) error {
	switch e := expr.(type) {
	case *compiler.NumberLiteral:
		switch e.Value {
		case 0:
			fc.chunk.Emit(OpZero)
		case 1:
			fc.chunk.Emit(OpOne)
		default:
			idx, err := fc.chunk.AddConstant(script.Number(e.Value))
			if err != nil {
				return err
			}
			fc.chunk.EmitU16(OpConst, idx)
		}
		return nil

	case *compiler.StringLiteral:
		idx, err := fc.chunk.AddConstant(script.String(e.Value))
		if err != nil {
			return err
		}
		fc.chunk.EmitU16(OpConst, idx)
		return nil

	case *compiler.BoolLiteral:
		if e.Value {
			fc.chunk.Emit(OpTrue)
		} else {
			fc.chunk.Emit(OpFalse)
		}
		return nil

	case *compiler.NullLiteral:
		fc.chunk.Emit(OpNull)
		return nil

	case *compiler.ArrayLiteral:
		if len(e.Elements) > 0xFFFF {
			return errorAt(e, "array literal too large")
		}
		for _, elem := range e.Elements {
			if err := fc.compileExpr(elem); err != nil {
				return err
			}
		}
		fc.chunk.EmitU16(OpMakeArray, uint16(len(e.Elements)))
		return nil

	case *compiler.Variable:
		return fc.compileLoadVar(e)

	case *compiler.Binary:
		if err := fc.compileExpr(e.Left); err != nil {
			return err
		}
		if err := fc.compileExpr(e.Right); err != nil {
			return err
		}
		op, ok := binaryOps[e.Op]
		if !ok {
			return errorAt(e, "unsupported operator %s", e.Op)
		}
		fc.chunk.Emit(op)
		return nil

	case *compiler.Logical:
		return fc.compileLogical(e)

	case *compiler.Unary:
		if err := fc.compileExpr(e.Operand); err != nil {
			return err
		}
		switch e.Op {
		case compiler.TokenMinus:
			fc.chunk.Emit(OpNeg)
		case compiler.TokenBang:
			fc.chunk.Emit(OpNot)
		case compiler.TokenTilde:
			fc.chunk.Emit(OpBitNot)
		default:
			return errorAt(e, "unsupported unary operator %s", e.Op)
		}
		return nil

	case *compiler.Assign:
		return fc.compileAssign(e)

	case *compiler.IncDec:
		return fc.compileIncDec(e)

	case *compiler.Index:
		if err := fc.compileExpr(e.Target); err != nil {
			return err
		}
		if err := fc.compileExpr(e.Idx); err != nil {
			return err
		}
		fc.chunk.Emit(OpIndex)
		return nil

	case *compiler.Member:
		if err := fc.compileExpr(e.Target); err != nil {
			return err
		}
		idx, err := fc.chunk.AddName(e.Name)
		if err != nil {
			return err
		}
		fc.chunk.EmitU16(OpMember, idx)
		return nil

	case *compiler.Call:
		return fc.compileCall(e)

	default:
		return errorAt(expr, "unsupported expression")
	}
}

// compileLoadVar pushes a variable: local slot if one exists, otherwise a
// global lookup resolved at runtime.
func (fc *funcCompiler) compileLoadVar(e *compiler.Variable) error {
	if slot, ok := fc.slots[e.Name]; ok {
		fc.chunk.EmitU8(OpLoadLocal, slot)
		return nil
	}
	idx, err := fc.chunk.AddName(e.Name)
	if err != nil {
		return err
	}
	fc.chunk.EmitU16(OpLoadGlobal, idx)
	return nil
}

// compileStoreVar pops into a variable. Assigning a name that is neither a
// local nor a declared global creates a new local.
func (fc *funcCompiler) compileStoreVar(e *compiler.Variable) error {
	if slot, ok := fc.slots[e.Name]; ok {
		fc.chunk.EmitU8(OpStoreLocal, slot)
		return nil
	}
	if fc.c.globals[e.Name] {
		idx, err := fc.chunk.AddName(e.Name)
		if err != nil {
			return err
		}
		fc.chunk.EmitU16(OpStoreGlobal, idx)
		return nil
	}
	slot, err := fc.defineSlot(e, e.Name)
	if err != nil {
		return err
	}
	fc.chunk.EmitU8(OpStoreLocal, slot)
	return nil
}

// compileLogical emits short-circuiting && / ||. The result is the operand
// value that decided the outcome.
func (fc *funcCompiler) compileLogical(e *compiler.Logical) error {
	if err := fc.compileExpr(e.Left); err != nil {
		return err
	}
	fc.chunk.Emit(OpDup)

	var skip int
	if e.Op == compiler.TokenAndAnd {
		skip = fc.chunk.EmitJump(OpJumpFalse)
	} else {
		skip = fc.chunk.EmitJump(OpJumpTrue)
	}

	fc.chunk.Emit(OpPop)
	if err := fc.compileExpr(e.Right); err != nil {
		return err
	}
	return fc.chunk.PatchJump(skip)
}

// compileAssign emits an assignment expression; the assigned value remains
// on the stack. Compound forms re-evaluate the target expression.
func (fc *funcCompiler) compileAssign(e *compiler.Assign) error {
	switch target := e.Target.(type) {
	case *compiler.Variable:
		if err := fc.compileAssignValue(e, func() error { return fc.compileLoadVar(target) }); err != nil {
			return err
		}
		fc.chunk.Emit(OpDup)
		return fc.compileStoreVar(target)

	case *compiler.Index:
		if err := fc.compileExpr(target.Target); err != nil {
			return err
		}
		if err := fc.compileExpr(target.Idx); err != nil {
			return err
		}
		err := fc.compileAssignValue(e, func() error {
			if err := fc.compileExpr(target.Target); err != nil {
				return err
			}
			if err := fc.compileExpr(target.Idx); err != nil {
				return err
			}
			fc.chunk.Emit(OpIndex)
			return nil
		})
		if err != nil {
			return err
		}
		fc.chunk.Emit(OpSetIndex)
		return nil

	case *compiler.Member:
		if err := fc.compileExpr(target.Target); err != nil {
			return err
		}
		err := fc.compileAssignValue(e, func() error {
			if err := fc.compileExpr(target.Target); err != nil {
				return err
			}
			idx, err := fc.chunk.AddName(target.Name)
			if err != nil {
				return err
			}
			fc.chunk.EmitU16(OpMember, idx)
			return nil
		})
		if err != nil {
			return err
		}
		idx, err := fc.chunk.AddName(target.Name)
		if err != nil {
			return err
		}
		fc.chunk.EmitU16(OpSetMember, idx)
		return nil

	default:
		return errorAt(e, "invalid assignment target")
	}
}

// compileAssignValue leaves the value to store on the stack: for plain =
// just the right-hand side, for compound forms old-value op rhs.
func (fc *funcCompiler) compileAssignValue(e *compiler.Assign, loadTarget func() error) error {
	if e.Op == compiler.TokenAssign {
		return fc.compileExpr(e.Value)
	}
	op, ok := compoundOps[e.Op]
	if !ok {
		return errorAt(e, "unsupported assignment operator %s", e.Op)
	}
	if err := loadTarget(); err != nil {
		return err
	}
	if err := fc.compileExpr(e.Value); err != nil {
		return err
	}
	fc.chunk.Emit(op)
	return nil
}

// compileIncDec emits ++/--. Prefix yields the new value, postfix the old
// one. Targets are restricted to plain variables.
func (fc *funcCompiler) compileIncDec(e *compiler.IncDec) error {
	target, ok := e.Target.(*compiler.Variable)
	if !ok {
		return errorAt(e, "%s target must be a variable", e.Op)
	}

	op := OpAdd
	if e.Op == compiler.TokenDecrement {
		op = OpSub
	}

	if err := fc.compileLoadVar(target); err != nil {
		return err
	}
	if e.Prefix {
		fc.chunk.Emit(OpOne)
		fc.chunk.Emit(op)
		fc.chunk.Emit(OpDup)
	} else {
		fc.chunk.Emit(OpDup)
		fc.chunk.Emit(OpOne)
		fc.chunk.Emit(op)
	}
	return fc.compileStoreVar(target)
}

// compileCall resolves the call target at compile time: script functions
// first, then the builtin registry. Method syntax resolves class methods
// statically when the receiver names a class.
func (fc *funcCompiler) compileCall(e *compiler.Call) error {
	if len(e.Args) > 255 {
		return errorAt(e, "too many call arguments")
	}
	argc := uint8(len(e.Args))

	compileArgs := func() error {
		for _, arg := range e.Args {
			if err := fc.compileExpr(arg); err != nil {
				return err
			}
		}
		return nil
	}

	switch callee := e.Callee.(type) {
	case *compiler.Variable:
		if idx, ok := fc.c.prog.FuncIndex[callee.Name]; ok {
			fn := fc.c.prog.Functions[idx]
			if fn.ParamCount != argc {
				return errorAt(e, "function %q expects %d arguments, got %d", callee.Name, fn.ParamCount, argc)
			}
			if err := compileArgs(); err != nil {
				return err
			}
			fc.chunk.EmitU16U8(OpCall, idx, argc)
			return nil
		}
		if fc.c.resolver != nil {
			if bi, ok := fc.c.resolver.ResolveBuiltin(callee.Name); ok {
				if err := compileArgs(); err != nil {
					return err
				}
				fc.chunk.EmitU16U8(OpCallBuiltin, uint16(bi), argc)
				return nil
			}
		}
		return errorAt(e, "unknown function %q", callee.Name)

	case *compiler.Member:
		if recv, ok := callee.Target.(*compiler.Variable); ok {
			qualified := recv.Name + "." + callee.Name
			if idx, ok := fc.c.prog.FuncIndex[qualified]; ok {
				fn := fc.c.prog.Functions[idx]
				if fn.ParamCount != argc {
					return errorAt(e, "function %q expects %d arguments, got %d", qualified, fn.ParamCount, argc)
				}
				if err := compileArgs(); err != nil {
					return err
				}
				fc.chunk.EmitU16U8(OpCall, idx, argc)
				return nil
			}
		}
		// dynamic method call on the receiver value
		if err := fc.compileExpr(callee.Target); err != nil {
			return err
		}
		if err := compileArgs(); err != nil {
			return err
		}
		idx, err := fc.chunk.AddName(callee.Name)
		if err != nil {
			return err
		}
		fc.chunk.EmitU16U8(OpCallMethod, idx, argc)
		return nil

	default:
		return errorAt(e, "expression is not callable")
	}
}
