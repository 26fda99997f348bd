package compiler

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for GS2
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// MakeSpan builds a span from two positions.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// NumberLiteral represents a numeric literal.
type NumberLiteral struct {
	SpanVal Span
	Value   float64
}

func (n *NumberLiteral) Span() Span { return n.SpanVal }
func (n *NumberLiteral) node()      {}
func (n *NumberLiteral) expr()      {}

// StringLiteral represents a string literal.
type StringLiteral struct {
	SpanVal Span
	Value   string
}

func (n *StringLiteral) Span() Span { return n.SpanVal }
func (n *StringLiteral) node()      {}
func (n *StringLiteral) expr()      {}

// BoolLiteral represents true or false.
type BoolLiteral struct {
	SpanVal Span
	Value   bool
}

func (n *BoolLiteral) Span() Span { return n.SpanVal }
func (n *BoolLiteral) node()      {}
func (n *BoolLiteral) expr()      {}

// NullLiteral represents the null literal.
type NullLiteral struct {
	SpanVal Span
}

func (n *NullLiteral) Span() Span { return n.SpanVal }
func (n *NullLiteral) node()      {}
func (n *NullLiteral) expr()      {}

// ArrayLiteral represents an array literal [1, 2, 3].
type ArrayLiteral struct {
	SpanVal  Span
	Elements []Expr
}

func (n *ArrayLiteral) Span() Span { return n.SpanVal }
func (n *ArrayLiteral) node()      {}
func (n *ArrayLiteral) expr()      {}

// Variable represents a variable reference.
type Variable struct {
	SpanVal Span
	Name    string
}

func (n *Variable) Span() Span { return n.SpanVal }
func (n *Variable) node()      {}
func (n *Variable) expr()      {}

// Binary represents a binary operation: arithmetic, comparison or bitwise.
type Binary struct {
	SpanVal Span
	Op      TokenType
	Left    Expr
	Right   Expr
}

func (n *Binary) Span() Span { return n.SpanVal }
func (n *Binary) node()      {}
func (n *Binary) expr()      {}

// Logical represents a short-circuiting && or || operation.
type Logical struct {
	SpanVal Span
	Op      TokenType
	Left    Expr
	Right   Expr
}

func (n *Logical) Span() Span { return n.SpanVal }
func (n *Logical) node()      {}
func (n *Logical) expr()      {}

// Unary represents a prefix -, ! or ~ operation.
type Unary struct {
	SpanVal Span
	Op      TokenType
	Operand Expr
}

func (n *Unary) Span() Span { return n.SpanVal }
func (n *Unary) node()      {}
func (n *Unary) expr()      {}

// Assign represents an assignment. Op is TokenAssign for plain = or one of
// the compound forms (+=, -=, *=, /=). Target is a Variable, Index or
// Member expression.
type Assign struct {
	SpanVal Span
	Op      TokenType
	Target  Expr
	Value   Expr
}

func (n *Assign) Span() Span { return n.SpanVal }
func (n *Assign) node()      {}
func (n *Assign) expr()      {}

// IncDec represents ++ or -- applied to a variable.
type IncDec struct {
	SpanVal Span
	Op      TokenType // TokenIncrement or TokenDecrement
	Prefix  bool
	Target  Expr
}

func (n *IncDec) Span() Span { return n.SpanVal }
func (n *IncDec) node()      {}
func (n *IncDec) expr()      {}

// Index represents arr[expr].
type Index struct {
	SpanVal Span
	Target  Expr
	Idx     Expr
}

func (n *Index) Span() Span { return n.SpanVal }
func (n *Index) node()      {}
func (n *Index) expr()      {}

// Member represents obj.name.
type Member struct {
	SpanVal Span
	Target  Expr
	Name    string
}

func (n *Member) Span() Span { return n.SpanVal }
func (n *Member) node()      {}
func (n *Member) expr()      {}

// Call represents a function or builtin call.
type Call struct {
	SpanVal Span
	Callee  Expr
	Args    []Expr
}

func (n *Call) Span() Span { return n.SpanVal }
func (n *Call) node()      {}
func (n *Call) expr()      {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	SpanVal Span
	Expr    Expr
}

func (n *ExprStmt) Span() Span { return n.SpanVal }
func (n *ExprStmt) node()      {}
func (n *ExprStmt) stmt()      {}

// Block represents a braced statement list.
type Block struct {
	SpanVal Span
	Stmts   []Stmt
}

func (n *Block) Span() Span { return n.SpanVal }
func (n *Block) node()      {}
func (n *Block) stmt()      {}

// If represents an if/else statement.
type If struct {
	SpanVal Span
	Cond    Expr
	Then    Stmt
	Else    Stmt // nil if absent
}

func (n *If) Span() Span { return n.SpanVal }
func (n *If) node()      {}
func (n *If) stmt()      {}

// While represents a while loop.
type While struct {
	SpanVal Span
	Cond    Expr
	Body    Stmt
}

func (n *While) Span() Span { return n.SpanVal }
func (n *While) node()      {}
func (n *While) stmt()      {}

// For represents a C-style for loop. Init, Cond and Post may each be nil.
type For struct {
	SpanVal Span
	Init    Stmt
	Cond    Expr
	Post    Stmt
	Body    Stmt
}

func (n *For) Span() Span { return n.SpanVal }
func (n *For) node()      {}
func (n *For) stmt()      {}

// Break represents a break statement.
type Break struct {
	SpanVal Span
}

func (n *Break) Span() Span { return n.SpanVal }
func (n *Break) node()      {}
func (n *Break) stmt()      {}

// Continue represents a continue statement.
type Continue struct {
	SpanVal Span
}

func (n *Continue) Span() Span { return n.SpanVal }
func (n *Continue) node()      {}
func (n *Continue) stmt()      {}

// Return represents a return statement. Value is nil for a bare return.
type Return struct {
	SpanVal Span
	Value   Expr
}

func (n *Return) Span() Span { return n.SpanVal }
func (n *Return) node()      {}
func (n *Return) stmt()      {}

// GlobalDecl represents `global name = expr;`. Init may be nil, in which
// case the global starts as null unless a saved value is loaded.
type GlobalDecl struct {
	SpanVal Span
	Name    string
	Init    Expr
}

func (n *GlobalDecl) Span() Span { return n.SpanVal }
func (n *GlobalDecl) node()      {}
func (n *GlobalDecl) stmt()      {}

// ---------------------------------------------------------------------------
// Declaration nodes
// ---------------------------------------------------------------------------

// FunctionDecl represents `function name(params) { ... }`. For class
// methods Name carries the qualified form Class.method.
type FunctionDecl struct {
	SpanVal Span
	Name    string
	Params  []string
	Body    *Block
}

func (n *FunctionDecl) Span() Span { return n.SpanVal }
func (n *FunctionDecl) node()      {}

// HandlerDecl represents `on Event { ... }`.
type HandlerDecl struct {
	SpanVal Span
	Event   string
	Body    *Block
}

func (n *HandlerDecl) Span() Span { return n.SpanVal }
func (n *HandlerDecl) node()      {}

// ClassDecl represents `class Name { method(params) { ... } ... }`.
type ClassDecl struct {
	SpanVal Span
	Name    string
	Methods []*FunctionDecl
}

func (n *ClassDecl) Span() Span { return n.SpanVal }
func (n *ClassDecl) node()      {}

// Program is the parsed form of a GS2 script. Init holds the top-level
// statements outside any declaration; they run once when the script is
// bound to a context.
type Program struct {
	SpanVal   Span
	Globals   []*GlobalDecl
	Functions []*FunctionDecl
	Handlers  []*HandlerDecl
	Classes   []*ClassDecl
	Init      []Stmt
}

func (n *Program) Span() Span { return n.SpanVal }
func (n *Program) node()      {}
