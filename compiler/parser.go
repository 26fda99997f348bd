package compiler

import (
	"strconv"

	"github.com/torchlight/gserver/script"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for GS2 syntax
// ---------------------------------------------------------------------------

// Parser parses GS2 source code into an AST.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	errors    []*script.ParseError
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a complete GS2 script. A script with any parse error is
// rejected as a whole: the first error is returned and the program is nil.
func Parse(input string) (*Program, error) {
	p := NewParser(input)
	prog := p.ParseProgram()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return prog, nil
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
	if p.curToken.Type == TokenError {
		p.errorf("%s", p.curToken.Literal)
		p.curToken.Type = TokenEOF
	}
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// expect advances past the current token if it matches, otherwise records
// an error.
func (p *Parser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %s", t, p.curToken.Type)
	return false
}

// errorf records a parse error at the current token.
func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, script.NewParseError(p.curToken.Pos.Line, format, args...))
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []*script.ParseError {
	return p.errors
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseProgram parses the whole script: declarations plus the top-level
// init statements.
func (p *Parser) ParseProgram() *Program {
	startPos := p.curToken.Pos
	prog := &Program{}

	for !p.curTokenIs(TokenEOF) && len(p.errors) == 0 {
		switch p.curToken.Type {
		case TokenFunction:
			if fn := p.parseFunctionDecl(""); fn != nil {
				prog.Functions = append(prog.Functions, fn)
			}
		case TokenOn:
			if h := p.parseHandlerDecl(); h != nil {
				prog.Handlers = append(prog.Handlers, h)
			}
		case TokenClass:
			if c := p.parseClassDecl(); c != nil {
				prog.Classes = append(prog.Classes, c)
				prog.Functions = append(prog.Functions, c.Methods...)
			}
		case TokenGlobal:
			if g := p.parseGlobalDecl(); g != nil {
				prog.Globals = append(prog.Globals, g)
			}
		default:
			if stmt := p.parseStatement(); stmt != nil {
				prog.Init = append(prog.Init, stmt)
			}
		}
	}

	prog.SpanVal = MakeSpan(startPos, p.curToken.Pos)
	return prog
}

// parseFunctionDecl parses `function name(params) { ... }`. qualifier is
// the enclosing class name, or "" at top level.
func (p *Parser) parseFunctionDecl(qualifier string) *FunctionDecl {
	startPos := p.curToken.Pos
	if p.curTokenIs(TokenFunction) {
		p.nextToken()
	}

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected function name, got %s", p.curToken.Type)
		return nil
	}
	name := p.curToken.Literal
	if qualifier != "" {
		name = qualifier + "." + name
	}
	p.nextToken()

	params := p.parseParamList()
	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &FunctionDecl{
		SpanVal: MakeSpan(startPos, p.curToken.Pos),
		Name:    name,
		Params:  params,
		Body:    body,
	}
}

// parseParamList parses `(a, b, c)`.
func (p *Parser) parseParamList() []string {
	var params []string
	if !p.expect(TokenLParen) {
		return nil
	}
	for p.curTokenIs(TokenIdentifier) {
		params = append(params, p.curToken.Literal)
		p.nextToken()
		if p.curTokenIs(TokenComma) {
			p.nextToken()
			continue
		}
		break
	}
	p.expect(TokenRParen)
	return params
}

// parseHandlerDecl parses `on Event { ... }`. Unknown event names reject
// the script.
func (p *Parser) parseHandlerDecl() *HandlerDecl {
	startPos := p.curToken.Pos
	p.nextToken() // consume on

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected event name after 'on', got %s", p.curToken.Type)
		return nil
	}
	name := p.curToken.Literal
	if _, ok := script.ParseEvent(name); !ok {
		p.errorf("unknown event %q", name)
		return nil
	}
	p.nextToken()

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &HandlerDecl{
		SpanVal: MakeSpan(startPos, p.curToken.Pos),
		Event:   name,
		Body:    body,
	}
}

// parseClassDecl parses `class Name { method(params) { ... } ... }`.
// Methods are stored with their qualified Name.method form.
func (p *Parser) parseClassDecl() *ClassDecl {
	startPos := p.curToken.Pos
	p.nextToken() // consume class

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected class name, got %s", p.curToken.Type)
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	if !p.expect(TokenLBrace) {
		return nil
	}

	var methods []*FunctionDecl
	for !p.curTokenIs(TokenRBrace) && !p.curTokenIs(TokenEOF) && len(p.errors) == 0 {
		// `function` before a method is optional inside a class body
		m := p.parseFunctionDecl(name)
		if m == nil {
			return nil
		}
		methods = append(methods, m)
	}
	p.expect(TokenRBrace)

	return &ClassDecl{
		SpanVal: MakeSpan(startPos, p.curToken.Pos),
		Name:    name,
		Methods: methods,
	}
}

// parseGlobalDecl parses `global name = expr;` or `global name;`.
func (p *Parser) parseGlobalDecl() *GlobalDecl {
	startPos := p.curToken.Pos
	p.nextToken() // consume global

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected global name, got %s", p.curToken.Type)
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	var init Expr
	if p.curTokenIs(TokenAssign) {
		p.nextToken()
		init = p.parseExpression()
	}
	p.expect(TokenSemicolon)

	return &GlobalDecl{
		SpanVal: MakeSpan(startPos, p.curToken.Pos),
		Name:    name,
		Init:    init,
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// parseStatement parses a single statement.
func (p *Parser) parseStatement() Stmt {
	switch p.curToken.Type {
	case TokenLBrace:
		return p.parseBlock()
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenFor:
		return p.parseFor()
	case TokenBreak:
		pos := p.curToken.Pos
		p.nextToken()
		p.expect(TokenSemicolon)
		return &Break{SpanVal: MakeSpan(pos, p.curToken.Pos)}
	case TokenContinue:
		pos := p.curToken.Pos
		p.nextToken()
		p.expect(TokenSemicolon)
		return &Continue{SpanVal: MakeSpan(pos, p.curToken.Pos)}
	case TokenReturn:
		return p.parseReturn()
	case TokenGlobal:
		if g := p.parseGlobalDecl(); g != nil {
			return g
		}
		return nil
	case TokenSemicolon:
		// empty statement
		p.nextToken()
		return nil
	default:
		return p.parseExprStatement()
	}
}

// parseBlock parses `{ stmts }`.
func (p *Parser) parseBlock() *Block {
	startPos := p.curToken.Pos
	if !p.expect(TokenLBrace) {
		return nil
	}

	var stmts []Stmt
	for !p.curTokenIs(TokenRBrace) && !p.curTokenIs(TokenEOF) && len(p.errors) == 0 {
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.expect(TokenRBrace)

	return &Block{SpanVal: MakeSpan(startPos, p.curToken.Pos), Stmts: stmts}
}

func (p *Parser) parseIf() Stmt {
	startPos := p.curToken.Pos
	p.nextToken() // consume if

	p.expect(TokenLParen)
	cond := p.parseExpression()
	p.expect(TokenRParen)

	then := p.parseStatement()

	var els Stmt
	if p.curTokenIs(TokenElse) {
		p.nextToken()
		els = p.parseStatement()
	}

	return &If{SpanVal: MakeSpan(startPos, p.curToken.Pos), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() Stmt {
	startPos := p.curToken.Pos
	p.nextToken() // consume while

	p.expect(TokenLParen)
	cond := p.parseExpression()
	p.expect(TokenRParen)

	body := p.parseStatement()
	return &While{SpanVal: MakeSpan(startPos, p.curToken.Pos), Cond: cond, Body: body}
}

// parseFor parses `for (init; cond; post) body`. Each clause may be empty.
func (p *Parser) parseFor() Stmt {
	startPos := p.curToken.Pos
	p.nextToken() // consume for

	p.expect(TokenLParen)

	var init Stmt
	if !p.curTokenIs(TokenSemicolon) {
		expr := p.parseExpression()
		if expr != nil {
			init = &ExprStmt{SpanVal: expr.Span(), Expr: expr}
		}
	}
	p.expect(TokenSemicolon)

	var cond Expr
	if !p.curTokenIs(TokenSemicolon) {
		cond = p.parseExpression()
	}
	p.expect(TokenSemicolon)

	var post Stmt
	if !p.curTokenIs(TokenRParen) {
		expr := p.parseExpression()
		if expr != nil {
			post = &ExprStmt{SpanVal: expr.Span(), Expr: expr}
		}
	}
	p.expect(TokenRParen)

	body := p.parseStatement()
	return &For{SpanVal: MakeSpan(startPos, p.curToken.Pos), Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) parseReturn() Stmt {
	startPos := p.curToken.Pos
	p.nextToken() // consume return

	var value Expr
	if !p.curTokenIs(TokenSemicolon) {
		value = p.parseExpression()
	}
	p.expect(TokenSemicolon)

	return &Return{SpanVal: MakeSpan(startPos, p.curToken.Pos), Value: value}
}

func (p *Parser) parseExprStatement() Stmt {
	expr := p.parseExpression()
	if expr == nil {
		// ensure progress on malformed input
		p.nextToken()
		return nil
	}
	p.expect(TokenSemicolon)
	return &ExprStmt{SpanVal: expr.Span(), Expr: expr}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// parseExpression parses a full expression including assignments.
func (p *Parser) parseExpression() Expr {
	return p.parseAssignment()
}

// assignOps maps assignment tokens; assignment is right-associative.
var assignOps = map[TokenType]bool{
	TokenAssign:      true,
	TokenPlusAssign:  true,
	TokenMinusAssign: true,
	TokenStarAssign:  true,
	TokenSlashAssign: true,
}

func (p *Parser) parseAssignment() Expr {
	left := p.parseLogicalOr()
	if left == nil {
		return nil
	}

	if assignOps[p.curToken.Type] {
		op := p.curToken.Type
		switch left.(type) {
		case *Variable, *Index, *Member:
		default:
			p.errorf("invalid assignment target")
			return nil
		}
		p.nextToken()
		value := p.parseAssignment()
		if value == nil {
			return nil
		}
		return &Assign{
			SpanVal: MakeSpan(left.Span().Start, value.Span().End),
			Op:      op,
			Target:  left,
			Value:   value,
		}
	}

	return left
}

func (p *Parser) parseLogicalOr() Expr {
	left := p.parseLogicalAnd()
	for left != nil && p.curTokenIs(TokenOrOr) {
		p.nextToken()
		right := p.parseLogicalAnd()
		if right == nil {
			return nil
		}
		left = &Logical{
			SpanVal: MakeSpan(left.Span().Start, right.Span().End),
			Op:      TokenOrOr, Left: left, Right: right,
		}
	}
	return left
}

func (p *Parser) parseLogicalAnd() Expr {
	left := p.parseBitOr()
	for left != nil && p.curTokenIs(TokenAndAnd) {
		p.nextToken()
		right := p.parseBitOr()
		if right == nil {
			return nil
		}
		left = &Logical{
			SpanVal: MakeSpan(left.Span().Start, right.Span().End),
			Op:      TokenAndAnd, Left: left, Right: right,
		}
	}
	return left
}

// parseBinaryLevel parses one precedence level of left-associative
// binary operators.
func (p *Parser) parseBinaryLevel(ops []TokenType, next func() Expr) Expr {
	left := next()
	for left != nil {
		matched := false
		for _, op := range ops {
			if p.curTokenIs(op) {
				p.nextToken()
				right := next()
				if right == nil {
					return nil
				}
				left = &Binary{
					SpanVal: MakeSpan(left.Span().Start, right.Span().End),
					Op:      op, Left: left, Right: right,
				}
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}
	return left
}

func (p *Parser) parseBitOr() Expr {
	return p.parseBinaryLevel([]TokenType{TokenPipe}, p.parseBitXor)
}

func (p *Parser) parseBitXor() Expr {
	return p.parseBinaryLevel([]TokenType{TokenCaret}, p.parseBitAnd)
}

func (p *Parser) parseBitAnd() Expr {
	return p.parseBinaryLevel([]TokenType{TokenAmp}, p.parseEquality)
}

func (p *Parser) parseEquality() Expr {
	return p.parseBinaryLevel([]TokenType{TokenEq, TokenNotEq}, p.parseComparison)
}

func (p *Parser) parseComparison() Expr {
	return p.parseBinaryLevel([]TokenType{TokenLt, TokenLtEq, TokenGt, TokenGtEq}, p.parseShift)
}

func (p *Parser) parseShift() Expr {
	return p.parseBinaryLevel([]TokenType{TokenShl, TokenShr}, p.parseAdditive)
}

func (p *Parser) parseAdditive() Expr {
	return p.parseBinaryLevel([]TokenType{TokenPlus, TokenMinus}, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative() Expr {
	return p.parseBinaryLevel([]TokenType{TokenStar, TokenSlash, TokenPercent}, p.parseUnary)
}

func (p *Parser) parseUnary() Expr {
	switch p.curToken.Type {
	case TokenMinus, TokenBang, TokenTilde:
		op := p.curToken.Type
		startPos := p.curToken.Pos
		p.nextToken()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &Unary{
			SpanVal: MakeSpan(startPos, operand.Span().End),
			Op:      op, Operand: operand,
		}
	case TokenIncrement, TokenDecrement:
		op := p.curToken.Type
		startPos := p.curToken.Pos
		p.nextToken()
		target := p.parseUnary()
		if target == nil {
			return nil
		}
		if !isAssignable(target) {
			p.errorf("invalid %s target", op)
			return nil
		}
		return &IncDec{
			SpanVal: MakeSpan(startPos, target.Span().End),
			Op:      op, Prefix: true, Target: target,
		}
	default:
		return p.parsePostfix()
	}
}

func isAssignable(e Expr) bool {
	switch e.(type) {
	case *Variable, *Index, *Member:
		return true
	}
	return false
}

// parsePostfix parses a primary expression followed by call, index,
// member and postfix ++/-- chains.
func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()

	for expr != nil {
		switch p.curToken.Type {
		case TokenLParen:
			p.nextToken()
			var args []Expr
			for !p.curTokenIs(TokenRParen) && !p.curTokenIs(TokenEOF) {
				arg := p.parseExpression()
				if arg == nil {
					return nil
				}
				args = append(args, arg)
				if p.curTokenIs(TokenComma) {
					p.nextToken()
					continue
				}
				break
			}
			endPos := p.curToken.Pos
			p.expect(TokenRParen)
			expr = &Call{
				SpanVal: MakeSpan(expr.Span().Start, endPos),
				Callee:  expr, Args: args,
			}

		case TokenLBracket:
			p.nextToken()
			idx := p.parseExpression()
			if idx == nil {
				return nil
			}
			endPos := p.curToken.Pos
			p.expect(TokenRBracket)
			expr = &Index{
				SpanVal: MakeSpan(expr.Span().Start, endPos),
				Target:  expr, Idx: idx,
			}

		case TokenDot:
			p.nextToken()
			if !p.curTokenIs(TokenIdentifier) {
				p.errorf("expected member name after '.', got %s", p.curToken.Type)
				return nil
			}
			name := p.curToken.Literal
			endPos := p.curToken.Pos
			p.nextToken()
			expr = &Member{
				SpanVal: MakeSpan(expr.Span().Start, endPos),
				Target:  expr, Name: name,
			}

		case TokenIncrement, TokenDecrement:
			if !isAssignable(expr) {
				p.errorf("invalid %s target", p.curToken.Type)
				return nil
			}
			op := p.curToken.Type
			endPos := p.curToken.Pos
			p.nextToken()
			expr = &IncDec{
				SpanVal: MakeSpan(expr.Span().Start, endPos),
				Op:      op, Prefix: false, Target: expr,
			}

		default:
			return expr
		}
	}
	return expr
}

// parsePrimary parses literals, variables, array literals and
// parenthesized expressions.
func (p *Parser) parsePrimary() Expr {
	pos := p.curToken.Pos

	switch p.curToken.Type {
	case TokenNumber:
		lit := p.curToken.Literal
		p.nextToken()
		var f float64
		var err error
		if len(lit) > 2 && (lit[1] == 'x' || lit[1] == 'X') {
			var n uint64
			n, err = strconv.ParseUint(lit[2:], 16, 64)
			f = float64(n)
		} else {
			f, err = strconv.ParseFloat(lit, 64)
		}
		if err != nil {
			p.errorf("invalid number literal %q", lit)
			return nil
		}
		return &NumberLiteral{SpanVal: MakeSpan(pos, p.curToken.Pos), Value: f}

	case TokenString:
		lit := p.curToken.Literal
		p.nextToken()
		return &StringLiteral{SpanVal: MakeSpan(pos, p.curToken.Pos), Value: lit}

	case TokenTrue, TokenFalse:
		val := p.curTokenIs(TokenTrue)
		p.nextToken()
		return &BoolLiteral{SpanVal: MakeSpan(pos, p.curToken.Pos), Value: val}

	case TokenNull:
		p.nextToken()
		return &NullLiteral{SpanVal: MakeSpan(pos, p.curToken.Pos)}

	case TokenIdentifier:
		name := p.curToken.Literal
		p.nextToken()
		return &Variable{SpanVal: MakeSpan(pos, p.curToken.Pos), Name: name}

	case TokenLParen:
		p.nextToken()
		expr := p.parseExpression()
		p.expect(TokenRParen)
		return expr

	case TokenLBracket:
		// array literal: [1, 2, 3]
		return p.parseArrayLiteral(pos, TokenRBracket)

	case TokenLBrace:
		// brace form accepted for older scripts: {1, 2, 3}
		return p.parseArrayLiteral(pos, TokenRBrace)

	default:
		p.errorf("unexpected token %s", p.curToken.Type)
		return nil
	}
}

func (p *Parser) parseArrayLiteral(pos Position, close TokenType) Expr {
	p.nextToken()
	var elems []Expr
	for !p.curTokenIs(close) && !p.curTokenIs(TokenEOF) {
		elem := p.parseExpression()
		if elem == nil {
			return nil
		}
		elems = append(elems, elem)
		if p.curTokenIs(TokenComma) {
			p.nextToken()
			continue
		}
		break
	}
	endPos := p.curToken.Pos
	p.expect(close)
	return &ArrayLiteral{SpanVal: MakeSpan(pos, endPos), Elements: elems}
}
