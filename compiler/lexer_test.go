package compiler

import (
	"testing"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `( ) { } [ ] , ; . + - * / % = ! < > & | ^ ~`
	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenRBrace, "}"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenComma, ","},
		{TokenSemicolon, ";"},
		{TokenDot, "."},
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenStar, "*"},
		{TokenSlash, "/"},
		{TokenPercent, "%"},
		{TokenAssign, "="},
		{TokenBang, "!"},
		{TokenLt, "<"},
		{TokenGt, ">"},
		{TokenAmp, "&"},
		{TokenPipe, "|"},
		{TokenCaret, "^"},
		{TokenTilde, "~"},
		{TokenEOF, ""},
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Errorf("token[%d] type = %v, want %v", i, tok.Type, exp.typ)
		}
		if tok.Literal != exp.lit {
			t.Errorf("token[%d] literal = %q, want %q", i, tok.Literal, exp.lit)
		}
	}
}

func TestLexerCompoundOperators(t *testing.T) {
	input := `== != <= >= && || += -= *= /= ++ -- << >>`
	expected := []TokenType{
		TokenEq, TokenNotEq, TokenLtEq, TokenGtEq,
		TokenAndAnd, TokenOrOr,
		TokenPlusAssign, TokenMinusAssign, TokenStarAssign, TokenSlashAssign,
		TokenIncrement, TokenDecrement,
		TokenShl, TokenShr,
		TokenEOF,
	}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token[%d] = %v, want %v", i, tok.Type, want)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"0", "0"},
		{"3.14", "3.14"},
		{"1e10", "1e10"},
		{"1.5e-3", "1.5e-3"},
		{"0xFF", "0xFF"},
		{"0x1a2b", "0x1a2b"},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != TokenNumber {
			t.Errorf("Lexer(%q): type = %v, want NUMBER", tc.input, tok.Type)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"quote \" inside"`, `quote " inside`},
		{`"back\\slash"`, `back\slash`},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != TokenString {
			t.Errorf("Lexer(%q): type = %v, want STRING", tc.input, tok.Type)
			continue
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	for _, input := range []string{`"abc`, "\"abc\ndef\""} {
		l := NewLexer(input)
		tok := l.NextToken()
		if tok.Type != TokenError {
			t.Errorf("Lexer(%q): type = %v, want ERROR", input, tok.Type)
		}
	}
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	input := `if else while for break continue return function global on class true false null foo _bar x2`
	expected := []TokenType{
		TokenIf, TokenElse, TokenWhile, TokenFor, TokenBreak, TokenContinue,
		TokenReturn, TokenFunction, TokenGlobal, TokenOn, TokenClass,
		TokenTrue, TokenFalse, TokenNull,
		TokenIdentifier, TokenIdentifier, TokenIdentifier,
		TokenEOF,
	}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token[%d] = %v (%q), want %v", i, tok.Type, tok.Literal, want)
		}
	}
}

func TestLexerComments(t *testing.T) {
	input := "x // line comment\n/* block\ncomment */ y"
	toks := Tokenize(input)

	if len(toks) != 3 {
		t.Fatalf("expected x, y, EOF; got %v", toks)
	}
	if toks[0].Literal != "x" || toks[1].Literal != "y" {
		t.Errorf("comments should be skipped, got %v", toks)
	}
}

func TestLexerLineTracking(t *testing.T) {
	input := "a\nb\n  c"
	l := NewLexer(input)

	a := l.NextToken()
	b := l.NextToken()
	c := l.NextToken()

	if a.Pos.Line != 1 || b.Pos.Line != 2 || c.Pos.Line != 3 {
		t.Errorf("line tracking wrong: a=%d b=%d c=%d", a.Pos.Line, b.Pos.Line, c.Pos.Line)
	}
	if c.Pos.Column != 3 {
		t.Errorf("column tracking wrong: c at column %d, want 3", c.Pos.Column)
	}
}
