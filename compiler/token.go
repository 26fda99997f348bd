// Package compiler implements the GS2 front end: lexer, recursive descent
// parser and AST. Code generation lives in pkg/bytecode.
package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the GS2 lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenNumber     // 42, 3.14, 0xFF
	TokenString     // "hello"
	TokenIdentifier // foo, Bar_2

	// Operators
	TokenPlus        // +
	TokenMinus       // -
	TokenStar        // *
	TokenSlash       // /
	TokenPercent     // %
	TokenAssign      // =
	TokenPlusAssign  // +=
	TokenMinusAssign // -=
	TokenStarAssign  // *=
	TokenSlashAssign // /=
	TokenIncrement   // ++
	TokenDecrement   // --
	TokenEq          // ==
	TokenNotEq       // !=
	TokenLt          // <
	TokenLtEq        // <=
	TokenGt          // >
	TokenGtEq        // >=
	TokenAndAnd      // &&
	TokenOrOr        // ||
	TokenBang        // !
	TokenAmp         // &
	TokenPipe        // |
	TokenCaret       // ^
	TokenTilde       // ~
	TokenShl         // <<
	TokenShr         // >>

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenComma     // ,
	TokenSemicolon // ;
	TokenDot       // .

	// Keywords
	TokenIf
	TokenElse
	TokenWhile
	TokenFor
	TokenBreak
	TokenContinue
	TokenReturn
	TokenFunction
	TokenGlobal
	TokenOn
	TokenClass
	TokenTrue
	TokenFalse
	TokenNull
)

var tokenNames = map[TokenType]string{
	TokenEOF:         "EOF",
	TokenError:       "ERROR",
	TokenNumber:      "NUMBER",
	TokenString:      "STRING",
	TokenIdentifier:  "IDENTIFIER",
	TokenPlus:        "+",
	TokenMinus:       "-",
	TokenStar:        "*",
	TokenSlash:       "/",
	TokenPercent:     "%",
	TokenAssign:      "=",
	TokenPlusAssign:  "+=",
	TokenMinusAssign: "-=",
	TokenStarAssign:  "*=",
	TokenSlashAssign: "/=",
	TokenIncrement:   "++",
	TokenDecrement:   "--",
	TokenEq:          "==",
	TokenNotEq:       "!=",
	TokenLt:          "<",
	TokenLtEq:        "<=",
	TokenGt:          ">",
	TokenGtEq:        ">=",
	TokenAndAnd:      "&&",
	TokenOrOr:        "||",
	TokenBang:        "!",
	TokenAmp:         "&",
	TokenPipe:        "|",
	TokenCaret:       "^",
	TokenTilde:       "~",
	TokenShl:         "<<",
	TokenShr:         ">>",
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenLBrace:      "{",
	TokenRBrace:      "}",
	TokenLBracket:    "[",
	TokenRBracket:    "]",
	TokenComma:       ",",
	TokenSemicolon:   ";",
	TokenDot:         ".",
	TokenIf:          "if",
	TokenElse:        "else",
	TokenWhile:       "while",
	TokenFor:         "for",
	TokenBreak:       "break",
	TokenContinue:    "continue",
	TokenReturn:      "return",
	TokenFunction:    "function",
	TokenGlobal:      "global",
	TokenOn:          "on",
	TokenClass:       "class",
	TokenTrue:        "true",
	TokenFalse:       "false",
	TokenNull:        "null",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text
	Pos     Position // start position
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	if t.Type == TokenError {
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// Reserved words mapped to their token types.
var reservedWords = map[string]TokenType{
	"if":       TokenIf,
	"else":     TokenElse,
	"while":    TokenWhile,
	"for":      TokenFor,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"return":   TokenReturn,
	"function": TokenFunction,
	"global":   TokenGlobal,
	"on":       TokenOn,
	"class":    TokenClass,
	"true":     TokenTrue,
	"false":    TokenFalse,
	"null":     TokenNull,
}
