package script

import (
	"errors"
	"fmt"
)

// Sentinel errors raised by the safety limits. Both are matched with
// errors.Is by callers that distinguish resource exhaustion from ordinary
// script failures.
var (
	// ErrStackOverflow is raised when a GS2 invocation exceeds the frame
	// or operand stack limit.
	ErrStackOverflow = errors.New("script: stack overflow")

	// ErrTimeout is raised when an invocation exceeds its instruction
	// budget or wall-clock limit.
	ErrTimeout = errors.New("script: execution timed out")
)

// ParseError is a compile-time failure. Line is 1-based; 0 means the line
// is unknown.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// NewParseError creates a ParseError at the given line.
func NewParseError(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// RuntimeError is a general execution failure: bad operand types, division
// by zero, out-of-range index, and the like.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string {
	return "runtime error: " + e.Message
}

// NewRuntimeError creates a RuntimeError.
func NewRuntimeError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// VariableNotFoundError is raised when a script reads a name that is
// neither a local, a global, nor a builtin.
type VariableNotFoundError struct {
	Name string
}

func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable not found: %s", e.Name)
}

// InvalidCallError is raised when a call target is not callable or is
// invoked with the wrong number of arguments.
type InvalidCallError struct {
	Target  string
	Message string
}

func (e *InvalidCallError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("invalid call to %s: %s", e.Target, e.Message)
	}
	return "invalid call: " + e.Message
}
