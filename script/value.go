// Package script provides the shared runtime model for GServer scripting:
// the dynamically typed Value used by both the GS1 interpreter and the GS2
// bytecode VM, the script error kinds, the event enumeration, and the
// per-owner execution context.
package script

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind represents the type of a script value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindBool
	KindString
	KindArray
	KindObject
)

var kindNames = map[ValueKind]string{
	KindNull:   "null",
	KindNumber: "number",
	KindBool:   "bool",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// ObjectKind classifies the game entity an ObjectRef points at.
type ObjectKind int

const (
	ObjectPlayer ObjectKind = iota
	ObjectNPC
	ObjectLevel
)

// ObjectRef is an opaque handle to a game entity. The scripting core never
// dereferences it; builtins pass it to the collaborator accessors that own
// the entity.
type ObjectRef struct {
	Kind ObjectKind
	ID   string
}

// Value is the runtime value shared by GS1 and GS2. Values are immutable
// once observed by a script expression; mutation happens by rebinding a
// variable slot or global.
type Value struct {
	Kind ValueKind

	numVal  float64
	boolVal bool
	strVal  string
	arrVal  []Value
	refVal  ObjectRef
}

// Null is the null value.
var Null = Value{Kind: KindNull}

// Number creates a number value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, numVal: f}
}

// Bool creates a boolean value.
func Bool(b bool) Value {
	return Value{Kind: KindBool, boolVal: b}
}

// String creates a string value.
func String(s string) Value {
	return Value{Kind: KindString, strVal: s}
}

// Array creates an array value. The backing slice is shared; arrays compare
// by reference identity, not contents.
func Array(elems []Value) Value {
	return Value{Kind: KindArray, arrVal: elems}
}

// Object creates an object-reference value.
func Object(ref ObjectRef) Value {
	return Value{Kind: KindObject, refVal: ref}
}

// Num returns the float64 payload of a number value, or 0 for other kinds.
func (v Value) Num() float64 {
	if v.Kind == KindNumber {
		return v.numVal
	}
	return 0
}

// Str returns the string payload of a string value, or "" for other kinds.
func (v Value) Str() string {
	if v.Kind == KindString {
		return v.strVal
	}
	return ""
}

// Elems returns the element slice of an array value, or nil.
func (v Value) Elems() []Value {
	if v.Kind == KindArray {
		return v.arrVal
	}
	return nil
}

// Ref returns the object handle of an object value.
func (v Value) Ref() ObjectRef {
	return v.refVal
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsTruthy reports whether the value is considered true in conditionals.
// Null, 0, false and the empty string are falsy; everything else is truthy.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindNumber:
		return v.numVal != 0
	case KindBool:
		return v.boolVal
	case KindString:
		return v.strVal != ""
	default:
		return true
	}
}

// IsNumeric reports whether the value participates in numeric arithmetic:
// numbers, booleans, and strings that parse as numbers.
func (v Value) IsNumeric() bool {
	_, ok := v.toNumber()
	return ok
}

// toNumber attempts numeric coercion.
func (v Value) toNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.numVal, true
	case KindBool:
		if v.boolVal {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.strVal), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToNumber coerces the value to a number. Null coerces to 0. Returns an
// error for strings that do not parse and for arrays/objects.
func (v Value) ToNumber() (float64, error) {
	if v.Kind == KindNull {
		return 0, nil
	}
	if f, ok := v.toNumber(); ok {
		return f, nil
	}
	return 0, NewRuntimeError("cannot convert %s to number", v.Kind)
}

// ToString renders the value the way scripts observe it: numbers without a
// trailing ".0", null as the empty string, arrays comma-joined.
func (v Value) ToString() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindNumber:
		return strconv.FormatFloat(v.numVal, 'f', -1, 64)
	case KindBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case KindString:
		return v.strVal
	case KindArray:
		parts := make([]string, len(v.arrVal))
		for i, e := range v.arrVal {
			parts[i] = e.ToString()
		}
		return strings.Join(parts, ",")
	case KindObject:
		return v.refVal.ID
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.Kind == KindString {
		return fmt.Sprintf("%q", v.strVal)
	}
	return v.ToString()
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// Add implements the script `+` operator: numeric addition when both
// operands are numeric, string concatenation otherwise.
func Add(a, b Value) Value {
	af, aok := a.toNumber()
	bf, bok := b.toNumber()
	if aok && bok {
		return Number(af + bf)
	}
	return String(a.ToString() + b.ToString())
}

// Arith applies a strictly numeric binary operator. op is one of
// "-", "*", "/", "%".
func Arith(op string, a, b Value) (Value, error) {
	af, err := a.ToNumber()
	if err != nil {
		return Null, NewRuntimeError("operator %q: left operand is not a number", op)
	}
	bf, err := b.ToNumber()
	if err != nil {
		return Null, NewRuntimeError("operator %q: right operand is not a number", op)
	}

	switch op {
	case "-":
		return Number(af - bf), nil
	case "*":
		return Number(af * bf), nil
	case "/":
		if bf == 0 {
			return Null, NewRuntimeError("division by zero")
		}
		return Number(af / bf), nil
	case "%":
		if bf == 0 {
			return Null, NewRuntimeError("modulo by zero")
		}
		return Number(float64(int64(af) % int64(bf))), nil
	default:
		return Null, NewRuntimeError("unknown operator %q", op)
	}
}

// Equals implements script equality: numeric equality when both operands
// are numeric, reference identity for arrays, string comparison otherwise.
// Null equals only Null.
func Equals(a, b Value) bool {
	if a.Kind == KindNull || b.Kind == KindNull {
		return a.Kind == b.Kind
	}
	if a.Kind == KindArray || b.Kind == KindArray {
		if a.Kind != KindArray || b.Kind != KindArray {
			return false
		}
		return len(a.arrVal) == len(b.arrVal) && (len(a.arrVal) == 0 || &a.arrVal[0] == &b.arrVal[0])
	}
	if a.Kind == KindObject || b.Kind == KindObject {
		return a.Kind == b.Kind && a.refVal == b.refVal
	}
	af, aok := a.toNumber()
	bf, bok := b.toNumber()
	if aok && bok {
		return af == bf
	}
	return a.ToString() == b.ToString()
}

// Compare orders two values: -1, 0 or +1. Numeric comparison when both
// operands are numeric, lexicographic string comparison otherwise.
func Compare(a, b Value) int {
	af, aok := a.toNumber()
	bf, bok := b.toNumber()
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.ToString(), b.ToString())
}
