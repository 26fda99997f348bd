package script

import (
	"errors"
	"testing"
)

// TestIsTruthy verifies the falsy set: null, zero, false and the empty
// string. Everything else is truthy, including empty arrays.
func TestIsTruthy(t *testing.T) {
	falsy := []Value{Null, Number(0), Bool(false), String("")}
	for _, v := range falsy {
		if v.IsTruthy() {
			t.Errorf("%v should be falsy", v)
		}
	}

	truthy := []Value{
		Number(1),
		Number(-0.5),
		Bool(true),
		String("0"),
		String("false"),
		Array(nil),
		Object(ObjectRef{Kind: ObjectPlayer, ID: "p1"}),
	}
	for _, v := range truthy {
		if !v.IsTruthy() {
			t.Errorf("%v should be truthy", v)
		}
	}
}

// TestAddCoercion checks that + adds when both operands are numeric-ish
// and concatenates otherwise.
func TestAddCoercion(t *testing.T) {
	tests := []struct {
		a, b Value
		want Value
	}{
		{Number(1), Number(2), Number(3)},
		{Number(1), String("2"), Number(3)},
		{String("1"), String("2"), Number(3)},
		{Bool(true), Number(1), Number(2)},
		{String("a"), Number(2), String("a2")},
		{String("1"), String("b"), String("1b")},
		{Null, String("x"), String("x")},
	}
	for _, tt := range tests {
		got := Add(tt.a, tt.b)
		if !Equals(got, tt.want) || got.Kind != tt.want.Kind {
			t.Errorf("Add(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

// TestArithRejectsNonNumeric verifies that -, *, / and % fail with a
// runtime error when an operand does not coerce to a number.
func TestArithRejectsNonNumeric(t *testing.T) {
	for _, op := range []string{"-", "*", "/", "%"} {
		_, err := Arith(op, String("abc"), Number(1))
		var rte *RuntimeError
		if !errors.As(err, &rte) {
			t.Errorf("Arith(%q, \"abc\", 1): expected RuntimeError, got %v", op, err)
		}
	}
}

// TestDivisionByZero verifies that / and % by zero raise a runtime error
// instead of producing Inf or panicking.
func TestDivisionByZero(t *testing.T) {
	for _, op := range []string{"/", "%"} {
		_, err := Arith(op, Number(10), Number(0))
		var rte *RuntimeError
		if !errors.As(err, &rte) {
			t.Errorf("Arith(%q, 10, 0): expected RuntimeError, got %v", op, err)
		}
	}
}

func TestArith(t *testing.T) {
	tests := []struct {
		op   string
		a, b float64
		want float64
	}{
		{"-", 5, 3, 2},
		{"*", 4, 2.5, 10},
		{"/", 9, 2, 4.5},
		{"%", 9, 4, 1},
	}
	for _, tt := range tests {
		got, err := Arith(tt.op, Number(tt.a), Number(tt.b))
		if err != nil {
			t.Fatalf("Arith(%q, %v, %v): %v", tt.op, tt.a, tt.b, err)
		}
		if got.Num() != tt.want {
			t.Errorf("Arith(%q, %v, %v) = %v, want %v", tt.op, tt.a, tt.b, got.Num(), tt.want)
		}
	}
}

// TestEquals covers numeric cross-type equality, null identity and array
// reference semantics.
func TestEquals(t *testing.T) {
	if !Equals(Number(2), String("2")) {
		t.Error("2 should equal \"2\"")
	}
	if !Equals(Null, Null) {
		t.Error("null should equal null")
	}
	if Equals(Null, Number(0)) {
		t.Error("null should not equal 0")
	}
	if Equals(Null, String("")) {
		t.Error("null should not equal \"\"")
	}

	shared := []Value{Number(1)}
	if !Equals(Array(shared), Array(shared)) {
		t.Error("arrays backed by the same slice should be equal")
	}
	if Equals(Array([]Value{Number(1)}), Array([]Value{Number(1)})) {
		t.Error("distinct arrays should not be equal even with equal contents")
	}
}

func TestCompare(t *testing.T) {
	if Compare(Number(1), Number(2)) != -1 {
		t.Error("1 < 2")
	}
	if Compare(String("10"), String("9")) != 1 {
		t.Error("\"10\" and \"9\" are both numeric, so 10 > 9")
	}
	if Compare(String("apple"), String("banana")) != -1 {
		t.Error("apple < banana lexicographically")
	}
}

// TestToString checks the observable renderings: numbers without trailing
// zeros, null as empty, arrays comma-joined.
func TestToString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Number(3), "3"},
		{Number(3.5), "3.5"},
		{Number(-0.25), "-0.25"},
		{Null, ""},
		{Bool(true), "true"},
		{Array([]Value{Number(1), String("a")}), "1,a"},
	}
	for _, tt := range tests {
		if got := tt.v.ToString(); got != tt.want {
			t.Errorf("ToString(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestToNumber(t *testing.T) {
	if f, err := Null.ToNumber(); err != nil || f != 0 {
		t.Errorf("null should coerce to 0, got %v/%v", f, err)
	}
	if f, err := String(" 42 ").ToNumber(); err != nil || f != 42 {
		t.Errorf("\" 42 \" should coerce to 42, got %v/%v", f, err)
	}
	if _, err := Array(nil).ToNumber(); err == nil {
		t.Error("arrays should not coerce to numbers")
	}
}
