package script

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property checks for the coercion rules: laws that hold for every value,
// not just the hand-picked cases in value_test.go.
func TestValueProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	numGen := gen.Float64Range(-1e9, 1e9)

	properties.Property("number addition is commutative", prop.ForAll(
		func(a, b float64) bool {
			return Equals(Add(Number(a), Number(b)), Add(Number(b), Number(a)))
		},
		numGen, numGen,
	))

	properties.Property("numbers round-trip through string rendering", prop.ForAll(
		func(a float64) bool {
			f, err := String(Number(a).ToString()).ToNumber()
			return err == nil && f == a
		},
		numGen,
	))

	properties.Property("equality is reflexive", prop.ForAll(
		func(s string) bool {
			return Equals(String(s), String(s))
		},
		gen.AnyString(),
	))

	properties.Property("compare is antisymmetric", prop.ForAll(
		func(a, b float64) bool {
			return Compare(Number(a), Number(b)) == -Compare(Number(b), Number(a))
		},
		numGen, numGen,
	))

	properties.Property("truthiness of a number matches non-zero", prop.ForAll(
		func(a float64) bool {
			return Number(a).IsTruthy() == (a != 0)
		},
		numGen,
	))

	properties.TestingRun(t)
}
