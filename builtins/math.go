package builtins

import (
	"math"
	"math/rand"

	"github.com/torchlight/gserver/script"
)

// registerMath adds the numeric builtins. All of them coerce their
// arguments and fail with InvalidCallError on non-numeric input.
func registerMath(r *Registry) {
	unary := func(name, doc string, fn func(float64) float64) {
		r.register(Builtin{
			Name:      name,
			Signature: name + "(n)",
			Doc:       doc,
			Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
				if err := needArgs(name, args, 1); err != nil {
					return script.Null, err
				}
				n, err := numArg(name, args, 0)
				if err != nil {
					return script.Null, err
				}
				return script.Number(fn(n)), nil
			},
		})
	}

	binary := func(name, doc string, fn func(a, b float64) float64) {
		r.register(Builtin{
			Name:      name,
			Signature: name + "(a, b)",
			Doc:       doc,
			Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
				if err := needArgs(name, args, 2); err != nil {
					return script.Null, err
				}
				a, err := numArg(name, args, 0)
				if err != nil {
					return script.Null, err
				}
				b, err := numArg(name, args, 1)
				if err != nil {
					return script.Null, err
				}
				return script.Number(fn(a, b)), nil
			},
		})
	}

	unary("abs", "Absolute value.", math.Abs)
	unary("ceil", "Round up to the nearest integer.", math.Ceil)
	unary("floor", "Round down to the nearest integer.", math.Floor)
	unary("round", "Round to the nearest integer.", math.Round)
	unary("sqrt", "Square root.", math.Sqrt)
	unary("sin", "Sine of an angle in radians.", math.Sin)
	unary("cos", "Cosine of an angle in radians.", math.Cos)
	unary("tan", "Tangent of an angle in radians.", math.Tan)
	unary("asin", "Arcsine in radians.", math.Asin)
	unary("acos", "Arccosine in radians.", math.Acos)
	unary("atan", "Arctangent in radians.", math.Atan)
	unary("exp", "e raised to n.", math.Exp)
	unary("log", "Natural logarithm.", math.Log)
	unary("log10", "Base-10 logarithm.", math.Log10)
	unary("degtorad", "Convert degrees to radians.", func(d float64) float64 { return d * math.Pi / 180 })
	unary("radtodeg", "Convert radians to degrees.", func(rad float64) float64 { return rad * 180 / math.Pi })
	unary("sign", "-1, 0 or 1 by sign.", func(n float64) float64 {
		switch {
		case n < 0:
			return -1
		case n > 0:
			return 1
		default:
			return 0
		}
	})

	unary("sinh", "Hyperbolic sine.", math.Sinh)
	unary("cosh", "Hyperbolic cosine.", math.Cosh)
	unary("tanh", "Hyperbolic tangent.", math.Tanh)
	unary("cbrt", "Cube root.", math.Cbrt)
	unary("trunc", "Integer part, rounded toward zero.", math.Trunc)
	unary("log2", "Base-2 logarithm.", math.Log2)
	unary("exp2", "2 raised to n.", math.Exp2)
	unary("frac", "Fractional part of n.", func(n float64) float64 {
		return n - math.Trunc(n)
	})

	binary("pow", "a raised to b.", math.Pow)
	binary("atan2", "Arctangent of y/x using both signs.", math.Atan2)
	binary("hypot", "Euclidean distance sqrt(a*a + b*b).", math.Hypot)
	binary("min", "Smaller of two numbers.", math.Min)
	binary("max", "Larger of two numbers.", math.Max)
	binary("mod", "Floating-point remainder of a/b.", math.Mod)

	r.register(Builtin{
		Name:      "lerp",
		Signature: "lerp(a, b, t)",
		Doc:       "Linear interpolation from a to b by t.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("lerp", args, 3); err != nil {
				return script.Null, err
			}
			a, err := numArg("lerp", args, 0)
			if err != nil {
				return script.Null, err
			}
			b, err := numArg("lerp", args, 1)
			if err != nil {
				return script.Null, err
			}
			t, err := numArg("lerp", args, 2)
			if err != nil {
				return script.Null, err
			}
			return script.Number(a + (b-a)*t), nil
		},
	})

	r.register(Builtin{
		Name:      "dist",
		Signature: "dist(x1, y1, x2, y2)",
		Doc:       "Euclidean distance between two points.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("dist", args, 4); err != nil {
				return script.Null, err
			}
			nums := make([]float64, 4)
			for i := range nums {
				n, err := numArg("dist", args, i)
				if err != nil {
					return script.Null, err
				}
				nums[i] = n
			}
			return script.Number(math.Hypot(nums[2]-nums[0], nums[3]-nums[1])), nil
		},
	})

	r.register(Builtin{
		Name:      "clamp",
		Signature: "clamp(n, lo, hi)",
		Doc:       "Bound n into [lo, hi].",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("clamp", args, 3); err != nil {
				return script.Null, err
			}
			n, err := numArg("clamp", args, 0)
			if err != nil {
				return script.Null, err
			}
			lo, err := numArg("clamp", args, 1)
			if err != nil {
				return script.Null, err
			}
			hi, err := numArg("clamp", args, 2)
			if err != nil {
				return script.Null, err
			}
			return script.Number(math.Min(math.Max(n, lo), hi)), nil
		},
	})

	r.register(Builtin{
		Name:      "random",
		Signature: "random()",
		Doc:       "Uniform random number in [0, 1).",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("random", args, 0); err != nil {
				return script.Null, err
			}
			return script.Number(rand.Float64()), nil
		},
	})

	r.register(Builtin{
		Name:      "randomint",
		Signature: "randomint(lo, hi)",
		Doc:       "Uniform random integer in [lo, hi].",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("randomint", args, 2); err != nil {
				return script.Null, err
			}
			lo, err := numArg("randomint", args, 0)
			if err != nil {
				return script.Null, err
			}
			hi, err := numArg("randomint", args, 1)
			if err != nil {
				return script.Null, err
			}
			l, h := int64(lo), int64(hi)
			if h < l {
				return script.Null, &script.InvalidCallError{Target: "randomint", Message: "empty range"}
			}
			return script.Number(float64(l + rand.Int63n(h-l+1))), nil
		},
	})

	r.register(Builtin{
		Name:      "pi",
		Signature: "pi()",
		Doc:       "The constant pi.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("pi", args, 0); err != nil {
				return script.Null, err
			}
			return script.Number(math.Pi), nil
		},
	})
}
