package builtins

import (
	"sort"
	"strings"

	"github.com/torchlight/gserver/script"
)

// registerArray adds the array builtins. Arrays share their backing
// storage, so in-place operations are visible through every reference;
// builtins that change length return a new array instead.
func registerArray(r *Registry) {
	arrArg := func(name string, args []script.Value, i int) ([]script.Value, error) {
		if args[i].Kind != script.KindArray {
			return nil, &script.InvalidCallError{Target: name, Message: "argument is not an array"}
		}
		return args[i].Elems(), nil
	}

	r.register(Builtin{
		Name:      "arraynew",
		Signature: "arraynew(n)",
		Doc:       "New array of n null elements.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arraynew", args, 1); err != nil {
				return script.Null, err
			}
			n, err := numArg("arraynew", args, 0)
			if err != nil {
				return script.Null, err
			}
			if n < 0 || n > 1<<20 {
				return script.Null, &script.InvalidCallError{Target: "arraynew", Message: "size out of range"}
			}
			return script.Array(make([]script.Value, int(n))), nil
		},
	})

	r.register(Builtin{
		Name:      "arraylen",
		Signature: "arraylen(arr)",
		Doc:       "Number of elements.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arraylen", args, 1); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arraylen", args, 0)
			if err != nil {
				return script.Null, err
			}
			return script.Number(float64(len(elems))), nil
		},
	})

	r.register(Builtin{
		Name:      "arrayappend",
		Signature: "arrayappend(arr, v)",
		Doc:       "New array with v appended.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arrayappend", args, 2); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arrayappend", args, 0)
			if err != nil {
				return script.Null, err
			}
			out := make([]script.Value, len(elems)+1)
			copy(out, elems)
			out[len(elems)] = args[1]
			return script.Array(out), nil
		},
	})

	r.register(Builtin{
		Name:      "arrayconcat",
		Signature: "arrayconcat(a, b)",
		Doc:       "New array holding the elements of a then b.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arrayconcat", args, 2); err != nil {
				return script.Null, err
			}
			a, err := arrArg("arrayconcat", args, 0)
			if err != nil {
				return script.Null, err
			}
			b, err := arrArg("arrayconcat", args, 1)
			if err != nil {
				return script.Null, err
			}
			out := make([]script.Value, 0, len(a)+len(b))
			out = append(out, a...)
			out = append(out, b...)
			return script.Array(out), nil
		},
	})

	r.register(Builtin{
		Name:      "arrayslice",
		Signature: "arrayslice(arr, start, len)",
		Doc:       "New array copying len elements starting at start; bounds clip.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arrayslice", args, 3); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arrayslice", args, 0)
			if err != nil {
				return script.Null, err
			}
			start, err := numArg("arrayslice", args, 1)
			if err != nil {
				return script.Null, err
			}
			length, err := numArg("arrayslice", args, 2)
			if err != nil {
				return script.Null, err
			}
			lo := int(start)
			if lo < 0 {
				lo = 0
			}
			if lo > len(elems) {
				lo = len(elems)
			}
			hi := lo + int(length)
			if hi < lo {
				hi = lo
			}
			if hi > len(elems) {
				hi = len(elems)
			}
			out := make([]script.Value, hi-lo)
			copy(out, elems[lo:hi])
			return script.Array(out), nil
		},
	})

	r.register(Builtin{
		Name:      "arrayindexof",
		Signature: "arrayindexof(arr, v)",
		Doc:       "Index of the first element equal to v, -1 if absent.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arrayindexof", args, 2); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arrayindexof", args, 0)
			if err != nil {
				return script.Null, err
			}
			for i, e := range elems {
				if script.Equals(e, args[1]) {
					return script.Number(float64(i)), nil
				}
			}
			return script.Number(-1), nil
		},
	})

	r.register(Builtin{
		Name:      "arraycontains",
		Signature: "arraycontains(arr, v)",
		Doc:       "True if some element equals v.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arraycontains", args, 2); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arraycontains", args, 0)
			if err != nil {
				return script.Null, err
			}
			for _, e := range elems {
				if script.Equals(e, args[1]) {
					return script.Bool(true), nil
				}
			}
			return script.Bool(false), nil
		},
	})

	r.register(Builtin{
		Name:      "arrayjoin",
		Signature: "arrayjoin(arr, sep)",
		Doc:       "Join element renderings with sep.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arrayjoin", args, 2); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arrayjoin", args, 0)
			if err != nil {
				return script.Null, err
			}
			parts := make([]string, len(elems))
			for i, e := range elems {
				parts[i] = e.ToString()
			}
			return script.String(strings.Join(parts, args[1].ToString())), nil
		},
	})

	r.register(Builtin{
		Name:      "arrayreverse",
		Signature: "arrayreverse(arr)",
		Doc:       "New array with the elements in reverse order.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arrayreverse", args, 1); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arrayreverse", args, 0)
			if err != nil {
				return script.Null, err
			}
			out := make([]script.Value, len(elems))
			for i, e := range elems {
				out[len(elems)-1-i] = e
			}
			return script.Array(out), nil
		},
	})

	r.register(Builtin{
		Name:      "arraysort",
		Signature: "arraysort(arr)",
		Doc:       "Sort the array in place using value ordering; returns it.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arraysort", args, 1); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arraysort", args, 0)
			if err != nil {
				return script.Null, err
			}
			sort.SliceStable(elems, func(i, j int) bool {
				return script.Compare(elems[i], elems[j]) < 0
			})
			return args[0], nil
		},
	})

	r.register(Builtin{
		Name:      "arraysum",
		Signature: "arraysum(arr)",
		Doc:       "Sum of the elements as numbers.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arraysum", args, 1); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arraysum", args, 0)
			if err != nil {
				return script.Null, err
			}
			var sum float64
			for _, e := range elems {
				n, err := e.ToNumber()
				if err != nil {
					return script.Null, &script.InvalidCallError{Target: "arraysum", Message: "element is not numeric"}
				}
				sum += n
			}
			return script.Number(sum), nil
		},
	})

	r.register(Builtin{
		Name:      "arraymin",
		Signature: "arraymin(arr)",
		Doc:       "Smallest element by value ordering, null if empty.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arraymin", args, 1); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arraymin", args, 0)
			if err != nil {
				return script.Null, err
			}
			if len(elems) == 0 {
				return script.Null, nil
			}
			best := elems[0]
			for _, e := range elems[1:] {
				if script.Compare(e, best) < 0 {
					best = e
				}
			}
			return best, nil
		},
	})

	r.register(Builtin{
		Name:      "arraymax",
		Signature: "arraymax(arr)",
		Doc:       "Largest element by value ordering, null if empty.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arraymax", args, 1); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arraymax", args, 0)
			if err != nil {
				return script.Null, err
			}
			if len(elems) == 0 {
				return script.Null, nil
			}
			best := elems[0]
			for _, e := range elems[1:] {
				if script.Compare(e, best) > 0 {
					best = e
				}
			}
			return best, nil
		},
	})

	r.register(Builtin{
		Name:      "arrayfill",
		Signature: "arrayfill(arr, v)",
		Doc:       "Set every element to v in place; returns the array.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("arrayfill", args, 2); err != nil {
				return script.Null, err
			}
			elems, err := arrArg("arrayfill", args, 0)
			if err != nil {
				return script.Null, err
			}
			for i := range elems {
				elems[i] = args[1]
			}
			return args[0], nil
		},
	})
}
