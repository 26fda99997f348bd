package builtins

import (
	"strings"

	"github.com/torchlight/gserver/script"
)

// registerString adds the string builtins. Arguments coerce to strings
// the same way the + operator does.
func registerString(r *Registry) {
	str1 := func(name, doc string, fn func(string) script.Value) {
		r.register(Builtin{
			Name:      name,
			Signature: name + "(s)",
			Doc:       doc,
			Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
				if err := needArgs(name, args, 1); err != nil {
					return script.Null, err
				}
				return fn(args[0].ToString()), nil
			},
		})
	}

	str2 := func(name, doc string, fn func(a, b string) script.Value) {
		r.register(Builtin{
			Name:      name,
			Signature: name + "(s, t)",
			Doc:       doc,
			Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
				if err := needArgs(name, args, 2); err != nil {
					return script.Null, err
				}
				return fn(args[0].ToString(), args[1].ToString()), nil
			},
		})
	}

	str1("length", "Length of a string in bytes.", func(s string) script.Value {
		return script.Number(float64(len(s)))
	})
	str1("uppercase", "Uppercase copy of a string.", func(s string) script.Value {
		return script.String(strings.ToUpper(s))
	})
	str1("lowercase", "Lowercase copy of a string.", func(s string) script.Value {
		return script.String(strings.ToLower(s))
	})
	str1("trim", "Strip leading and trailing whitespace.", func(s string) script.Value {
		return script.String(strings.TrimSpace(s))
	})

	str2("startswith", "True if s begins with t.", func(a, b string) script.Value {
		return script.Bool(strings.HasPrefix(a, b))
	})
	str2("endswith", "True if s ends with t.", func(a, b string) script.Value {
		return script.Bool(strings.HasSuffix(a, b))
	})
	str2("contains", "True if s contains t.", func(a, b string) script.Value {
		return script.Bool(strings.Contains(a, b))
	})
	str2("indexof", "Index of the first occurrence of t in s, -1 if absent.", func(a, b string) script.Value {
		return script.Number(float64(strings.Index(a, b)))
	})
	str2("lastindexof", "Index of the last occurrence of t in s, -1 if absent.", func(a, b string) script.Value {
		return script.Number(float64(strings.LastIndex(a, b)))
	})
	str2("count", "Number of non-overlapping occurrences of t in s.", func(a, b string) script.Value {
		return script.Number(float64(strings.Count(a, b)))
	})
	str2("trimstart", "Strip leading characters in cutset t.", func(a, b string) script.Value {
		return script.String(strings.TrimLeft(a, b))
	})
	str2("trimend", "Strip trailing characters in cutset t.", func(a, b string) script.Value {
		return script.String(strings.TrimRight(a, b))
	})

	str1("capitalize", "Uppercase the first character of s.", func(s string) script.Value {
		if s == "" {
			return script.String(s)
		}
		runes := []rune(s)
		return script.String(strings.ToUpper(string(runes[0])) + string(runes[1:]))
	})
	str1("reversestr", "Copy of s with the characters reversed.", func(s string) script.Value {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return script.String(string(runes))
	})

	r.register(Builtin{
		Name:      "substring",
		Signature: "substring(s, start, len)",
		Doc:       "Slice of s starting at start, len bytes long. Out-of-range bounds clip.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("substring", args, 3); err != nil {
				return script.Null, err
			}
			s := args[0].ToString()
			start, err := numArg("substring", args, 1)
			if err != nil {
				return script.Null, err
			}
			length, err := numArg("substring", args, 2)
			if err != nil {
				return script.Null, err
			}
			lo := int(start)
			if lo < 0 {
				lo = 0
			}
			if lo > len(s) {
				lo = len(s)
			}
			hi := lo + int(length)
			if hi < lo {
				hi = lo
			}
			if hi > len(s) {
				hi = len(s)
			}
			return script.String(s[lo:hi]), nil
		},
	})

	r.register(Builtin{
		Name:      "charat",
		Signature: "charat(s, i)",
		Doc:       "One-character string at index i, empty if out of range.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("charat", args, 2); err != nil {
				return script.Null, err
			}
			s := args[0].ToString()
			i, err := numArg("charat", args, 1)
			if err != nil {
				return script.Null, err
			}
			n := int(i)
			if n < 0 || n >= len(s) {
				return script.String(""), nil
			}
			return script.String(string(s[n])), nil
		},
	})

	r.register(Builtin{
		Name:      "replace",
		Signature: "replace(s, old, new)",
		Doc:       "Replace every occurrence of old in s with new.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("replace", args, 3); err != nil {
				return script.Null, err
			}
			return script.String(strings.ReplaceAll(
				args[0].ToString(), args[1].ToString(), args[2].ToString())), nil
		},
	})

	r.register(Builtin{
		Name:      "split",
		Signature: "split(s, sep)",
		Doc:       "Split s on sep into an array of strings.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("split", args, 2); err != nil {
				return script.Null, err
			}
			parts := strings.Split(args[0].ToString(), args[1].ToString())
			elems := make([]script.Value, len(parts))
			for i, p := range parts {
				elems[i] = script.String(p)
			}
			return script.Array(elems), nil
		},
	})

	r.register(Builtin{
		Name:      "repeat",
		Signature: "repeat(s, n)",
		Doc:       "s repeated n times.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("repeat", args, 2); err != nil {
				return script.Null, err
			}
			n, err := numArg("repeat", args, 1)
			if err != nil {
				return script.Null, err
			}
			if n < 0 || n > 1<<16 {
				return script.Null, &script.InvalidCallError{Target: "repeat", Message: "count out of range"}
			}
			return script.String(strings.Repeat(args[0].ToString(), int(n))), nil
		},
	})

	r.register(Builtin{
		Name:      "padleft",
		Signature: "padleft(s, width)",
		Doc:       "Left-pad s with spaces to the given width.",
		Fn:        padFn("padleft", true),
	})
	r.register(Builtin{
		Name:      "padright",
		Signature: "padright(s, width)",
		Doc:       "Right-pad s with spaces to the given width.",
		Fn:        padFn("padright", false),
	})

	r.register(Builtin{
		Name:      "tonumber",
		Signature: "tonumber(v)",
		Doc:       "Coerce a value to a number; null if it does not parse.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("tonumber", args, 1); err != nil {
				return script.Null, err
			}
			n, err := args[0].ToNumber()
			if err != nil {
				return script.Null, nil
			}
			return script.Number(n), nil
		},
	})

	r.register(Builtin{
		Name:      "tostring",
		Signature: "tostring(v)",
		Doc:       "Render a value the way scripts observe it.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("tostring", args, 1); err != nil {
				return script.Null, err
			}
			return script.String(args[0].ToString()), nil
		},
	})

	r.register(Builtin{
		Name:      "chr",
		Signature: "chr(code)",
		Doc:       "One-character string from a character code.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("chr", args, 1); err != nil {
				return script.Null, err
			}
			n, err := numArg("chr", args, 0)
			if err != nil {
				return script.Null, err
			}
			return script.String(string(rune(int(n)))), nil
		},
	})

	r.register(Builtin{
		Name:      "ord",
		Signature: "ord(s)",
		Doc:       "Character code of the first character of s, -1 if empty.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("ord", args, 1); err != nil {
				return script.Null, err
			}
			s := args[0].ToString()
			if s == "" {
				return script.Number(-1), nil
			}
			return script.Number(float64([]rune(s)[0])), nil
		},
	})
}

func padFn(name string, left bool) Func {
	return func(ctx *script.Context, args []script.Value) (script.Value, error) {
		if err := needArgs(name, args, 2); err != nil {
			return script.Null, err
		}
		s := args[0].ToString()
		w, err := numArg(name, args, 1)
		if err != nil {
			return script.Null, err
		}
		width := int(w)
		if width < 0 || width > 1<<16 {
			return script.Null, &script.InvalidCallError{Target: name, Message: "width out of range"}
		}
		for len(s) < width {
			if left {
				s = " " + s
			} else {
				s += " "
			}
		}
		return script.String(s), nil
	}
}
