package builtins

import (
	"strconv"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/torchlight/gserver/script"
)

var log = commonlog.GetLogger("gserver.builtins")

// registerMisc adds type inspection, time and logging builtins.
func registerMisc(r *Registry) {
	r.register(Builtin{
		Name:      "typeof",
		Signature: "typeof(v)",
		Doc:       "Type name of a value: null, number, bool, string, array or object.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("typeof", args, 1); err != nil {
				return script.Null, err
			}
			return script.String(args[0].Kind.String()), nil
		},
	})

	isKind := func(name string, kind script.ValueKind) {
		r.register(Builtin{
			Name:      name,
			Signature: name + "(v)",
			Doc:       "Type predicate.",
			Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
				if err := needArgs(name, args, 1); err != nil {
					return script.Null, err
				}
				return script.Bool(args[0].Kind == kind), nil
			},
		})
	}
	isKind("isnull", script.KindNull)
	isKind("isnumber", script.KindNumber)
	isKind("isbool", script.KindBool)
	isKind("isstring", script.KindString)
	isKind("isarray", script.KindArray)
	isKind("isobject", script.KindObject)

	r.register(Builtin{
		Name:      "time",
		Signature: "time()",
		Doc:       "Current Unix time in seconds.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("time", args, 0); err != nil {
				return script.Null, err
			}
			return script.Number(float64(time.Now().Unix())), nil
		},
	})

	r.register(Builtin{
		Name:      "timestr",
		Signature: "timestr()",
		Doc:       "Current time as an RFC 3339 string.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("timestr", args, 0); err != nil {
				return script.Null, err
			}
			return script.String(time.Now().Format(time.RFC3339)), nil
		},
	})

	r.register(Builtin{
		Name:      "owner",
		Signature: "owner()",
		Doc:       "Owner identifier of the running context.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("owner", args, 0); err != nil {
				return script.Null, err
			}
			return script.String(ctx.Owner()), nil
		},
	})

	r.register(Builtin{
		Name:      "format",
		Signature: "format(template, ...)",
		Doc:       "Replace {0}, {1}, ... placeholders with rendered arguments.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgsRange("format", args, 1, 16); err != nil {
				return script.Null, err
			}
			out := args[0].ToString()
			for i, arg := range args[1:] {
				out = strings.ReplaceAll(out, "{"+strconv.Itoa(i)+"}", arg.ToString())
			}
			return script.String(out), nil
		},
	})

	r.register(Builtin{
		Name:      "chatmessage",
		Signature: "chatmessage()",
		Doc:       "Chat text of the current PlayerChats event; empty otherwise.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("chatmessage", args, 0); err != nil {
				return script.Null, err
			}
			return script.String(ctx.EventArgs().Message), nil
		},
	})

	r.register(Builtin{
		Name:      "eventx",
		Signature: "eventx()",
		Doc:       "X coordinate of the current touch or click event; 0 otherwise.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("eventx", args, 0); err != nil {
				return script.Null, err
			}
			return script.Number(ctx.EventArgs().X), nil
		},
	})

	r.register(Builtin{
		Name:      "eventy",
		Signature: "eventy()",
		Doc:       "Y coordinate of the current touch or click event; 0 otherwise.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("eventy", args, 0); err != nil {
				return script.Null, err
			}
			return script.Number(ctx.EventArgs().Y), nil
		},
	})

	r.register(Builtin{
		Name:      "debug",
		Signature: "debug(...)",
		Doc:       "Log arguments at debug level, tagged with the owner.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.ToString()
			}
			log.Debugf("[%s] %s", ctx.Owner(), strings.Join(parts, " "))
			return script.Null, nil
		},
	})
}
