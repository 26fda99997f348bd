package builtins

import "github.com/torchlight/gserver/script"

// registerPlayer adds builtins that act on players.
func registerPlayer(r *Registry, world World) {
	r.register(Builtin{
		Name:      "showtext",
		Signature: "showtext(text)",
		Doc:       "Show text to the player the current event concerns.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("showtext", args, 1); err != nil {
				return script.Null, err
			}
			player, err := currentPlayer("showtext", ctx)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.SendToPlayer(player, args[0].ToString())
		},
	})

	r.register(Builtin{
		Name:      "sendtoplayer",
		Signature: "sendtoplayer(player, text)",
		Doc:       "Show text to a specific player.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("sendtoplayer", args, 2); err != nil {
				return script.Null, err
			}
			player, err := refArg("sendtoplayer", args, 0)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.SendToPlayer(player, args[1].ToString())
		},
	})

	r.register(Builtin{
		Name:      "player",
		Signature: "player()",
		Doc:       "Handle of the player the current event concerns, or null.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("player", args, 0); err != nil {
				return script.Null, err
			}
			p, ok := ctx.Player()
			if !ok {
				return script.Null, nil
			}
			return script.Object(p), nil
		},
	})

	r.register(Builtin{
		Name:      "playerprop",
		Signature: "playerprop(name) / playerprop(player, name)",
		Doc:       "Read a property of the current player, or of a given player.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgsRange("playerprop", args, 1, 2); err != nil {
				return script.Null, err
			}
			if len(args) == 1 {
				player, err := currentPlayer("playerprop", ctx)
				if err != nil {
					return script.Null, err
				}
				return world.GetProperty(player, args[0].ToString())
			}
			player, err := refArg("playerprop", args, 0)
			if err != nil {
				return script.Null, err
			}
			return world.GetProperty(player, args[1].ToString())
		},
	})

	r.register(Builtin{
		Name:      "setplayerprop",
		Signature: "setplayerprop(name, value) / setplayerprop(player, name, value)",
		Doc:       "Write a property of the current player, or of a given player.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgsRange("setplayerprop", args, 2, 3); err != nil {
				return script.Null, err
			}
			if len(args) == 2 {
				player, err := currentPlayer("setplayerprop", ctx)
				if err != nil {
					return script.Null, err
				}
				return script.Null, world.SetProperty(player, args[0].ToString(), args[1])
			}
			player, err := refArg("setplayerprop", args, 0)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.SetProperty(player, args[1].ToString(), args[2])
		},
	})
}
