package builtins

import "github.com/torchlight/gserver/script"

// registerLevel adds builtins that act on the context's level.
func registerLevel(r *Registry, world World) {
	r.register(Builtin{
		Name:      "broadcast",
		Signature: "broadcast(text)",
		Doc:       "Show text to every player in the current level.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("broadcast", args, 1); err != nil {
				return script.Null, err
			}
			level, err := currentLevel("broadcast", ctx)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.BroadcastToLevel(level, args[0].ToString())
		},
	})

	r.register(Builtin{
		Name:      "playsound",
		Signature: "playsound(name)",
		Doc:       "Play a sound in the current level.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("playsound", args, 1); err != nil {
				return script.Null, err
			}
			level, err := currentLevel("playsound", ctx)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.PlaySound(level, args[0].ToString())
		},
	})

	r.register(Builtin{
		Name:      "settile",
		Signature: "settile(x, y, tile)",
		Doc:       "Set a tile in the current level.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("settile", args, 3); err != nil {
				return script.Null, err
			}
			level, err := currentLevel("settile", ctx)
			if err != nil {
				return script.Null, err
			}
			x, err := numArg("settile", args, 0)
			if err != nil {
				return script.Null, err
			}
			y, err := numArg("settile", args, 1)
			if err != nil {
				return script.Null, err
			}
			tile, err := numArg("settile", args, 2)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.SetTile(level, x, y, tile)
		},
	})

	r.register(Builtin{
		Name:      "tileat",
		Signature: "tileat(x, y)",
		Doc:       "Tile id at a position in the current level.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("tileat", args, 2); err != nil {
				return script.Null, err
			}
			level, err := currentLevel("tileat", ctx)
			if err != nil {
				return script.Null, err
			}
			x, err := numArg("tileat", args, 0)
			if err != nil {
				return script.Null, err
			}
			y, err := numArg("tileat", args, 1)
			if err != nil {
				return script.Null, err
			}
			tile, err := world.TileAt(level, x, y)
			if err != nil {
				return script.Null, err
			}
			return script.Number(tile), nil
		},
	})

	r.register(Builtin{
		Name:      "playercount",
		Signature: "playercount()",
		Doc:       "Number of players in the current level.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("playercount", args, 0); err != nil {
				return script.Null, err
			}
			level, err := currentLevel("playercount", ctx)
			if err != nil {
				return script.Null, err
			}
			players, err := world.PlayersInLevel(level)
			if err != nil {
				return script.Null, err
			}
			return script.Number(float64(len(players))), nil
		},
	})

	r.register(Builtin{
		Name:      "playerlist",
		Signature: "playerlist()",
		Doc:       "Handles of all players in the current level.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("playerlist", args, 0); err != nil {
				return script.Null, err
			}
			level, err := currentLevel("playerlist", ctx)
			if err != nil {
				return script.Null, err
			}
			players, err := world.PlayersInLevel(level)
			if err != nil {
				return script.Null, err
			}
			elems := make([]script.Value, len(players))
			for i, p := range players {
				elems[i] = script.Object(p)
			}
			return script.Array(elems), nil
		},
	})

	r.register(Builtin{
		Name:      "level",
		Signature: "level()",
		Doc:       "Handle of the context's level, or null.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("level", args, 0); err != nil {
				return script.Null, err
			}
			l, ok := ctx.Level()
			if !ok {
				return script.Null, nil
			}
			return script.Object(l), nil
		},
	})
}
