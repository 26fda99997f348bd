package builtins

import "github.com/torchlight/gserver/script"

// registerNPC adds builtins that manage NPCs in the context's level.
func registerNPC(r *Registry, world World) {
	r.register(Builtin{
		Name:      "spawnnpc",
		Signature: "spawnnpc(name, x, y)",
		Doc:       "Spawn an NPC in the current level and return its handle.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("spawnnpc", args, 3); err != nil {
				return script.Null, err
			}
			level, err := currentLevel("spawnnpc", ctx)
			if err != nil {
				return script.Null, err
			}
			x, err := numArg("spawnnpc", args, 1)
			if err != nil {
				return script.Null, err
			}
			y, err := numArg("spawnnpc", args, 2)
			if err != nil {
				return script.Null, err
			}
			ref, err := world.SpawnNPC(level, args[0].ToString(), x, y)
			if err != nil {
				return script.Null, err
			}
			return script.Object(ref), nil
		},
	})

	r.register(Builtin{
		Name:      "removenpc",
		Signature: "removenpc(npc)",
		Doc:       "Remove an NPC from the current level.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("removenpc", args, 1); err != nil {
				return script.Null, err
			}
			level, err := currentLevel("removenpc", ctx)
			if err != nil {
				return script.Null, err
			}
			npc, err := refArg("removenpc", args, 0)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.RemoveNPC(level, npc)
		},
	})

	r.register(Builtin{
		Name:      "npcprop",
		Signature: "npcprop(npc, name)",
		Doc:       "Read a property of an NPC.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("npcprop", args, 2); err != nil {
				return script.Null, err
			}
			npc, err := refArg("npcprop", args, 0)
			if err != nil {
				return script.Null, err
			}
			return world.GetProperty(npc, args[1].ToString())
		},
	})

	r.register(Builtin{
		Name:      "setnpcprop",
		Signature: "setnpcprop(npc, name, value)",
		Doc:       "Write a property of an NPC.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("setnpcprop", args, 3); err != nil {
				return script.Null, err
			}
			npc, err := refArg("setnpcprop", args, 0)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.SetProperty(npc, args[1].ToString(), args[2])
		},
	})

	r.register(Builtin{
		Name:      "npctalk",
		Signature: "npctalk(text)",
		Doc:       "Broadcast chat from this NPC to its level.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs("npctalk", args, 1); err != nil {
				return script.Null, err
			}
			level, err := currentLevel("npctalk", ctx)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.BroadcastToLevel(level, ctx.Owner()+": "+args[0].ToString())
		},
	})
}
