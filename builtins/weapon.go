package builtins

import "github.com/torchlight/gserver/script"

// registerWeapon adds weapon management builtins. Each takes an explicit
// player handle or defaults to the event's player.
func registerWeapon(r *Registry, world World) {
	playerAndWeapon := func(name string, ctx *script.Context, args []script.Value) (script.ObjectRef, string, error) {
		if err := needArgsRange(name, args, 1, 2); err != nil {
			return script.ObjectRef{}, "", err
		}
		if len(args) == 1 {
			player, err := currentPlayer(name, ctx)
			return player, args[0].ToString(), err
		}
		player, err := refArg(name, args, 0)
		return player, args[1].ToString(), err
	}

	r.register(Builtin{
		Name:      "giveweapon",
		Signature: "giveweapon(weapon) / giveweapon(player, weapon)",
		Doc:       "Give a weapon to a player.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			player, weapon, err := playerAndWeapon("giveweapon", ctx, args)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.GiveWeapon(player, weapon)
		},
	})

	r.register(Builtin{
		Name:      "takeweapon",
		Signature: "takeweapon(weapon) / takeweapon(player, weapon)",
		Doc:       "Take a weapon from a player.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			player, weapon, err := playerAndWeapon("takeweapon", ctx, args)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.TakeWeapon(player, weapon)
		},
	})

	r.register(Builtin{
		Name:      "hasweapon",
		Signature: "hasweapon(weapon) / hasweapon(player, weapon)",
		Doc:       "Whether a player holds a weapon.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			player, weapon, err := playerAndWeapon("hasweapon", ctx, args)
			if err != nil {
				return script.Null, err
			}
			has, err := world.HasWeapon(player, weapon)
			if err != nil {
				return script.Null, err
			}
			return script.Bool(has), nil
		},
	})
}
