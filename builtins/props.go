package builtins

import "github.com/torchlight/gserver/script"

// Entity property names exposed as dedicated accessor builtins. Legacy
// scripts address properties positionally by verb (playerx, setplayerhp)
// rather than through a generic property call, so each name gets a
// getter/setter pair backed by the EntityAccessor.
var playerProps = []string{
	"x", "y", "z", "dir", "nick", "account", "hp", "maxhp", "magic",
	"ap", "rupees", "bombs", "arrows", "darts", "glovepower",
	"swordpower", "shieldpower", "head", "body", "sword", "shield",
	"colors", "ani", "horse", "carrying", "guild", "language", "id",
	"online", "chat", "status", "bow",
}

var npcProps = []string{
	"x", "y", "dir", "image", "name", "visible", "hp", "ani",
	"message", "save", "level", "type",
}

var levelProps = []string{
	"name", "width", "height",
}

// registerProps adds the per-property accessor builtins.
func registerProps(r *Registry, world World) {
	for _, prop := range playerProps {
		registerPlayerAccessor(r, world, prop)
	}
	for _, prop := range npcProps {
		registerNPCAccessor(r, world, prop)
	}
	for _, prop := range levelProps {
		registerLevelAccessor(r, world, prop)
	}
}

// registerPlayerAccessor adds player<prop> / setplayer<prop>. Both
// default to the event's player when no handle is given.
func registerPlayerAccessor(r *Registry, world World, prop string) {
	getName := "player" + prop
	r.register(Builtin{
		Name:      getName,
		Signature: getName + "() / " + getName + "(player)",
		Doc:       "Read the " + prop + " property of a player.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgsRange(getName, args, 0, 1); err != nil {
				return script.Null, err
			}
			player, err := optionalPlayer(getName, ctx, args)
			if err != nil {
				return script.Null, err
			}
			return world.GetProperty(player, prop)
		},
	})

	setName := "setplayer" + prop
	r.register(Builtin{
		Name:      setName,
		Signature: setName + "(value) / " + setName + "(player, value)",
		Doc:       "Write the " + prop + " property of a player.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgsRange(setName, args, 1, 2); err != nil {
				return script.Null, err
			}
			player, err := optionalPlayer(setName, ctx, args[:len(args)-1])
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.SetProperty(player, prop, args[len(args)-1])
		},
	})
}

// registerNPCAccessor adds npc<prop>(npc) / setnpc<prop>(npc, value).
// NPC accessors always take an explicit handle.
func registerNPCAccessor(r *Registry, world World, prop string) {
	getName := "npc" + prop
	r.register(Builtin{
		Name:      getName,
		Signature: getName + "(npc)",
		Doc:       "Read the " + prop + " property of an NPC.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs(getName, args, 1); err != nil {
				return script.Null, err
			}
			npc, err := refArg(getName, args, 0)
			if err != nil {
				return script.Null, err
			}
			return world.GetProperty(npc, prop)
		},
	})

	setName := "setnpc" + prop
	r.register(Builtin{
		Name:      setName,
		Signature: setName + "(npc, value)",
		Doc:       "Write the " + prop + " property of an NPC.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs(setName, args, 2); err != nil {
				return script.Null, err
			}
			npc, err := refArg(setName, args, 0)
			if err != nil {
				return script.Null, err
			}
			return script.Null, world.SetProperty(npc, prop, args[1])
		},
	})
}

// registerLevelAccessor adds level<prop>() reading from the context's
// level. Level properties are read-only.
func registerLevelAccessor(r *Registry, world World, prop string) {
	getName := "level" + prop
	r.register(Builtin{
		Name:      getName,
		Signature: getName + "()",
		Doc:       "Read the " + prop + " property of the current level.",
		Fn: func(ctx *script.Context, args []script.Value) (script.Value, error) {
			if err := needArgs(getName, args, 0); err != nil {
				return script.Null, err
			}
			level, err := currentLevel(getName, ctx)
			if err != nil {
				return script.Null, err
			}
			return world.GetProperty(level, prop)
		},
	})
}

// optionalPlayer resolves a leading player-handle argument, falling
// back to the event's player when the slice is empty.
func optionalPlayer(name string, ctx *script.Context, args []script.Value) (script.ObjectRef, error) {
	if len(args) == 0 {
		return currentPlayer(name, ctx)
	}
	return refArg(name, args, 0)
}
