// Package builtins provides the builtin function registry shared by the
// GS1 interpreter and the GS2 VM. Builtins are pure functions of the
// script context plus a World that reaches the surrounding game server.
package builtins

import (
	"sort"

	"github.com/torchlight/gserver/script"
)

// Func is the implementation of one builtin.
type Func func(ctx *script.Context, args []script.Value) (script.Value, error)

// Builtin is one registry entry. Signature and Doc feed the editor
// tooling (completion and hover).
type Builtin struct {
	Name      string
	Signature string
	Doc       string
	Fn        Func
}

// Registry holds the builtin table. Indices are stable for the lifetime
// of the registry, so compiled programs may embed them. All names are
// registered lowercase; callers lowercase before lookup (the GS1
// interpreter lowercases verbs as it parses).
type Registry struct {
	list   []Builtin
	byName map[string]int
}

// NewRegistry builds the full builtin table against the given world.
func NewRegistry(world World) *Registry {
	r := &Registry{byName: make(map[string]int)}

	registerMath(r)
	registerString(r)
	registerArray(r)
	registerMisc(r)
	registerPlayer(r, world)
	registerNPC(r, world)
	registerLevel(r, world)
	registerWeapon(r, world)
	registerProps(r, world)

	// Names legacy scripts used before the canonical ones settled.
	r.alias("echo", "showtext")
	r.alias("message", "showtext")
	r.alias("say", "broadcast")
	r.alias("strlen", "length")
	r.alias("substr", "substring")
	r.alias("rand", "random")

	return r
}

// register adds one builtin. Registration order defines indices, so the
// group registration order above must stay stable.
func (r *Registry) register(b Builtin) {
	if _, exists := r.byName[b.Name]; exists {
		panic("builtin registered twice: " + b.Name)
	}
	r.byName[b.Name] = len(r.list)
	r.list = append(r.list, b)
}

// alias registers an existing builtin under a second name.
func (r *Registry) alias(name, target string) {
	idx, ok := r.byName[target]
	if !ok {
		panic("alias target missing: " + target)
	}
	b := r.list[idx]
	r.register(Builtin{
		Name:      name,
		Signature: name + b.Signature[len(b.Name):],
		Doc:       "Alias of " + target + ". " + b.Doc,
		Fn:        b.Fn,
	})
}

// Resolve returns the index of a builtin by name.
func (r *Registry) Resolve(name string) (int, bool) {
	idx, ok := r.byName[name]
	return idx, ok
}

// ResolveBuiltin implements the compile-time resolver used by the GS2
// code generator.
func (r *Registry) ResolveBuiltin(name string) (int, bool) {
	return r.Resolve(name)
}

// Call invokes the builtin at the given index.
func (r *Registry) Call(ctx *script.Context, index int, args []script.Value) (script.Value, error) {
	if index < 0 || index >= len(r.list) {
		return script.Null, &script.InvalidCallError{Message: "builtin index out of range"}
	}
	return r.list[index].Fn(ctx, args)
}

// CallByName invokes a builtin by name; the GS1 interpreter resolves
// verbs this way.
func (r *Registry) CallByName(ctx *script.Context, name string, args []script.Value) (script.Value, error) {
	idx, ok := r.byName[name]
	if !ok {
		return script.Null, &script.InvalidCallError{Target: name, Message: "unknown builtin"}
	}
	return r.list[idx].Fn(ctx, args)
}

// Get returns the builtin at an index.
func (r *Registry) Get(index int) (Builtin, bool) {
	if index < 0 || index >= len(r.list) {
		return Builtin{}, false
	}
	return r.list[index], true
}

// Lookup returns a builtin by name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return Builtin{}, false
	}
	return r.list[idx], true
}

// Len returns the number of registered builtins.
func (r *Registry) Len() int {
	return len(r.list)
}

// Names returns all builtin names, sorted. Used by completion.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.list))
	for _, b := range r.list {
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

// needArgs fails unless exactly n arguments were passed.
func needArgs(name string, args []script.Value, n int) error {
	if len(args) != n {
		return &script.InvalidCallError{Target: name, Message: "wrong argument count"}
	}
	return nil
}

// needArgsRange fails unless between lo and hi arguments were passed.
func needArgsRange(name string, args []script.Value, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		return &script.InvalidCallError{Target: name, Message: "wrong argument count"}
	}
	return nil
}

// numArg coerces argument i to a number.
func numArg(name string, args []script.Value, i int) (float64, error) {
	n, err := args[i].ToNumber()
	if err != nil {
		return 0, &script.InvalidCallError{Target: name, Message: err.Error()}
	}
	return n, nil
}

// refArg requires argument i to be an object handle.
func refArg(name string, args []script.Value, i int) (script.ObjectRef, error) {
	if args[i].Kind != script.KindObject {
		return script.ObjectRef{}, &script.InvalidCallError{Target: name, Message: "argument is not an object"}
	}
	return args[i].Ref(), nil
}

// currentPlayer returns the player the current event concerns.
func currentPlayer(name string, ctx *script.Context) (script.ObjectRef, error) {
	p, ok := ctx.Player()
	if !ok {
		return script.ObjectRef{}, &script.InvalidCallError{Target: name, Message: "no player in this event"}
	}
	return p, nil
}

// currentLevel returns the level the context runs in.
func currentLevel(name string, ctx *script.Context) (script.ObjectRef, error) {
	l, ok := ctx.Level()
	if !ok {
		return script.ObjectRef{}, &script.InvalidCallError{Target: name, Message: "no level attached"}
	}
	return l, nil
}
