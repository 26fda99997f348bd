package builtins

import (
	"github.com/torchlight/gserver/pkg/bytecode"
	"github.com/torchlight/gserver/script"
)

// Host bridges the GS2 VM to the builtin registry and the world. It
// implements the VM's host interface: builtin dispatch plus dynamic
// method and member access on values.
type Host struct {
	registry *Registry
	world    World
}

var _ bytecode.Host = (*Host)(nil)

// NewHost wires a registry and a world into a VM host.
func NewHost(registry *Registry, world World) *Host {
	return &Host{registry: registry, world: world}
}

// Registry exposes the underlying builtin table.
func (h *Host) Registry() *Registry {
	return h.registry
}

// CallBuiltin invokes the builtin at a compile-time-resolved index.
func (h *Host) CallBuiltin(ctx *script.Context, index int, args []script.Value) (script.Value, error) {
	return h.registry.Call(ctx, index, args)
}

// CallMethod dispatches a dynamic method call on a receiver value.
// Arrays support size(); object handles fall back to world-backed
// builtins where one matches the method name.
func (h *Host) CallMethod(ctx *script.Context, recv script.Value, name string, args []script.Value) (script.Value, error) {
	switch recv.Kind {
	case script.KindArray:
		if name == "size" && len(args) == 0 {
			return script.Number(float64(len(recv.Elems()))), nil
		}
	case script.KindString:
		if name == "length" && len(args) == 0 {
			return script.Number(float64(len(recv.Str()))), nil
		}
	case script.KindObject:
		switch name {
		case "show":
			if err := needArgs("show", args, 1); err != nil {
				return script.Null, err
			}
			return script.Null, h.world.SendToPlayer(recv.Ref(), args[0].ToString())
		case "get":
			if err := needArgs("get", args, 1); err != nil {
				return script.Null, err
			}
			return h.world.GetProperty(recv.Ref(), args[0].ToString())
		case "set":
			if err := needArgs("set", args, 2); err != nil {
				return script.Null, err
			}
			return script.Null, h.world.SetProperty(recv.Ref(), args[0].ToString(), args[1])
		}
	}
	return script.Null, &script.InvalidCallError{Target: name, Message: "no such method on " + recv.Kind.String()}
}

// GetMember reads a named member. Arrays and strings expose length;
// object handle members read entity properties through the world.
func (h *Host) GetMember(ctx *script.Context, recv script.Value, name string) (script.Value, error) {
	switch recv.Kind {
	case script.KindArray:
		if name == "length" {
			return script.Number(float64(len(recv.Elems()))), nil
		}
	case script.KindString:
		if name == "length" {
			return script.Number(float64(len(recv.Str()))), nil
		}
	case script.KindObject:
		return h.world.GetProperty(recv.Ref(), name)
	}
	return script.Null, script.NewRuntimeError("no member %q on %s", name, recv.Kind)
}

// SetMember writes a named member. Only object handle properties are
// assignable.
func (h *Host) SetMember(ctx *script.Context, recv script.Value, name string, v script.Value) error {
	if recv.Kind == script.KindObject {
		return h.world.SetProperty(recv.Ref(), name, v)
	}
	return script.NewRuntimeError("cannot assign member %q on %s", name, recv.Kind)
}
