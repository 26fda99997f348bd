package engine

import (
	"github.com/torchlight/gserver/gs1"
	"github.com/torchlight/gserver/pkg/bytecode"
	"github.com/torchlight/gserver/script"
)

// gs1Bound adapts a parsed GS1 script to the dispatcher. GS1 has no
// init body; Created is an ordinary event.
type gs1Bound struct {
	script *gs1.Script
	interp *gs1.Interpreter
}

func (b *gs1Bound) HandlesEvent(event script.Event) bool {
	return b.script.HandlesEvent(event)
}

func (b *gs1Bound) RunInit(ctx *script.Context) error {
	return nil
}

func (b *gs1Bound) RunEvent(ctx *script.Context, event script.Event) (bool, error) {
	return b.interp.RunEvent(ctx, b.script, event)
}

// gs2Bound adapts a compiled GS2 program. The VM is owned by this one
// binding; dispatcher serialization per owner keeps it single-threaded.
type gs2Bound struct {
	prog *bytecode.Program
	vm   *bytecode.VM
}

func (b *gs2Bound) HandlesEvent(event script.Event) bool {
	return b.prog.HandlesEvent(event)
}

func (b *gs2Bound) RunInit(ctx *script.Context) error {
	return b.vm.RunInit(ctx)
}

func (b *gs2Bound) RunEvent(ctx *script.Context, event script.Event) (bool, error) {
	return b.vm.RunHandler(ctx, event)
}
