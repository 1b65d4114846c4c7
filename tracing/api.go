// Package tracing collects the elements that move through the pipes of an
// array.
package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/aiesim/sim/hooking"
	"github.com/sarchlab/aiesim/sim/naming"
	"github.com/sarchlab/aiesim/sim/pipe"
)

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	naming.Named
	hooking.Hookable
}

// TransferTracer is notified of every element pushed into or popped from a
// traced pipe. Methods are called from the goroutine that moved the element.
type TransferTracer interface {
	Push(t pipe.Transfer)
	Pop(t pipe.Transfer)
}

// CollectTransfers lets the tracer observe a pipe.
func CollectTransfers(domain NamedHookable, tracer TransferTracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*transferHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf(
				"domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(&transferHook{t: tracer})
}

// TransferHook returns a hook that forwards pipe events to the tracer, for
// builders that attach hooks to the pipes they create.
func TransferHook(tracer TransferTracer) hooking.Hook {
	return &transferHook{t: tracer}
}

// CollectTransfersOf lets the tracer observe all the given pipes.
func CollectTransfersOf(pipes []*pipe.Pipe, tracer TransferTracer) {
	for _, p := range pipes {
		CollectTransfers(p, tracer)
	}
}

type transferHook struct {
	t TransferTracer
}

// Func forwards the pipe events to the tracer.
func (h *transferHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case pipe.HookPosPipePush:
		h.t.Push(ctx.Item.(pipe.Transfer))
	case pipe.HookPosPipePop:
		h.t.Pop(ctx.Item.(pipe.Transfer))
	}
}
