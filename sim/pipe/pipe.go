// Package pipe provides the bounded FIFO that backs every stream switch port
// and every cascade link.
//
// A Pipe stores untyped elements. Typed access goes through Reader and Writer
// handles, which also carry the access mode. Blocking handles suspend the
// calling goroutine until the operation can complete; non-blocking handles
// report a not-ready result instead.
package pipe

import (
	"fmt"
	"sync/atomic"

	"github.com/sarchlab/aiesim/sim/hooking"
	"github.com/sarchlab/aiesim/sim/naming"
)

// HookPosPipePush marks when an element is appended to a pipe. The hook runs
// on the writer goroutine after the element is in the pipe, so the reader
// may pop it, and run the HookPosPipePop hooks, first.
var HookPosPipePush = &hooking.HookPos{Name: "Pipe Push"}

// HookPosPipePop marks when an element is removed from a pipe.
var HookPosPipePop = &hooking.HookPos{Name: "Pipe Pop"}

// Transfer is the hook item of HookPosPipePush and HookPosPipePop.
type Transfer struct {
	// Seq is the 1-based position of the element in the pipe's write order.
	Seq   uint64
	Pipe  string
	Value any
}

// A Pipe is a bounded, ordered, single-producer single-consumer queue.
type Pipe struct {
	hooking.HookableBase
	naming.NamedBase

	elements chan any
	pushed   atomic.Uint64
	popped   atomic.Uint64
}

// Builder creates pipes.
type Builder struct {
	capacity int
}

// MakeBuilder creates a builder with a capacity of 4 elements.
func MakeBuilder() Builder {
	return Builder{capacity: 4}
}

// WithCapacity sets the number of elements the pipe holds before writers
// block.
func (b Builder) WithCapacity(capacity int) Builder {
	b.capacity = capacity
	return b
}

// Build creates a pipe.
func (b Builder) Build(name string) *Pipe {
	if b.capacity < 1 {
		panic(fmt.Sprintf("pipe %s: capacity must be positive, got %d",
			name, b.capacity))
	}

	return &Pipe{
		NamedBase: naming.MakeNamedBase(name),
		elements:  make(chan any, b.capacity),
	}
}

// Capacity returns the maximum number of elements the pipe holds.
func (p *Pipe) Capacity() int {
	return cap(p.elements)
}

// Size returns the number of elements currently in the pipe. The value may
// be stale by the time the caller looks at it.
func (p *Pipe) Size() int {
	return len(p.elements)
}

// NumPushed returns the number of elements written so far.
func (p *Pipe) NumPushed() uint64 {
	return p.pushed.Load()
}

// NumPopped returns the number of elements read so far.
func (p *Pipe) NumPopped() uint64 {
	return p.popped.Load()
}

// TryRead removes and returns the oldest element. It returns false without
// waiting if the pipe is empty.
func (p *Pipe) TryRead() (any, bool) {
	select {
	case e := <-p.elements:
		p.afterPop(e)
		return e, true
	default:
		return nil, false
	}
}

// ReadBlocking waits until an element is available, then removes and
// returns the oldest one.
func (p *Pipe) ReadBlocking() any {
	e := <-p.elements
	p.afterPop(e)

	return e
}

// TryWrite appends e. It returns false without waiting if the pipe is full.
func (p *Pipe) TryWrite(e any) bool {
	select {
	case p.elements <- e:
		p.afterPush(e)
		return true
	default:
		return false
	}
}

// WriteBlocking waits until there is room, then appends e.
func (p *Pipe) WriteBlocking(e any) {
	p.elements <- e
	p.afterPush(e)
}

func (p *Pipe) afterPush(e any) {
	seq := p.pushed.Add(1)

	if p.NumHooks() > 0 {
		p.InvokeHook(hooking.HookCtx{
			Domain: p,
			Pos:    HookPosPipePush,
			Item:   Transfer{Seq: seq, Pipe: p.Name(), Value: e},
		})
	}
}

func (p *Pipe) afterPop(e any) {
	seq := p.popped.Add(1)

	if p.NumHooks() > 0 {
		p.InvokeHook(hooking.HookCtx{
			Domain: p,
			Pos:    HookPosPipePop,
			Item:   Transfer{Seq: seq, Pipe: p.Name(), Value: e},
		})
	}
}
