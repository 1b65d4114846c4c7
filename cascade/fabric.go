// Package cascade models the cascade stream: a dedicated chain of pipes that
// visits every tile of the array once, in serpentine order, bypassing the
// stream switches.
//
// The fabric holds XSize*YSize+1 pipes. Tile (x, y) reads from pipe
// InputIndex(x, y) and writes to pipe InputIndex(x, y)+1, so the output of a
// tile is the input of its successor. The first pipe, read by nobody, and
// the last pipe, written by nobody, are the spare registers at both ends of
// the chain.
package cascade

import (
	"fmt"

	"github.com/sarchlab/aiesim/geography"
	"github.com/sarchlab/aiesim/sim/hooking"
	"github.com/sarchlab/aiesim/sim/naming"
	"github.com/sarchlab/aiesim/sim/pipe"
)

// DefaultCapacity is the number of registers along the cascade data path
// between two tiles.
const DefaultCapacity = 4

// Fabric is the array-wide set of cascade pipes.
type Fabric struct {
	naming.NamedBase

	geo       geography.Geography
	pipes     []*pipe.Pipe
	roleGuard bool
}

// Builder creates fabrics.
type Builder struct {
	geo       geography.Geography
	capacity  int
	roleGuard bool
	hooks     []hooking.Hook
}

// MakeBuilder creates a builder with the default capacity and the role guard
// enabled.
func MakeBuilder() Builder {
	return Builder{
		capacity:  DefaultCapacity,
		roleGuard: true,
	}
}

// WithGeography sets the array the fabric threads through.
func (b Builder) WithGeography(g geography.Geography) Builder {
	b.geo = g
	return b
}

// WithCapacity sets the capacity of each cascade pipe.
func (b Builder) WithCapacity(capacity int) Builder {
	b.capacity = capacity
	return b
}

// WithoutRoleGuard lets the chain start read its input and the chain end
// write its output. Those accesses then hit the spare pipes at the ends of
// the chain instead of panicking.
func (b Builder) WithoutRoleGuard() Builder {
	b.roleGuard = false
	return b
}

// WithHook attaches a hook to every cascade pipe.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

// Build creates the fabric.
func (b Builder) Build(name string) *Fabric {
	if b.geo.NumTiles() == 0 {
		panic(fmt.Sprintf("cascade %s: geography is not set", name))
	}

	f := &Fabric{
		NamedBase: naming.MakeNamedBase(name),
		geo:       b.geo,
		pipes:     make([]*pipe.Pipe, b.geo.NumTiles()+1),
		roleGuard: b.roleGuard,
	}

	for i := range f.pipes {
		p := pipe.MakeBuilder().
			WithCapacity(b.capacity).
			Build(naming.BuildNameWithIndex(name, "Pipe", i))
		for _, h := range b.hooks {
			p.AcceptHook(h)
		}

		f.pipes[i] = p
	}

	return f
}

// Geography returns the array the fabric threads through.
func (f *Fabric) Geography() geography.Geography {
	return f.geo
}

// NumPipes returns the number of pipes, one more than the number of tiles.
func (f *Fabric) NumPipes() int {
	return len(f.pipes)
}

// Pipe returns pipe i of the chain.
func (f *Fabric) Pipe(i int) *pipe.Pipe {
	return f.pipes[i]
}

// Pipes returns all the pipes of the chain, in chain order.
func (f *Fabric) Pipes() []*pipe.Pipe {
	return append([]*pipe.Pipe(nil), f.pipes...)
}

// InputIndex returns the index of the pipe tile (x, y) reads from. On odd
// rows the chain flows from right to left.
func (f *Fabric) InputIndex(x, y int) int {
	if y&1 == 1 {
		return f.geo.XSize*y + f.geo.XMax() - x
	}

	return f.geo.XSize*y + x
}

// OutputIndex returns the index of the pipe tile (x, y) writes to.
func (f *Fabric) OutputIndex(x, y int) int {
	return f.InputIndex(x, y) + 1
}

// InputPipe returns the pipe tile (x, y) reads from.
func (f *Fabric) InputPipe(x, y int) *pipe.Pipe {
	f.geo.CoordinateMustBeValid(x, y)

	if f.roleGuard && f.geo.IsCascadeStart(x, y) {
		panic(fmt.Sprintf(
			"cascade %s: tile (%d, %d) starts the chain and has no cascade input",
			f.Name(), x, y))
	}

	return f.pipes[f.InputIndex(x, y)]
}

// OutputPipe returns the pipe tile (x, y) writes to.
func (f *Fabric) OutputPipe(x, y int) *pipe.Pipe {
	f.geo.CoordinateMustBeValid(x, y)

	if f.roleGuard && f.geo.IsCascadeEnd(x, y) {
		panic(fmt.Sprintf(
			"cascade %s: tile (%d, %d) ends the chain and has no cascade output",
			f.Name(), x, y))
	}

	return f.pipes[f.OutputIndex(x, y)]
}

// In returns the typed cascade input view of tile (x, y).
func In[T any](f *Fabric, x, y int, mode pipe.Mode) pipe.Reader[T] {
	return pipe.NewReader[T](f.InputPipe(x, y), mode)
}

// Out returns the typed cascade output view of tile (x, y).
func Out[T any](f *Fabric, x, y int, mode pipe.Mode) pipe.Writer[T] {
	return pipe.NewWriter[T](f.OutputPipe(x, y), mode)
}
