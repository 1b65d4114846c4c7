// Package streamswitch models the per-tile stream switch: a fixed set of
// input and output ports, each backed by a pipe, accessed with a type and an
// access mode chosen at the point of use.
//
// The switch does not route. Routes are set up before the array runs by
// connecting an output port to an input port, which makes both ends share
// one pipe.
package streamswitch

import (
	"fmt"
	"sync/atomic"

	"github.com/sarchlab/aiesim/sim/hooking"
	"github.com/sarchlab/aiesim/sim/naming"
	"github.com/sarchlab/aiesim/sim/pipe"
)

// DefaultNumPorts is the number of core-facing stream ports per direction
// of an AI Engine tile.
const DefaultNumPorts = 2

// Direction tells whether a port receives or sends data.
type Direction int

const (
	// Input ports are read by the tile.
	Input Direction = iota
	// Output ports are written by the tile.
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "In"
	}

	return "Out"
}

// A Port is one endpoint of a switch.
type Port struct {
	naming.NamedBase

	sw        *Switch
	direction Direction
	index     int
	pipe      *pipe.Pipe
	connected bool
}

// Switch returns the switch that owns the port.
func (p *Port) Switch() *Switch {
	return p.sw
}

// Direction returns whether the port is an input or an output.
func (p *Port) Direction() Direction {
	return p.direction
}

// Index returns the index of the port within its direction.
func (p *Port) Index() int {
	return p.index
}

// Pipe returns the pipe the port is bound to.
func (p *Port) Pipe() *pipe.Pipe {
	return p.pipe
}

// IsConnected tells whether the port has been connected to another port.
func (p *Port) IsConnected() bool {
	return p.connected
}

// Switch holds the ports of one tile or of one shim.
type Switch struct {
	naming.NamedBase

	inputs  []*Port
	outputs []*Port
	sealed  atomic.Bool
}

// Builder creates switches.
type Builder struct {
	numInputs  int
	numOutputs int
	capacity   int
	hooks      []hooking.Hook
}

// MakeBuilder creates a builder with the default port counts and a pipe
// capacity of 4.
func MakeBuilder() Builder {
	return Builder{
		numInputs:  DefaultNumPorts,
		numOutputs: DefaultNumPorts,
		capacity:   4,
	}
}

// WithNumInputs sets the number of input ports.
func (b Builder) WithNumInputs(n int) Builder {
	b.numInputs = n
	return b
}

// WithNumOutputs sets the number of output ports.
func (b Builder) WithNumOutputs(n int) Builder {
	b.numOutputs = n
	return b
}

// WithCapacity sets the capacity of the pipe behind each port.
func (b Builder) WithCapacity(capacity int) Builder {
	b.capacity = capacity
	return b
}

// WithHook attaches a hook to the pipe of every port.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

// Build creates a switch.
func (b Builder) Build(name string) *Switch {
	if b.numInputs < 0 || b.numOutputs < 0 {
		panic(fmt.Sprintf("switch %s: negative port count", name))
	}

	s := &Switch{NamedBase: naming.MakeNamedBase(name)}

	s.inputs = b.buildPorts(s, Input, b.numInputs)
	s.outputs = b.buildPorts(s, Output, b.numOutputs)

	return s
}

func (b Builder) buildPorts(s *Switch, d Direction, n int) []*Port {
	ports := make([]*Port, n)

	for i := range ports {
		portName := naming.BuildNameWithIndex(s.Name(), d.String(), i)

		p := pipe.MakeBuilder().WithCapacity(b.capacity).Build(portName)
		for _, h := range b.hooks {
			p.AcceptHook(h)
		}

		ports[i] = &Port{
			NamedBase: naming.MakeNamedBase(portName),
			sw:        s,
			direction: d,
			index:     i,
			pipe:      p,
		}
	}

	return ports
}

// NumInputs returns the number of input ports.
func (s *Switch) NumInputs() int {
	return len(s.inputs)
}

// NumOutputs returns the number of output ports.
func (s *Switch) NumOutputs() int {
	return len(s.outputs)
}

// Input returns input port i. An index out of range is a configuration error
// and panics.
func (s *Switch) Input(i int) *Port {
	if i < 0 || i >= len(s.inputs) {
		panic(fmt.Sprintf("streamswitch: input port %d of %s out of range [0, %d)",
			i, s.Name(), len(s.inputs)))
	}

	return s.inputs[i]
}

// Output returns output port i. An index out of range is a configuration
// error and panics.
func (s *Switch) Output(i int) *Port {
	if i < 0 || i >= len(s.outputs) {
		panic(fmt.Sprintf("streamswitch: output port %d of %s out of range [0, %d)",
			i, s.Name(), len(s.outputs)))
	}

	return s.outputs[i]
}

// Inputs returns all the input ports.
func (s *Switch) Inputs() []*Port {
	return append([]*Port(nil), s.inputs...)
}

// Outputs returns all the output ports.
func (s *Switch) Outputs() []*Port {
	return append([]*Port(nil), s.outputs...)
}

// Pipes returns the distinct pipes reachable from the switch ports.
func (s *Switch) Pipes() []*pipe.Pipe {
	seen := make(map[*pipe.Pipe]bool)
	pipes := make([]*pipe.Pipe, 0, len(s.inputs)+len(s.outputs))

	for _, ports := range [][]*Port{s.inputs, s.outputs} {
		for _, p := range ports {
			if !seen[p.pipe] {
				seen[p.pipe] = true
				pipes = append(pipes, p.pipe)
			}
		}
	}

	return pipes
}

// Seal forbids any further connection. The orchestrator seals every switch
// before the tile goroutines start.
func (s *Switch) Seal() {
	s.sealed.Store(true)
}

// IsSealed tells whether the switch still accepts connections.
func (s *Switch) IsSealed() bool {
	return s.sealed.Load()
}
