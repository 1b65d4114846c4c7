package streamswitch

import (
	"fmt"

	"github.com/sarchlab/aiesim/sim/pipe"
)

// Connect routes output port src to input port dst. Both ports then share
// the pipe of src, so that what the owner of src writes is what the owner of
// dst reads.
func Connect(src, dst *Port) {
	portMustHaveDirection(src, Output)
	portMustHaveDirection(dst, Input)
	switchMustNotBeSealed(src.sw)
	switchMustNotBeSealed(dst.sw)
	portMustNotBeConnected(src)
	portMustNotBeConnected(dst)

	dst.pipe = src.pipe
	src.connected = true
	dst.connected = true
}

func portMustHaveDirection(p *Port, d Direction) {
	if p == nil {
		panic("streamswitch: nil port")
	}

	if p.direction != d {
		panic(fmt.Sprintf("streamswitch: port %s is not an %s port",
			p.Name(), d))
	}
}

func switchMustNotBeSealed(s *Switch) {
	if s.IsSealed() {
		panic(fmt.Sprintf(
			"streamswitch: cannot connect %s after the array started", s.Name()))
	}
}

func portMustNotBeConnected(p *Port) {
	if p.connected {
		panic(fmt.Sprintf("streamswitch: port %s is already connected",
			p.Name()))
	}
}

// In returns a typed read handle on input port p.
func In[T any](p *Port, mode pipe.Mode) pipe.Reader[T] {
	portMustHaveDirection(p, Input)
	return pipe.NewReader[T](p.pipe, mode)
}

// Out returns a typed write handle on output port p.
func Out[T any](p *Port, mode pipe.Mode) pipe.Writer[T] {
	portMustHaveDirection(p, Output)
	return pipe.NewWriter[T](p.pipe, mode)
}
