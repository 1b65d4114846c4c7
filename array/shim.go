package array

import (
	"github.com/sarchlab/aiesim/sim/naming"
	"github.com/sarchlab/aiesim/sim/pipe"
	"github.com/sarchlab/aiesim/streamswitch"
)

// A Shim is the interface between the array and the host. The host writes
// into the array through the shim output ports and reads results from the
// shim input ports.
type Shim struct {
	naming.NamedBase

	index int
	sw    *streamswitch.Switch
}

// Index returns the position of the shim along the array boundary.
func (s *Shim) Index() int {
	return s.index
}

// Switch returns the ports of the shim.
func (s *Shim) Switch() *streamswitch.Switch {
	return s.sw
}

// ShimOut returns a blocking writer that sends data from the host into the
// array through output port of the shim.
func ShimOut[T any](s *Shim, port int) pipe.Writer[T] {
	return ShimOutMode[T](s, port, pipe.Blocking)
}

// ShimOutMode is ShimOut with an explicit access mode.
func ShimOutMode[T any](s *Shim, port int, mode pipe.Mode) pipe.Writer[T] {
	return streamswitch.Out[T](s.sw.Output(port), mode)
}

// ShimIn returns a blocking reader that receives data from the array
// through input port of the shim.
func ShimIn[T any](s *Shim, port int) pipe.Reader[T] {
	return ShimInMode[T](s, port, pipe.Blocking)
}

// ShimInMode is ShimIn with an explicit access mode.
func ShimInMode[T any](s *Shim, port int, mode pipe.Mode) pipe.Reader[T] {
	return streamswitch.In[T](s.sw.Input(port), mode)
}
