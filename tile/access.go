package tile

import (
	"github.com/sarchlab/aiesim/cascade"
	"github.com/sarchlab/aiesim/sim/pipe"
	"github.com/sarchlab/aiesim/streamswitch"
)

// In returns a blocking reader on input port of the tile switch.
func In[T any](t *Tile, port int) pipe.Reader[T] {
	return InMode[T](t, port, pipe.Blocking)
}

// InMode returns a reader with the given mode on input port of the tile
// switch.
func InMode[T any](t *Tile, port int, mode pipe.Mode) pipe.Reader[T] {
	return streamswitch.In[T](t.sw.Input(port), mode)
}

// Out returns a blocking writer on output port of the tile switch.
func Out[T any](t *Tile, port int) pipe.Writer[T] {
	return OutMode[T](t, port, pipe.Blocking)
}

// OutMode returns a writer with the given mode on output port of the tile
// switch.
func OutMode[T any](t *Tile, port int, mode pipe.Mode) pipe.Writer[T] {
	return streamswitch.Out[T](t.sw.Output(port), mode)
}

// CascadeIn returns a blocking reader on the cascade input of the tile.
func CascadeIn[T any](t *Tile) pipe.Reader[T] {
	return CascadeInMode[T](t, pipe.Blocking)
}

// CascadeInMode returns a reader with the given mode on the cascade input of
// the tile.
func CascadeInMode[T any](t *Tile, mode pipe.Mode) pipe.Reader[T] {
	fabricMustBeSet(t)
	return cascade.In[T](t.fabric, t.x, t.y, mode)
}

// CascadeOut returns a blocking writer on the cascade output of the tile.
func CascadeOut[T any](t *Tile) pipe.Writer[T] {
	return CascadeOutMode[T](t, pipe.Blocking)
}

// CascadeOutMode returns a writer with the given mode on the cascade output
// of the tile.
func CascadeOutMode[T any](t *Tile, mode pipe.Mode) pipe.Writer[T] {
	fabricMustBeSet(t)
	return cascade.Out[T](t.fabric, t.x, t.y, mode)
}

func fabricMustBeSet(t *Tile) {
	if t.fabric == nil {
		panic("tile " + t.Name() + " is not connected to a cascade fabric")
	}
}
