// Package tile provides the part common to every tile of the array: its
// coordinates, its stream switch, its view of the cascade fabric and the
// goroutine that runs its program.
//
// A tile program embeds *Tile and defines Run:
//
//	type hello struct {
//		*tile.Tile
//	}
//
//	func (h hello) Run() {
//		v := tile.In[int](h.Tile, 0).ReadBlocking()
//		tile.Out[int](h.Tile, 0).Write(v + 1)
//	}
package tile

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/sarchlab/aiesim/cascade"
	"github.com/sarchlab/aiesim/geography"
	"github.com/sarchlab/aiesim/sim/naming"
	"github.com/sarchlab/aiesim/streamswitch"
)

// Program is the computation a tile runs on its own goroutine.
type Program interface {
	Run()
}

// ProgramFactory creates the program of a tile. It is called once per tile,
// before any tile starts.
type ProgramFactory func(t *Tile) Program

// Tile is one processing element of the array.
type Tile struct {
	naming.NamedBase

	x, y    int
	geo     geography.Geography
	sw      *streamswitch.Switch
	fabric  *cascade.Fabric
	logger  *slog.Logger
	started atomic.Bool
	done    chan struct{}
	err     error
}

// Builder creates tiles.
type Builder struct {
	geo           geography.Geography
	fabric        *cascade.Fabric
	switchBuilder streamswitch.Builder
	logger        *slog.Logger
}

// MakeBuilder creates a builder with a default stream switch.
func MakeBuilder() Builder {
	return Builder{
		switchBuilder: streamswitch.MakeBuilder(),
	}
}

// WithGeography sets the array the tile belongs to.
func (b Builder) WithGeography(g geography.Geography) Builder {
	b.geo = g
	return b
}

// WithCascade sets the cascade fabric shared by the array.
func (b Builder) WithCascade(f *cascade.Fabric) Builder {
	b.fabric = f
	return b
}

// WithSwitchBuilder sets how the stream switch of the tile is built.
func (b Builder) WithSwitchBuilder(sb streamswitch.Builder) Builder {
	b.switchBuilder = sb
	return b
}

// WithLogger sets the logger used for the tile life cycle.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates the tile at (x, y).
func (b Builder) Build(name string, x, y int) *Tile {
	b.geo.CoordinateMustBeValid(x, y)

	if b.fabric != nil && b.fabric.Geography() != b.geo {
		panic(fmt.Sprintf("tile %s: cascade spans a %s array, tile is in a %s array",
			name, b.fabric.Geography(), b.geo))
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Tile{
		NamedBase: naming.MakeNamedBase(name),
		x:         x,
		y:         y,
		geo:       b.geo,
		sw:        b.switchBuilder.Build(naming.BuildName(name, "Switch")),
		fabric:    b.fabric,
		logger:    logger.With("tile", name),
		done:      make(chan struct{}),
	}
}

// X returns the column of the tile.
func (t *Tile) X() int { return t.x }

// Y returns the row of the tile.
func (t *Tile) Y() int { return t.y }

// Geography returns the array the tile belongs to.
func (t *Tile) Geography() geography.Geography { return t.geo }

// Switch returns the stream switch owned by the tile.
func (t *Tile) Switch() *streamswitch.Switch { return t.sw }

// Logger returns the logger of the tile, tagged with its name.
func (t *Tile) Logger() *slog.Logger { return t.logger }

// Cascade returns the cascade fabric shared by the array, or nil.
func (t *Tile) Cascade() *cascade.Fabric { return t.fabric }

// IsCascadeStart tells whether the tile is the first of the cascade chain.
func (t *Tile) IsCascadeStart() bool {
	return t.geo.IsCascadeStart(t.x, t.y)
}

// IsCascadeEnd tells whether the tile is the last of the cascade chain.
func (t *Tile) IsCascadeEnd() bool {
	return t.geo.IsCascadeEnd(t.x, t.y)
}

// CascadeLinearID returns the position of the tile along the cascade chain.
func (t *Tile) CascadeLinearID() int {
	return t.geo.CascadeLinearID(t.x, t.y)
}

// Run does nothing, so that a program that only embeds *Tile is a valid
// program.
func (t *Tile) Run() {}

// Start runs p on a new goroutine. A nil p runs the empty program. A panic
// in p ends the goroutine and is reported by Wait.
func (t *Tile) Start(p Program) {
	if !t.started.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("tile %s started twice", t.Name()))
	}

	if p == nil {
		p = t
	}

	go t.run(p)
}

func (t *Tile) run(p Program) {
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = errors.Errorf("%v", r)
			}

			t.err = errors.Wrapf(err, "tile %s", t.Name())
			t.logger.Error("tile failed",
				"error", err, "stack", string(debug.Stack()))
		}
	}()

	t.logger.Debug("tile started", "x", t.x, "y", t.y)
	p.Run()
	t.logger.Debug("tile finished")
}

// Done is closed when the program of the tile returns.
func (t *Tile) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the program of the tile returns and reports the panic
// that ended it, if any. It returns nil at once if the tile never started.
func (t *Tile) Wait() error {
	if !t.started.Load() {
		return nil
	}

	<-t.done

	return t.err
}
