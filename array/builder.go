package array

import (
	"log/slog"

	"github.com/sarchlab/aiesim/cascade"
	"github.com/sarchlab/aiesim/geography"
	"github.com/sarchlab/aiesim/sim/hooking"
	"github.com/sarchlab/aiesim/sim/naming"
	"github.com/sarchlab/aiesim/streamswitch"
	"github.com/sarchlab/aiesim/tile"
)

// Builder creates arrays.
type Builder struct {
	geo             geography.Geography
	numInputs       int
	numOutputs      int
	pipeCapacity    int
	cascadeCapacity int
	numShims        int
	roleGuard       bool
	factory         tile.ProgramFactory
	pipeHooks       []hooking.Hook
	logger          *slog.Logger
}

// MakeBuilder creates a builder with the default switch and cascade
// parameters. The geography must be set before building.
func MakeBuilder() Builder {
	return Builder{
		numInputs:       streamswitch.DefaultNumPorts,
		numOutputs:      streamswitch.DefaultNumPorts,
		pipeCapacity:    4,
		cascadeCapacity: cascade.DefaultCapacity,
		numShims:        -1,
		roleGuard:       true,
	}
}

// WithGeography sets the size of the array.
func (b Builder) WithGeography(g geography.Geography) Builder {
	b.geo = g
	return b
}

// WithSwitchPorts sets the number of input and output ports of every tile
// switch.
func (b Builder) WithSwitchPorts(numInputs, numOutputs int) Builder {
	b.numInputs = numInputs
	b.numOutputs = numOutputs
	return b
}

// WithPipeCapacity sets the capacity of switch and shim pipes.
func (b Builder) WithPipeCapacity(capacity int) Builder {
	b.pipeCapacity = capacity
	return b
}

// WithCascadeCapacity sets the capacity of the cascade pipes.
func (b Builder) WithCascadeCapacity(capacity int) Builder {
	b.cascadeCapacity = capacity
	return b
}

// WithShims sets the number of shims on the array boundary. By default there
// is one shim per column.
func (b Builder) WithShims(n int) Builder {
	b.numShims = n
	return b
}

// WithoutCascadeRoleGuard lets the ends of the cascade chain reach the spare
// pipes instead of panicking.
func (b Builder) WithoutCascadeRoleGuard() Builder {
	b.roleGuard = false
	return b
}

// WithProgram sets the factory that creates the program of each tile. Tiles
// without a factory run the empty program.
func (b Builder) WithProgram(factory tile.ProgramFactory) Builder {
	b.factory = factory
	return b
}

// WithHook attaches a hook to every pipe of the array.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.pipeHooks = append(b.pipeHooks[:len(b.pipeHooks):len(b.pipeHooks)], hook)
	return b
}

// WithLogger sets the logger of the array and its tiles.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates the tiles, their switches, the shims and the cascade fabric.
// Nothing runs until Start.
func (b Builder) Build(name string) *Array {
	if b.geo.NumTiles() == 0 {
		panic("array " + name + ": geography is not set")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Array{
		NamedBase: naming.MakeNamedBase(name),
		geo:       b.geo,
		factory:   b.factory,
		logger:    logger.With("array", name),
	}

	a.fabric = b.buildFabric(name)
	a.tiles = b.buildTiles(name, a.fabric, logger)
	a.shims = b.buildShims(name)

	return a
}

func (b Builder) buildFabric(name string) *cascade.Fabric {
	fb := cascade.MakeBuilder().
		WithGeography(b.geo).
		WithCapacity(b.cascadeCapacity)

	if !b.roleGuard {
		fb = fb.WithoutRoleGuard()
	}

	for _, h := range b.pipeHooks {
		fb = fb.WithHook(h)
	}

	return fb.Build(naming.BuildName(name, "Cascade"))
}

func (b Builder) switchBuilder() streamswitch.Builder {
	sb := streamswitch.MakeBuilder().
		WithNumInputs(b.numInputs).
		WithNumOutputs(b.numOutputs).
		WithCapacity(b.pipeCapacity)

	for _, h := range b.pipeHooks {
		sb = sb.WithHook(h)
	}

	return sb
}

func (b Builder) buildTiles(
	name string,
	fabric *cascade.Fabric,
	logger *slog.Logger,
) [][]*tile.Tile {
	tb := tile.MakeBuilder().
		WithGeography(b.geo).
		WithCascade(fabric).
		WithSwitchBuilder(b.switchBuilder()).
		WithLogger(logger)

	tiles := make([][]*tile.Tile, b.geo.YSize)
	for y := range tiles {
		tiles[y] = make([]*tile.Tile, b.geo.XSize)

		for x := range tiles[y] {
			tileName := naming.BuildNameWithMultiDimensionalIndex(
				name, "Tile", x, y)
			tiles[y][x] = tb.Build(tileName, x, y)
		}
	}

	return tiles
}

func (b Builder) buildShims(name string) []*Shim {
	n := b.numShims
	if n < 0 {
		n = b.geo.XSize
	}

	sb := b.switchBuilder()
	shims := make([]*Shim, n)

	for i := range shims {
		shimName := naming.BuildNameWithIndex(name, "Shim", i)
		shims[i] = &Shim{
			NamedBase: naming.MakeNamedBase(shimName),
			index:     i,
			sw:        sb.Build(naming.BuildName(shimName, "Switch")),
		}
	}

	return shims
}
