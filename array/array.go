// Package array instantiates a grid of tiles, wires their stream switches
// together and to the host shims, and runs one goroutine per tile.
package array

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/aiesim/cascade"
	"github.com/sarchlab/aiesim/geography"
	"github.com/sarchlab/aiesim/sim/hooking"
	"github.com/sarchlab/aiesim/sim/naming"
	"github.com/sarchlab/aiesim/sim/pipe"
	"github.com/sarchlab/aiesim/streamswitch"
	"github.com/sarchlab/aiesim/tile"
)

// HookPosTileStart marks when the goroutine of a tile is launched. The item
// is the *tile.Tile.
var HookPosTileStart = &hooking.HookPos{Name: "Tile Start"}

// HookPosTileFinish marks when the program of a tile returns. The item is
// the *tile.Tile and the detail is the error of the tile, if any.
var HookPosTileFinish = &hooking.HookPos{Name: "Tile Finish"}

// Array is the whole grid of tiles with its cascade fabric and shims.
type Array struct {
	hooking.HookableBase
	naming.NamedBase

	geo     geography.Geography
	tiles   [][]*tile.Tile
	fabric  *cascade.Fabric
	shims   []*Shim
	factory tile.ProgramFactory
	logger  *slog.Logger

	started  atomic.Bool
	finished sync.WaitGroup
}

// Geography returns the size of the array.
func (a *Array) Geography() geography.Geography {
	return a.geo
}

// Fabric returns the cascade fabric shared by the tiles.
func (a *Array) Fabric() *cascade.Fabric {
	return a.fabric
}

// Tile returns the tile at (x, y).
func (a *Array) Tile(x, y int) *tile.Tile {
	a.geo.CoordinateMustBeValid(x, y)
	return a.tiles[y][x]
}

// Tiles returns all tiles in row-major order.
func (a *Array) Tiles() []*tile.Tile {
	tiles := make([]*tile.Tile, 0, a.geo.NumTiles())
	for _, row := range a.tiles {
		tiles = append(tiles, row...)
	}

	return tiles
}

// NumShims returns the number of shims on the array boundary.
func (a *Array) NumShims() int {
	return len(a.shims)
}

// Shim returns the i-th shim.
func (a *Array) Shim(i int) *Shim {
	if i < 0 || i >= len(a.shims) {
		panic(fmt.Sprintf("array %s: shim %d out of range [0, %d)",
			a.Name(), i, len(a.shims)))
	}

	return a.shims[i]
}

// Shims returns all the shims.
func (a *Array) Shims() []*Shim {
	return append([]*Shim(nil), a.shims...)
}

// Pipes returns every distinct pipe of the array: the switch pipes of each
// tile, the shim pipes and the cascade pipes.
func (a *Array) Pipes() []*pipe.Pipe {
	seen := make(map[*pipe.Pipe]bool)
	pipes := []*pipe.Pipe{}

	add := func(ps []*pipe.Pipe) {
		for _, p := range ps {
			if !seen[p] {
				seen[p] = true
				pipes = append(pipes, p)
			}
		}
	}

	for _, t := range a.Tiles() {
		add(t.Switch().Pipes())
	}

	for _, s := range a.shims {
		add(s.sw.Pipes())
	}

	add(a.fabric.Pipes())

	return pipes
}

// ConnectTiles routes output port srcPort of src to input port dstPort of
// dst.
func (a *Array) ConnectTiles(
	src *tile.Tile, srcPort int,
	dst *tile.Tile, dstPort int,
) {
	a.mustNotHaveStarted()
	streamswitch.Connect(src.Switch().Output(srcPort), dst.Switch().Input(dstPort))
}

// ConnectShimToTile routes output port shimPort of shim to input port
// dstPort of dst. The host feeds the tile through ShimOut.
func (a *Array) ConnectShimToTile(
	shim *Shim, shimPort int,
	dst *tile.Tile, dstPort int,
) {
	a.mustNotHaveStarted()
	streamswitch.Connect(shim.sw.Output(shimPort), dst.Switch().Input(dstPort))
}

// ConnectTileToShim routes output port srcPort of src to input port
// shimPort of shim. The host collects the results through ShimIn.
func (a *Array) ConnectTileToShim(
	src *tile.Tile, srcPort int,
	shim *Shim, shimPort int,
) {
	a.mustNotHaveStarted()
	streamswitch.Connect(src.Switch().Output(srcPort), shim.sw.Input(shimPort))
}

func (a *Array) mustNotHaveStarted() {
	if a.started.Load() {
		panic(fmt.Sprintf("array %s: cannot wire after the array started",
			a.Name()))
	}
}

// IsStarted tells whether Start has been called.
func (a *Array) IsStarted() bool {
	return a.started.Load()
}

// Start seals the wiring, creates the program of every tile and launches one
// goroutine per tile. It returns without waiting for the tiles.
func (a *Array) Start() {
	if !a.started.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("array %s started twice", a.Name()))
	}

	for _, t := range a.Tiles() {
		t.Switch().Seal()
	}

	for _, s := range a.shims {
		s.sw.Seal()
	}

	tiles := a.Tiles()
	programs := make([]tile.Program, len(tiles))

	if a.factory != nil {
		for i, t := range tiles {
			programs[i] = a.factory(t)
		}
	}

	a.logger.Info("array started",
		"geography", a.geo.String(), "tiles", len(tiles))

	a.finished.Add(len(tiles))

	for i, t := range tiles {
		a.InvokeHook(hooking.HookCtx{
			Domain: a,
			Pos:    HookPosTileStart,
			Item:   t,
		})

		t.Start(programs[i])

		go a.watch(t)
	}
}

func (a *Array) watch(t *tile.Tile) {
	defer a.finished.Done()

	err := t.Wait()

	a.InvokeHook(hooking.HookCtx{
		Domain: a,
		Pos:    HookPosTileFinish,
		Item:   t,
		Detail: err,
	})
}

// Wait blocks until every tile program returns. The returned error joins
// the errors of the tiles that ended with a panic.
func (a *Array) Wait() error {
	if !a.started.Load() {
		return nil
	}

	a.finished.Wait()

	var errs []error

	for _, t := range a.Tiles() {
		if err := t.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Error("array finished with failed tiles",
			"failed", len(errs))
	} else {
		a.logger.Info("array finished")
	}

	return err
}

// Run starts the array and waits for all the tiles.
func (a *Array) Run() error {
	a.Start()
	return a.Wait()
}
