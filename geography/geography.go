// Package geography describes the extent of a tile array and the coordinate
// arithmetic shared by the cascade fabric, the tiles and the orchestrator.
//
// Tiles are addressed by (x, y) with x the column and y the row, both
// starting at 0. The cascade chain visits rows in increasing y; even rows
// are walked with increasing x and odd rows with decreasing x.
package geography

import "fmt"

// Geography is the immutable size of a tile array.
type Geography struct {
	XSize int
	YSize int
}

// New creates a geography of xSize columns and ySize rows.
func New(xSize, ySize int) Geography {
	if xSize < 1 || ySize < 1 {
		panic(fmt.Sprintf("geography must have at least one tile, got %dx%d",
			xSize, ySize))
	}

	return Geography{XSize: xSize, YSize: ySize}
}

func (g Geography) String() string {
	return fmt.Sprintf("%dx%d", g.XSize, g.YSize)
}

// XMin returns the smallest column index.
func (g Geography) XMin() int { return 0 }

// YMin returns the smallest row index.
func (g Geography) YMin() int { return 0 }

// XMax returns the largest column index.
func (g Geography) XMax() int { return g.XSize - 1 }

// YMax returns the largest row index.
func (g Geography) YMax() int { return g.YSize - 1 }

// NumTiles returns the number of tiles in the array.
func (g Geography) NumTiles() int {
	return g.XSize * g.YSize
}

// Contains tells whether (x, y) is a tile of the array.
func (g Geography) Contains(x, y int) bool {
	return x >= g.XMin() && x <= g.XMax() && y >= g.YMin() && y <= g.YMax()
}

// CoordinateMustBeValid panics if (x, y) is outside of the array.
func (g Geography) CoordinateMustBeValid(x, y int) {
	if !g.Contains(x, y) {
		panic(fmt.Sprintf("tile (%d, %d) is outside of the %s array",
			x, y, g))
	}
}

// LinearID returns the row-major index of tile (x, y).
func (g Geography) LinearID(x, y int) int {
	return x + g.XSize*y
}

// LinearX returns the column of the tile with row-major index id.
func (g Geography) LinearX(id int) int {
	return id % g.XSize
}

// LinearY returns the row of the tile with row-major index id.
func (g Geography) LinearY(id int) int {
	return id / g.XSize
}

// IsOddRow tells whether the cascade walks row y from right to left.
func (g Geography) IsOddRow(y int) bool {
	return y&1 == 1
}

// CascadeLinearID returns the position of tile (x, y) along the cascade
// chain.
func (g Geography) CascadeLinearID(x, y int) int {
	if g.IsOddRow(y) {
		return g.XSize*y + g.XMax() - x
	}

	return g.XSize*y + x
}

// CascadeLinearX returns the column of the tile at chain position id.
func (g Geography) CascadeLinearX(id int) int {
	x := id % g.XSize
	if g.IsOddRow(g.CascadeLinearY(id)) {
		return g.XMax() - x
	}

	return x
}

// CascadeLinearY returns the row of the tile at chain position id.
func (g Geography) CascadeLinearY(id int) int {
	return id / g.XSize
}

// IsCascadeStart tells whether (x, y) is the first tile of the chain.
func (g Geography) IsCascadeStart(x, y int) bool {
	return x == g.XMin() && y == g.YMin()
}

// IsCascadeEnd tells whether (x, y) is the last tile of the chain. The end
// column depends on the direction of the last row.
func (g Geography) IsCascadeEnd(x, y int) bool {
	endX := g.XMax()
	if g.IsOddRow(g.YMax()) {
		endX = g.XMin()
	}

	return x == endX && y == g.YMax()
}

// CascadeSuccessor returns the tile that follows (x, y) on the chain. It
// reports false for the chain end.
func (g Geography) CascadeSuccessor(x, y int) (int, int, bool) {
	if g.IsCascadeEnd(x, y) {
		return 0, 0, false
	}

	id := g.CascadeLinearID(x, y) + 1

	return g.CascadeLinearX(id), g.CascadeLinearY(id), true
}

// CascadePredecessor returns the tile that precedes (x, y) on the chain. It
// reports false for the chain start.
func (g Geography) CascadePredecessor(x, y int) (int, int, bool) {
	if g.IsCascadeStart(x, y) {
		return 0, 0, false
	}

	id := g.CascadeLinearID(x, y) - 1

	return g.CascadeLinearX(id), g.CascadeLinearY(id), true
}
