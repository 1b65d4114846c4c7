// Package graphics renders per-tile data snapshots as a grid of grey
// images, one framed image per tile, laid out like the array with row 0 at
// the bottom.
package graphics

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	"github.com/sarchlab/aiesim/geography"
)

// FrameColor is the color of the lines separating the tile images.
var FrameColor = color.Gray{Y: 0x80}

// ImageGrid keeps one image per tile. Updates are queued by the tile
// goroutines and applied by a goroutine owned by the grid.
type ImageGrid struct {
	geo    geography.Geography
	imageX int
	imageY int
	zoom   int

	work      chan func()
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	lock   sync.RWMutex
	images []*image.Gray
}

// NewImageGrid creates a grid of tile images of imageX by imageY data
// points, each point drawn as a zoom by zoom square.
func NewImageGrid(
	geo geography.Geography,
	imageX, imageY, zoom int,
) *ImageGrid {
	if imageX < 1 || imageY < 1 || zoom < 1 {
		panic(fmt.Sprintf("invalid image grid %dx%d zoom %d",
			imageX, imageY, zoom))
	}

	g := &ImageGrid{
		geo:     geo,
		imageX:  imageX,
		imageY:  imageY,
		zoom:    zoom,
		work:    make(chan func()),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		images:  make([]*image.Gray, geo.NumTiles()),
	}

	for i := range g.images {
		g.images[i] = image.NewGray(image.Rect(0, 0, imageX, imageY))
	}

	go g.loop()

	return g
}

func (g *ImageGrid) loop() {
	defer close(g.stopped)

	for {
		select {
		case f := <-g.work:
			f()
		case <-g.done:
			return
		}
	}
}

// submit hands f to the grid goroutine. It waits until the goroutine takes
// it and drops f once the grid is closed.
func (g *ImageGrid) submit(f func()) bool {
	select {
	case g.work <- f:
		return true
	case <-g.done:
		return false
	}
}

// GreyLevel maps v in [minValue, maxValue] to a grey level. Values outside
// of the range saturate.
func GreyLevel(v, minValue, maxValue float64) uint8 {
	if maxValue <= minValue {
		return 0
	}

	l := (v - minValue) * 255 / (maxValue - minValue)

	switch {
	case l <= 0:
		return 0
	case l >= 255:
		return 255
	default:
		return uint8(l)
	}
}

// UpdateTileDataImage replaces the image of tile (x, y) with data, indexed
// as data[row][column]. Only the part of data that fits in the tile image is
// drawn. Row 0 of data is drawn at the bottom of the image. The call returns
// once the grid goroutine accepted the update, or at once if the grid is
// closed.
func (g *ImageGrid) UpdateTileDataImage(
	x, y int,
	data [][]float64,
	minValue, maxValue float64,
) {
	g.geo.CoordinateMustBeValid(x, y)

	img := image.NewGray(image.Rect(0, 0, g.imageX, g.imageY))

	for j := 0; j < len(data) && j < g.imageY; j++ {
		for i := 0; i < len(data[j]) && i < g.imageX; i++ {
			img.SetGray(i, g.imageY-1-j,
				color.Gray{Y: GreyLevel(data[j][i], minValue, maxValue)})
		}
	}

	id := g.geo.LinearID(x, y)

	g.submit(func() {
		g.lock.Lock()
		defer g.lock.Unlock()

		g.images[id] = img
	})
}

// Sync waits until every update accepted so far is applied.
func (g *ImageGrid) Sync() {
	applied := make(chan struct{})
	if g.submit(func() { close(applied) }) {
		<-applied
	}
}

func (g *ImageGrid) cellWidth() int {
	return g.imageX*g.zoom + 1
}

func (g *ImageGrid) cellHeight() int {
	return g.imageY*g.zoom + 1
}

// Bounds returns the size of the rendered grid.
func (g *ImageGrid) Bounds() image.Rectangle {
	return image.Rect(0, 0,
		g.geo.XSize*g.cellWidth()+1,
		g.geo.YSize*g.cellHeight()+1)
}

// TileOrigin returns the top-left pixel of the image of tile (x, y) in the
// rendered grid.
func (g *ImageGrid) TileOrigin(x, y int) image.Point {
	return image.Pt(
		x*g.cellWidth()+1,
		(g.geo.YMax()-y)*g.cellHeight()+1)
}

// Image renders the current state of the grid.
func (g *ImageGrid) Image() *image.Gray {
	out := image.NewGray(g.Bounds())
	for i := range out.Pix {
		out.Pix[i] = FrameColor.Y
	}

	g.lock.RLock()
	defer g.lock.RUnlock()

	for y := 0; y < g.geo.YSize; y++ {
		for x := 0; x < g.geo.XSize; x++ {
			g.drawTile(out, g.images[g.geo.LinearID(x, y)], g.TileOrigin(x, y))
		}
	}

	return out
}

func (g *ImageGrid) drawTile(out, img *image.Gray, origin image.Point) {
	for j := 0; j < g.imageY*g.zoom; j++ {
		for i := 0; i < g.imageX*g.zoom; i++ {
			out.SetGray(origin.X+i, origin.Y+j, img.GrayAt(i/g.zoom, j/g.zoom))
		}
	}
}

// WritePNG encodes the current state of the grid as PNG.
func (g *ImageGrid) WritePNG(w io.Writer) error {
	return png.Encode(w, g.Image())
}

// Close stops the grid goroutine. Later updates are dropped.
func (g *ImageGrid) Close() {
	g.closeOnce.Do(func() { close(g.done) })
	<-g.stopped
}
