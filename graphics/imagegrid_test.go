package graphics

import (
	"bytes"
	"image"
	"image/png"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aiesim/geography"
)

var _ = Describe("GreyLevel", func() {
	It("should map the range to the grey scale", func() {
		Expect(GreyLevel(0, 0, 10)).To(Equal(uint8(0)))
		Expect(GreyLevel(5, 0, 10)).To(Equal(uint8(127)))
		Expect(GreyLevel(10, 0, 10)).To(Equal(uint8(255)))
		Expect(GreyLevel(-1, -2, 2)).To(Equal(uint8(63)))
	})

	It("should saturate", func() {
		Expect(GreyLevel(-5, 0, 10)).To(Equal(uint8(0)))
		Expect(GreyLevel(50, 0, 10)).To(Equal(uint8(255)))
	})

	It("should handle an empty range", func() {
		Expect(GreyLevel(3, 3, 3)).To(Equal(uint8(0)))
	})
})

var _ = Describe("ImageGrid", func() {
	var g *ImageGrid

	BeforeEach(func() {
		g = NewImageGrid(geography.New(2, 2), 2, 2, 1)
	})

	AfterEach(func() {
		g.Close()
	})

	It("should lay out framed tiles with row 0 at the bottom", func() {
		Expect(g.Bounds()).To(Equal(image.Rect(0, 0, 7, 7)))
		Expect(g.TileOrigin(0, 0)).To(Equal(image.Pt(1, 4)))
		Expect(g.TileOrigin(1, 1)).To(Equal(image.Pt(4, 1)))

		img := g.Image()
		Expect(img.GrayAt(0, 0).Y).To(Equal(FrameColor.Y))
		Expect(img.GrayAt(3, 2).Y).To(Equal(FrameColor.Y))
		Expect(img.GrayAt(1, 1).Y).To(Equal(uint8(0)))
	})

	It("should draw the data mirrored vertically", func() {
		g.UpdateTileDataImage(0, 0, [][]float64{
			{0, 10},
			{5, 10},
		}, 0, 10)
		g.Sync()

		img := g.Image()
		Expect(img.GrayAt(1, 4).Y).To(Equal(uint8(127)))
		Expect(img.GrayAt(2, 4).Y).To(Equal(uint8(255)))
		Expect(img.GrayAt(1, 5).Y).To(Equal(uint8(0)))
		Expect(img.GrayAt(2, 5).Y).To(Equal(uint8(255)))
		Expect(img.GrayAt(4, 4).Y).To(Equal(uint8(0)))
	})

	It("should draw only what fits", func() {
		g.UpdateTileDataImage(1, 1, [][]float64{
			{10, 10, 10},
			{10},
			{10, 10, 10},
		}, 0, 10)
		g.Sync()

		img := g.Image()
		Expect(img.GrayAt(4, 2).Y).To(Equal(uint8(255)))
		Expect(img.GrayAt(5, 2).Y).To(Equal(uint8(255)))
		Expect(img.GrayAt(4, 1).Y).To(Equal(uint8(255)))
		Expect(img.GrayAt(5, 1).Y).To(Equal(uint8(0)))
		Expect(img.GrayAt(6, 1).Y).To(Equal(FrameColor.Y))
	})

	It("should reject tiles outside of the array", func() {
		Expect(func() {
			g.UpdateTileDataImage(2, 0, nil, 0, 1)
		}).To(Panic())
	})

	It("should accept updates from many goroutines", func() {
		var wg sync.WaitGroup
		for x := 0; x < 2; x++ {
			for y := 0; y < 2; y++ {
				wg.Add(1)

				go func(x, y int) {
					defer wg.Done()
					g.UpdateTileDataImage(x, y, [][]float64{{1, 1}, {1, 1}}, 0, 1)
				}(x, y)
			}
		}

		wg.Wait()
		g.Sync()

		img := g.Image()
		for x := 0; x < 2; x++ {
			for y := 0; y < 2; y++ {
				o := g.TileOrigin(x, y)
				Expect(img.GrayAt(o.X, o.Y).Y).To(Equal(uint8(255)))
			}
		}
	})

	It("should encode the grid as PNG", func() {
		buf := bytes.NewBuffer(nil)

		Expect(g.WritePNG(buf)).To(Succeed())

		img, err := png.Decode(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(img.Bounds()).To(Equal(g.Bounds()))
	})

	It("should drop updates once closed", func() {
		g.Close()

		g.UpdateTileDataImage(0, 0, [][]float64{{1}}, 0, 1)
		g.Sync()

		Expect(g.Image().GrayAt(1, 4).Y).To(Equal(uint8(0)))
	})
})

var _ = Describe("Zoomed ImageGrid", func() {
	It("should draw each data point as a square", func() {
		g := NewImageGrid(geography.New(1, 1), 1, 1, 2)
		defer g.Close()

		g.UpdateTileDataImage(0, 0, [][]float64{{10}}, 0, 10)
		g.Sync()

		img := g.Image()
		Expect(img.Bounds()).To(Equal(image.Rect(0, 0, 4, 4)))
		for _, p := range []image.Point{{1, 1}, {2, 1}, {1, 2}, {2, 2}} {
			Expect(img.GrayAt(p.X, p.Y).Y).To(Equal(uint8(255)))
		}
		Expect(img.GrayAt(3, 3).Y).To(Equal(FrameColor.Y))
	})

	It("should refuse an empty image", func() {
		Expect(func() {
			NewImageGrid(geography.New(1, 1), 0, 1, 1)
		}).To(Panic())
	})
})
