package canvas

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Surface is an addressable 2D pixel buffer with fixed dimensions.
// The persistence layer only borrows surfaces: it reads pixels during a save
// and writes them during a load, never retaining a handle afterwards.
type Surface interface {
	Width() int
	Height() int

	// Image returns a view of the current pixel content.
	Image() image.Image

	// Clear resets every pixel to fully transparent.
	Clear()

	// Draw paints src onto the surface at origin (0,0), clipped to the
	// surface bounds.
	Draw(src image.Image)
}

// MemorySurface is an in-memory Surface backed by an RGBA buffer.
type MemorySurface struct {
	px *image.RGBA
}

func NewMemorySurface(width, height int) *MemorySurface {
	return &MemorySurface{
		px: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (s *MemorySurface) Width() int {
	return s.px.Rect.Dx()
}

func (s *MemorySurface) Height() int {
	return s.px.Rect.Dy()
}

func (s *MemorySurface) Image() image.Image {
	return s.px
}

func (s *MemorySurface) Clear() {
	xdraw.Draw(s.px, s.px.Rect, image.NewUniform(color.Transparent), image.Point{}, xdraw.Src)
}

func (s *MemorySurface) Draw(src image.Image) {
	r := src.Bounds().Sub(src.Bounds().Min).Intersect(s.px.Rect)
	xdraw.Draw(s.px, r, src, src.Bounds().Min, xdraw.Over)
}

// Set paints a single pixel. Mainly useful for tests and simple brushes.
func (s *MemorySurface) Set(x, y int, c color.Color) {
	s.px.Set(x, y, c)
}
