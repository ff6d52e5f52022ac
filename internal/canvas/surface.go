// Package canvas implements the drawing surface and a small stateful 2D
// context used to replay annotations.
package canvas

import (
	"fmt"
	"image"
	"image/color"

	"github.com/example/snapmark/internal/colour"
)

// BytesPerPixel is the size of one packed pixel.
const BytesPerPixel = 4

// Surface is a 32-bit RGB image with the upper 8 bits unused. Pixels are
// stored native-endian (little-endian) so the bytes of a pixel are blue,
// green, red, unused. The surface is always opaque.
type Surface struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// StrideForWidth returns the row stride used for a surface or region of the
// given width. Rows are padded to a 4 byte boundary.
func StrideForWidth(width int) int {
	return (width*BytesPerPixel + 3) &^ 3
}

// PixelOffset is the byte offset of pixel (x, y) in a buffer with stride.
// Surface reads, colour sampling and region extraction all go through it.
func PixelOffset(stride, x, y int) int {
	return y*stride + x*BytesPerPixel
}

// NewSurface allocates a black surface.
func NewSurface(width, height int) *Surface {
	stride := StrideForWidth(width)
	return &Surface{
		Pix:    make([]byte, stride*height),
		Stride: stride,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// SurfaceFromImage copies img into a new surface with a zero origin. Any
// alpha in img is composited over black.
func SurfaceFromImage(img image.Image) *Surface {
	b := img.Bounds()
	s := NewSurface(b.Dx(), b.Dy())
	s.paintImage(img, b.Min)
	return s
}

func (s *Surface) ColorModel() color.Model { return color.RGBAModel }

func (s *Surface) Bounds() image.Rectangle { return s.Rect }

func (s *Surface) offset(x, y int) int {
	return PixelOffset(s.Stride, x-s.Rect.Min.X, y-s.Rect.Min.Y)
}

func (s *Surface) At(x, y int) color.Color {
	if !image.Pt(x, y).In(s.Rect) {
		return color.RGBA{}
	}
	i := s.offset(x, y)
	return color.RGBA{R: s.Pix[i+2], G: s.Pix[i+1], B: s.Pix[i], A: 255}
}

// Set stores the colour channels of c. The surface has no alpha so c is
// expected to already be composited.
func (s *Surface) Set(x, y int, c color.Color) {
	if !image.Pt(x, y).In(s.Rect) {
		return
	}
	r, g, b, _ := c.RGBA()
	i := s.offset(x, y)
	s.Pix[i] = uint8(b >> 8)
	s.Pix[i+1] = uint8(g >> 8)
	s.Pix[i+2] = uint8(r >> 8)
	s.Pix[i+3] = 0
}

// ColourAt reads the pixel at (x, y) as an opaque colour.
func (s *Surface) ColourAt(x, y int) (colour.Colour, error) {
	if !image.Pt(x, y).In(s.Rect) {
		return colour.Colour{}, fmt.Errorf("pixel (%d,%d): %w", x, y, ErrRegionOutOfBounds)
	}
	i := s.offset(x, y)
	return colour.Colour{Red: s.Pix[i+2], Green: s.Pix[i+1], Blue: s.Pix[i], Alpha: 255}, nil
}

// RGBA returns a copy of the part of the surface inside r as an RGBA image
// with a zero origin.
func (s *Surface) RGBA(r image.Rectangle) *image.RGBA {
	r = r.Intersect(s.Rect)
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		si := s.offset(r.Min.X, r.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < r.Dx(); x++ {
			dst.Pix[di] = s.Pix[si+2]
			dst.Pix[di+1] = s.Pix[si+1]
			dst.Pix[di+2] = s.Pix[si]
			dst.Pix[di+3] = 255
			si += BytesPerPixel
			di += 4
		}
	}
	return dst
}

// Clone returns a deep copy.
func (s *Surface) Clone() *Surface {
	c := &Surface{Pix: make([]byte, len(s.Pix)), Stride: s.Stride, Rect: s.Rect}
	copy(c.Pix, s.Pix)
	return c
}

// paintImage replaces the surface pixels with img, reading from sp.
func (s *Surface) paintImage(img image.Image, sp image.Point) {
	r := s.Rect.Intersect(img.Bounds().Sub(sp).Add(s.Rect.Min))
	if src, ok := img.(*image.RGBA); ok {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			si := src.PixOffset(sp.X+r.Min.X-s.Rect.Min.X, sp.Y+y-s.Rect.Min.Y)
			di := s.offset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x++ {
				s.Pix[di] = src.Pix[si+2]
				s.Pix[di+1] = src.Pix[si+1]
				s.Pix[di+2] = src.Pix[si]
				s.Pix[di+3] = 0
				si += 4
				di += BytesPerPixel
			}
		}
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			s.Set(x, y, img.At(sp.X+x-s.Rect.Min.X, sp.Y+y-s.Rect.Min.Y))
		}
	}
}

// Region is a copy of a rectangle of surface pixels. It uses the same pixel
// layout and stride arithmetic as Surface.
type Region struct {
	Pix    []byte
	Stride int
	// Rect is the area the region was taken from, in surface coordinates.
	Rect image.Rectangle
}

// Width of the region in pixels.
func (r *Region) Width() int { return r.Rect.Dx() }

// Height of the region in pixels.
func (r *Region) Height() int { return r.Rect.Dy() }

// Offset is the byte offset of region-relative pixel (x, y).
func (r *Region) Offset(x, y int) int {
	return PixelOffset(r.Stride, x, y)
}

// Extract copies the pixels inside rect. The rectangle is clipped to the
// surface; a rectangle that does not overlap the surface is an error.
func (s *Surface) Extract(rect image.Rectangle) (*Region, error) {
	clipped := rect.Canon().Intersect(s.Rect)
	if clipped.Empty() {
		return nil, fmt.Errorf("extract %v from %v: %w", rect, s.Rect, ErrRegionOutOfBounds)
	}
	stride := StrideForWidth(clipped.Dx())
	reg := &Region{Pix: make([]byte, stride*clipped.Dy()), Stride: stride, Rect: clipped}
	rowBytes := clipped.Dx() * BytesPerPixel
	for y := 0; y < clipped.Dy(); y++ {
		si := s.offset(clipped.Min.X, clipped.Min.Y+y)
		copy(reg.Pix[reg.Offset(0, y):reg.Offset(0, y)+rowBytes], s.Pix[si:si+rowBytes])
	}
	return reg, nil
}

// PaintRegion composites reg back at its top-left corner using OVER. Region
// pixels are opaque, so OVER reduces to copying the rows.
func (s *Surface) PaintRegion(reg *Region) error {
	dst := reg.Rect.Intersect(s.Rect)
	if dst.Empty() {
		return fmt.Errorf("paint %v onto %v: %w", reg.Rect, s.Rect, ErrRegionOutOfBounds)
	}
	dx := dst.Min.X - reg.Rect.Min.X
	dy := dst.Min.Y - reg.Rect.Min.Y
	rowBytes := dst.Dx() * BytesPerPixel
	for y := 0; y < dst.Dy(); y++ {
		si := reg.Offset(dx, dy+y)
		di := s.offset(dst.Min.X, dst.Min.Y+y)
		copy(s.Pix[di:di+rowBytes], reg.Pix[si:si+rowBytes])
	}
	return nil
}
