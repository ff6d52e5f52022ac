// Package geometry holds the floating point value types shared by the
// annotation engine.
package geometry

import (
	"image"
	"math"
)

// Point is a location in surface coordinates.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Distance is the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	d := p.Sub(q)
	return math.Hypot(d.X, d.Y)
}

// Rectangle is an origin plus a size. W and H may be negative while a
// selection is being dragged up or to the left.
type Rectangle struct {
	X, Y, W, H float64
}

// Normalised returns the same area with non-negative width and height.
func (r Rectangle) Normalised() Rectangle {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Empty reports whether r covers no area.
func (r Rectangle) Empty() bool {
	return r.W == 0 || r.H == 0
}

// Contains reports whether p lies inside r. The min edges are inclusive and
// the max edges exclusive, matching image.Rectangle.
func (r Rectangle) Contains(p Point) bool {
	n := r.Normalised()
	return p.X >= n.X && p.X < n.X+n.W && p.Y >= n.Y && p.Y < n.Y+n.H
}

// End is the corner opposite the origin.
func (r Rectangle) End() Point {
	return Point{X: r.X + r.W, Y: r.Y + r.H}
}

// Image converts r to integer pixel bounds, rounding outward.
func (r Rectangle) Image() image.Rectangle {
	n := r.Normalised()
	return image.Rect(
		int(math.Floor(n.X)),
		int(math.Floor(n.Y)),
		int(math.Ceil(n.X+n.W)),
		int(math.Ceil(n.Y+n.H)),
	)
}

// RectangleFromImage converts integer pixel bounds.
func RectangleFromImage(r image.Rectangle) Rectangle {
	return Rectangle{
		X: float64(r.Min.X),
		Y: float64(r.Min.Y),
		W: float64(r.Dx()),
		H: float64(r.Dy()),
	}
}

// RectangleBetween spans the two corners a and b.
func RectangleBetween(a, b Point) Rectangle {
	return Rectangle{X: a.X, Y: a.Y, W: b.X - a.X, H: b.Y - a.Y}
}

// Ellipse is described by its bounding box.
type Ellipse struct {
	X, Y, W, H float64
}
