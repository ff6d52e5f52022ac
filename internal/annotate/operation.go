package annotate

import (
	"fmt"
	"math"

	"github.com/example/snapmark/internal/canvas"
	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/geometry"
	"github.com/example/snapmark/internal/render"
)

// DefaultLineWidth is the stroke width used when an operation has none.
const DefaultLineWidth = 4

// HighlightFill is the translucent marker colour used by Highlight.
var HighlightFill = colour.Colour{Red: 255, Green: 255, Blue: 0, Alpha: 63}

// arrowAperture is the angle between the shaft and each wing of the head.
const arrowAperture = math.Pi / 6

// Operation is one renderable step of an annotation. Operations are values
// and are never modified after they are committed.
type Operation interface {
	// Execute draws the operation onto s through c. live is set while the
	// operation is still being dragged out.
	Execute(s *canvas.Surface, c *canvas.Context, live bool) error
}

// DrawLine is a straight stroke.
type DrawLine struct {
	Start, End geometry.Point
	Colour     colour.Colour
	Width      float64
}

// DrawPencil is a freehand stroke through Points.
type DrawPencil struct {
	Points []geometry.Point
	Colour colour.Colour
	Width  float64
}

// DrawRectangle fills Rect and outlines it.
type DrawRectangle struct {
	Rect   geometry.Rectangle
	Border colour.Colour
	Fill   colour.Colour
	Width  float64
}

// DrawEllipse fills and outlines an ellipse.
type DrawEllipse struct {
	Ellipse geometry.Ellipse
	Border  colour.Colour
	Fill    colour.Colour
	Width   float64
}

// DrawArrow is a line with a two-winged head at End.
type DrawArrow struct {
	Start, End geometry.Point
	Colour     colour.Colour
	Width      float64
}

// Highlight paints a translucent yellow box.
type Highlight struct {
	Rect geometry.Rectangle
}

// Blur applies a Gaussian blur to the pixels already under Rect.
type Blur struct {
	Rect   geometry.Rectangle
	Radius float64
}

// Pixelate replaces the pixels under Rect with a block mosaic.
type Pixelate struct {
	Rect      geometry.Rectangle
	BlockSize int
}

// Text places markup at Anchor, the top-left corner of the first line.
type Text struct {
	Anchor geometry.Point
	Text   string
	Colour colour.Colour
	Font   canvas.FontDescription
}

// Crop selects the region of the final image.
type Crop struct {
	Rect geometry.Rectangle
}

// WindowSelect selects a window, or a dragged region, as the final image.
type WindowSelect struct {
	Rect geometry.Rectangle
}

// Finish marks the end of editing. It draws nothing.
type Finish struct{}

func lineWidth(w float64) float64 {
	if w <= 0 {
		return DefaultLineWidth
	}
	return w
}

// isolated runs draw between Save and Restore on a fresh path.
func isolated(c *canvas.Context, draw func() error) error {
	c.Save()
	c.NewPath()
	err := draw()
	c.NewPath()
	if rerr := c.Restore(); err == nil {
		err = rerr
	}
	return err
}

func (op DrawLine) Execute(_ *canvas.Surface, c *canvas.Context, _ bool) error {
	return isolated(c, func() error {
		c.SetSourceColour(op.Colour)
		c.SetLineWidth(lineWidth(op.Width))
		c.SetLineCap(canvas.CapRound)
		c.MoveTo(op.Start.X, op.Start.Y)
		c.LineTo(op.End.X, op.End.Y)
		return c.Stroke()
	})
}

func (op DrawPencil) Execute(_ *canvas.Surface, c *canvas.Context, _ bool) error {
	if len(op.Points) == 0 {
		return nil
	}
	return isolated(c, func() error {
		c.SetSourceColour(op.Colour)
		c.SetLineWidth(lineWidth(op.Width))
		c.SetLineCap(canvas.CapRound)
		c.SetLineJoin(canvas.JoinRound)
		c.MoveTo(op.Points[0].X, op.Points[0].Y)
		for _, p := range op.Points[1:] {
			c.LineTo(p.X, p.Y)
		}
		return c.Stroke()
	})
}

func (op DrawRectangle) Execute(_ *canvas.Surface, c *canvas.Context, _ bool) error {
	r := op.Rect.Normalised()
	if r.Empty() {
		return nil
	}
	return isolated(c, func() error {
		c.Rectangle(r.X, r.Y, r.W, r.H)
		c.SetSourceColour(op.Fill)
		if err := c.FillPreserve(); err != nil {
			return err
		}
		c.SetSourceColour(op.Border)
		c.SetLineWidth(lineWidth(op.Width))
		c.SetLineJoin(canvas.JoinMiter)
		return c.Stroke()
	})
}

func (op DrawEllipse) Execute(_ *canvas.Surface, c *canvas.Context, _ bool) error {
	e := op.Ellipse
	if e.W == 0 || e.H == 0 {
		return nil
	}
	return isolated(c, func() error {
		c.Save()
		c.Translate(e.X, e.Y)
		if err := c.Scale(e.W, e.H); err != nil {
			_ = c.Restore()
			return err
		}
		c.Arc(0.5, 0.5, 1, 0, 2*math.Pi)
		c.ClosePath()
		c.SetSourceColour(op.Fill)
		if err := c.FillPreserve(); err != nil {
			_ = c.Restore()
			return err
		}
		if err := c.Restore(); err != nil {
			return err
		}
		c.SetSourceColour(op.Border)
		c.SetLineWidth(lineWidth(op.Width))
		return c.Stroke()
	})
}

// ArrowHead returns the length of the head of an arrow from start to end
// and the end points of its two wings. The angle is taken from atan(dy/dx),
// so shafts pointing left get a head that points the same way as a shaft
// pointing right.
func ArrowHead(start, end geometry.Point) (length float64, left, right geometry.Point) {
	d := end.Sub(start)
	angle := math.Atan(d.Y / d.X)
	length = start.Distance(end) / 10
	wing := func(a float64) geometry.Point {
		return geometry.Point{
			X: end.X - length*math.Cos(a),
			Y: end.Y - length*math.Sin(a),
		}
	}
	return length, wing(angle + arrowAperture), wing(angle - arrowAperture)
}

func (op DrawArrow) Execute(_ *canvas.Surface, c *canvas.Context, _ bool) error {
	return isolated(c, func() error {
		c.SetSourceColour(op.Colour)
		c.SetLineWidth(lineWidth(op.Width))
		c.SetLineCap(canvas.CapRound)
		c.SetLineJoin(canvas.JoinRound)
		c.MoveTo(op.Start.X, op.Start.Y)
		c.LineTo(op.End.X, op.End.Y)
		length, left, right := ArrowHead(op.Start, op.End)
		if length > 0 {
			for _, w := range []geometry.Point{left, right} {
				c.MoveTo(op.End.X, op.End.Y)
				if err := c.RelLineTo(w.X-op.End.X, w.Y-op.End.Y); err != nil {
					return err
				}
			}
		}
		return c.Stroke()
	})
}

func (op Highlight) Execute(s *canvas.Surface, c *canvas.Context, live bool) error {
	return DrawRectangle{
		Rect:   op.Rect,
		Border: colour.Transparent,
		Fill:   HighlightFill,
	}.Execute(s, c, live)
}

func (op Blur) Execute(s *canvas.Surface, _ *canvas.Context, _ bool) error {
	if op.Rect.Empty() {
		return nil
	}
	reg, err := s.Extract(op.Rect.Image())
	if err != nil {
		return fmt.Errorf("blur %v: %w", op.Rect.Image(), err)
	}
	render.GaussianBlur(reg, op.Radius)
	return s.PaintRegion(reg)
}

func (op Pixelate) Execute(s *canvas.Surface, _ *canvas.Context, _ bool) error {
	if op.Rect.Empty() {
		return nil
	}
	reg, err := s.Extract(op.Rect.Image())
	if err != nil {
		return fmt.Errorf("pixelate %v: %w", op.Rect.Image(), err)
	}
	render.Pixelate(reg, op.BlockSize)
	return s.PaintRegion(reg)
}

func (op Text) Execute(_ *canvas.Surface, c *canvas.Context, _ bool) error {
	if op.Text == "" {
		return nil
	}
	return isolated(c, func() error {
		c.SetSourceColour(op.Colour)
		c.MoveTo(op.Anchor.X, op.Anchor.Y)
		return c.ShowLayout(canvas.NewLayout(op.Text, op.Font))
	})
}

func (op Crop) Execute(_ *canvas.Surface, c *canvas.Context, live bool) error {
	if !live {
		return nil
	}
	return selectionOutline(c, op.Rect)
}

func (op WindowSelect) Execute(_ *canvas.Surface, c *canvas.Context, live bool) error {
	if !live {
		return nil
	}
	return selectionOutline(c, op.Rect)
}

func (Finish) Execute(*canvas.Surface, *canvas.Context, bool) error { return nil }

// selectionOutline draws marching-ants style dashes: white under black.
func selectionOutline(c *canvas.Context, rect geometry.Rectangle) error {
	r := rect.Normalised()
	if r.Empty() {
		return nil
	}
	return isolated(c, func() error {
		c.SetLineWidth(1)
		c.Rectangle(r.X+0.5, r.Y+0.5, r.W-1, r.H-1)
		c.SetSourceColour(colour.White)
		if err := c.StrokePreserve(); err != nil {
			return err
		}
		c.SetSourceColour(colour.Black)
		c.SetDash([]float64{6, 4}, 0)
		return c.Stroke()
	})
}
