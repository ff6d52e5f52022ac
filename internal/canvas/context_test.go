package canvas

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/example/snapmark/internal/colour"
)

func colourAt(t *testing.T, s *Surface, x, y int) colour.Colour {
	t.Helper()
	c, err := s.ColourAt(x, y)
	if err != nil {
		t.Fatalf("ColourAt(%d,%d): %v", x, y, err)
	}
	return c
}

func TestRestoreUnderflow(t *testing.T) {
	c := NewContext(NewSurface(4, 4))
	c.Save()
	if err := c.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	err := c.Restore()
	var gerr *GraphicsError
	if !errors.As(err, &gerr) || !errors.Is(err, ErrRestoreUnderflow) {
		t.Fatalf("expected GraphicsError wrapping underflow, got %v", err)
	}
}

func TestSaveRestoreState(t *testing.T) {
	c := NewContext(NewSurface(4, 4))
	c.SetLineWidth(5)
	c.SetOperator(OperatorSource)
	c.Save()
	c.SetLineWidth(9)
	c.SetOperator(OperatorOver)
	c.Translate(10, 10)
	if err := c.Restore(); err != nil {
		t.Fatal(err)
	}
	if c.LineWidth() != 5 || c.Operator() != OperatorSource {
		t.Fatalf("state not restored: width %v op %v", c.LineWidth(), c.Operator())
	}
	c.MoveTo(1, 1)
	if x, y, _ := c.CurrentPoint(); x != 1 || y != 1 {
		t.Fatalf("transform leaked: %v,%v", x, y)
	}
}

func TestScaleZeroIsInvalid(t *testing.T) {
	c := NewContext(NewSurface(4, 4))
	if err := c.Scale(0, 1); !errors.Is(err, ErrInvalidMatrix) {
		t.Fatalf("expected ErrInvalidMatrix, got %v", err)
	}
}

func TestRelLineToNeedsCurrentPoint(t *testing.T) {
	c := NewContext(NewSurface(4, 4))
	if err := c.RelLineTo(1, 1); !errors.Is(err, ErrNoCurrentPoint) {
		t.Fatalf("expected ErrNoCurrentPoint, got %v", err)
	}
}

func TestFillRectangle(t *testing.T) {
	s := NewSurface(20, 20)
	c := NewContext(s)
	c.SetSourceColour(colour.Colour{Red: 255, Alpha: 255})
	c.Rectangle(5, 5, 10, 10)
	if err := c.Fill(); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if got := colourAt(t, s, 10, 10); got.Red != 255 {
		t.Fatalf("inside = %+v", got)
	}
	if got := colourAt(t, s, 2, 2); got.Red != 0 {
		t.Fatalf("outside = %+v", got)
	}
}

func TestTranslucentFillBlends(t *testing.T) {
	s := NewSurface(10, 10)
	c := NewContext(s)
	c.SetSourceColour(colour.White)
	c.SetOperator(OperatorSource)
	if err := c.Paint(); err != nil {
		t.Fatal(err)
	}
	c.SetOperator(OperatorOver)
	c.SetSourceColour(colour.Colour{Blue: 255, Alpha: 128})
	c.Rectangle(0, 0, 10, 10)
	if err := c.Fill(); err != nil {
		t.Fatal(err)
	}
	got := colourAt(t, s, 5, 5)
	if got.Blue != 255 || math.Abs(float64(got.Red)-127) > 2 {
		t.Fatalf("blend = %+v", got)
	}
}

func TestStrokeLine(t *testing.T) {
	s := NewSurface(20, 20)
	c := NewContext(s)
	c.SetSourceColour(colour.White)
	c.SetLineWidth(4)
	c.MoveTo(2, 10)
	c.LineTo(18, 10)
	if err := c.Stroke(); err != nil {
		t.Fatalf("Stroke: %v", err)
	}
	if got := colourAt(t, s, 10, 10); got != colour.White {
		t.Fatalf("on line = %+v", got)
	}
	if got := colourAt(t, s, 10, 16); got != colour.Black {
		t.Fatalf("off line = %+v", got)
	}
	if _, _, ok := c.CurrentPoint(); ok {
		t.Fatalf("stroke should clear the path")
	}
}

func TestStrokeSinglePointCaps(t *testing.T) {
	for _, tc := range []struct {
		cap     LineCap
		painted bool
	}{
		{CapButt, false},
		{CapRound, true},
		{CapSquare, true},
	} {
		s := NewSurface(20, 20)
		c := NewContext(s)
		c.SetSourceColour(colour.White)
		c.SetLineWidth(6)
		c.SetLineCap(tc.cap)
		c.MoveTo(10, 10)
		if err := c.Stroke(); err != nil {
			t.Fatalf("cap %v: Stroke: %v", tc.cap, err)
		}
		if got := colourAt(t, s, 10, 10) == colour.White; got != tc.painted {
			t.Fatalf("cap %v: centre painted %v want %v", tc.cap, got, tc.painted)
		}
		if got := colourAt(t, s, 16, 16); got != colour.Black {
			t.Fatalf("cap %v: dot spread to %+v", tc.cap, got)
		}
	}
}

func TestScaledArcFillsEllipse(t *testing.T) {
	s := NewSurface(100, 60)
	c := NewContext(s)
	c.Save()
	c.Translate(10, 10)
	if err := c.Scale(40, 20); err != nil {
		t.Fatal(err)
	}
	c.Arc(0.5, 0.5, 0.5, 0, 2*math.Pi)
	c.SetSourceColour(colour.White)
	if err := c.FillPreserve(); err != nil {
		t.Fatal(err)
	}
	if err := c.Restore(); err != nil {
		t.Fatal(err)
	}
	if got := colourAt(t, s, 30, 20); got != colour.White {
		t.Fatalf("centre = %+v", got)
	}
	if got := colourAt(t, s, 11, 11); got != colour.Black {
		t.Fatalf("corner = %+v", got)
	}
}

func TestPaintImageSource(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range base.Pix {
		base.Pix[i] = 90
	}
	s := NewSurface(4, 4)
	s.Set(1, 1, colour.White)
	c := NewContext(s)
	c.SetOperator(OperatorSource)
	c.SetSourceImage(base, 0, 0)
	if err := c.Paint(); err != nil {
		t.Fatal(err)
	}
	if got := colourAt(t, s, 1, 1); got != (colour.Colour{Red: 90, Green: 90, Blue: 90, Alpha: 255}) {
		t.Fatalf("source paint = %+v", got)
	}
	c.Rectangle(0, 0, 1, 1)
	if err := c.Fill(); err == nil {
		t.Fatalf("expected filling with an image source to fail")
	}
}
