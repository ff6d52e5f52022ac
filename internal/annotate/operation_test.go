package annotate

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/example/snapmark/internal/canvas"
	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/geometry"
)

func whiteBase(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func colourAt(t *testing.T, s *canvas.Surface, x, y int) colour.Colour {
	t.Helper()
	c, err := s.ColourAt(x, y)
	if err != nil {
		t.Fatalf("ColourAt(%d,%d): %v", x, y, err)
	}
	return c
}

func replay(t *testing.T, s *OperationStack, base *image.RGBA, live bool) *canvas.Surface {
	t.Helper()
	b := base.Bounds()
	surface := canvas.NewSurface(b.Dx(), b.Dy())
	if err := s.Execute(surface, canvas.NewContext(surface), base, live); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return surface
}

func near(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	return d >= -tol && d <= tol
}

func TestArrowHeadGeometry(t *testing.T) {
	length, left, right := ArrowHead(geometry.Pt(0, 0), geometry.Pt(100, 0))
	if length != 10 {
		t.Fatalf("length %v want 10", length)
	}
	dx := 10 * math.Cos(math.Pi/6)
	wantLeft := geometry.Pt(100-dx, -5)
	wantRight := geometry.Pt(100-dx, 5)
	if left.Distance(wantLeft) > 1e-9 || right.Distance(wantRight) > 1e-9 {
		t.Fatalf("wings %v %v want %v %v", left, right, wantLeft, wantRight)
	}
	for _, w := range []geometry.Point{left, right} {
		if d := w.Distance(geometry.Pt(100, 0)); math.Abs(d-10) > 1e-9 {
			t.Fatalf("wing %v is %v from the tip", w, d)
		}
	}
}

func TestArrowHeadLeftwardUsesSingleArgumentAtan(t *testing.T) {
	_, left, right := ArrowHead(geometry.Pt(0, 0), geometry.Pt(-100, 0))
	if left.X >= -100 || right.X >= -100 {
		t.Fatalf("wings %v %v should sit beyond the tip", left, right)
	}
}

func TestExecutePaintsBaseThenOperations(t *testing.T) {
	s := New(geometry.Rectangle{W: 20, H: 20}, nil, false)
	fill := colour.Colour{Red: 10, Green: 20, Blue: 30, Alpha: 255}
	_ = s.Push(DrawRectangle{
		Rect:   geometry.Rectangle{X: 5, Y: 5, W: 10, H: 10},
		Border: colour.Transparent,
		Fill:   fill,
	})
	surface := replay(t, s, whiteBase(20, 20), false)
	if got := colourAt(t, surface, 10, 10); got != fill {
		t.Fatalf("inside %v want %v", got, fill)
	}
	if got := colourAt(t, surface, 1, 1); got != colour.White {
		t.Fatalf("outside %v", got)
	}
}

func TestExecuteLiveDrawsCurrentOperation(t *testing.T) {
	s := New(geometry.Rectangle{W: 20, H: 20}, nil, false)
	s.SetCurrentTool(ToolRectangle)
	s.SetSecondaryColour(colour.Black)
	_ = s.StartOperationAt(geometry.Pt(2, 2))
	_ = s.UpdateCurrentOperationEnd(geometry.Pt(18, 18))
	if got := colourAt(t, replay(t, s, whiteBase(20, 20), false), 10, 10); got != colour.White {
		t.Fatalf("non-live pass drew the current operation: %v", got)
	}
	if got := colourAt(t, replay(t, s, whiteBase(20, 20), true), 10, 10); got != colour.Black {
		t.Fatalf("live pass missing current operation: %v", got)
	}
}

func TestPencilClickDrawsDot(t *testing.T) {
	s := New(geometry.Rectangle{W: 20, H: 20}, nil, false)
	s.SetLineWidth(6)
	_ = s.StartOperationAt(geometry.Pt(10, 10))
	if _, err := s.FinishCurrentOperation(); err != nil {
		t.Fatal(err)
	}
	if p := s.Committed()[0].(DrawPencil); len(p.Points) != 1 {
		t.Fatalf("points %v", p.Points)
	}
	surface := replay(t, s, whiteBase(20, 20), false)
	if got := colourAt(t, surface, 10, 10); got != colour.Red {
		t.Fatalf("dot centre %v want red", got)
	}
	if got := colourAt(t, surface, 16, 10); got != colour.White {
		t.Fatalf("dot too wide: %v", got)
	}
}

func TestHighlightBlendsOverBase(t *testing.T) {
	s := New(geometry.Rectangle{W: 10, H: 10}, nil, false)
	_ = s.Push(Highlight{Rect: geometry.Rectangle{W: 10, H: 10}})
	got := colourAt(t, replay(t, s, whiteBase(10, 10), false), 5, 5)
	if got.Red != 255 || got.Green != 255 || !near(got.Blue, 192, 2) {
		t.Fatalf("highlight %v", got)
	}
}

func TestBlurReadsCompositedPixels(t *testing.T) {
	s := New(geometry.Rectangle{W: 20, H: 20}, nil, false)
	_ = s.Push(DrawRectangle{Rect: geometry.Rectangle{W: 10, H: 20}, Border: colour.Transparent, Fill: colour.Black})
	_ = s.Push(Blur{Rect: geometry.Rectangle{X: 4, Y: 0, W: 12, H: 20}, Radius: 2})
	surface := replay(t, s, whiteBase(20, 20), false)
	if got := colourAt(t, surface, 9, 10); got.Red == 0 || got.Red == 255 {
		t.Fatalf("edge not blurred: %v", got)
	}
	if got := colourAt(t, surface, 1, 10); got != colour.Black {
		t.Fatalf("outside the blur changed: %v", got)
	}
}

func TestBlurOutOfBoundsIsSkipped(t *testing.T) {
	var logs bytes.Buffer
	s := New(geometry.Rectangle{W: 20, H: 20}, nil, false, WithLogger(log.New(&logs, "", 0)))
	_ = s.Push(Blur{Rect: geometry.Rectangle{X: 100, Y: 100, W: 10, H: 10}, Radius: 3})
	_ = s.Push(DrawRectangle{Rect: geometry.Rectangle{W: 20, H: 20}, Border: colour.Transparent, Fill: colour.Red})
	surface := replay(t, s, whiteBase(20, 20), false)
	if got := colourAt(t, surface, 10, 10); got != colour.Red {
		t.Fatalf("later operation not drawn: %v", got)
	}
	if !strings.Contains(logs.String(), "skipping") {
		t.Fatalf("expected a log line, got %q", logs.String())
	}
}

func TestPixelateOperation(t *testing.T) {
	s := New(geometry.Rectangle{W: 4, H: 4}, nil, false)
	_ = s.Push(DrawRectangle{Rect: geometry.Rectangle{W: 2, H: 4}, Border: colour.Transparent, Fill: colour.Black})
	_ = s.Push(Pixelate{Rect: geometry.Rectangle{W: 4, H: 4}, BlockSize: 4})
	surface := replay(t, s, whiteBase(4, 4), false)
	a, b := colourAt(t, surface, 0, 0), colourAt(t, surface, 3, 3)
	if a != b || !near(a.Red, 127, 1) {
		t.Fatalf("pixelate %v %v", a, b)
	}
}

type recordingOp struct{ ran *bool }

func (r recordingOp) Execute(*canvas.Surface, *canvas.Context, bool) error {
	*r.ran = true
	return nil
}

type failingOp struct{ err error }

func (f failingOp) Execute(*canvas.Surface, *canvas.Context, bool) error { return f.err }

func TestGraphicsErrorAbortsPass(t *testing.T) {
	var ran bool
	s := New(geometry.Rectangle{W: 4, H: 4}, nil, false, WithLogger(log.New(&bytes.Buffer{}, "", 0)))
	_ = s.Push(failingOp{err: &canvas.GraphicsError{Op: "scale", Err: canvas.ErrInvalidMatrix}})
	_ = s.Push(recordingOp{ran: &ran})
	surface := canvas.NewSurface(4, 4)
	err := s.Execute(surface, canvas.NewContext(surface), whiteBase(4, 4), false)
	if !errors.Is(err, canvas.ErrInvalidMatrix) {
		t.Fatalf("expected graphics error, got %v", err)
	}
	if ran {
		t.Fatal("operations after a graphics error should not run")
	}
}

func TestLocalErrorsDoNotAbort(t *testing.T) {
	var ran bool
	s := New(geometry.Rectangle{W: 4, H: 4}, nil, false, WithLogger(log.New(&bytes.Buffer{}, "", 0)))
	_ = s.Push(failingOp{err: errors.New("boom")})
	_ = s.Push(recordingOp{ran: &ran})
	replay(t, s, whiteBase(4, 4), false)
	if !ran {
		t.Fatal("pass stopped on a local error")
	}
}

func TestDegenerateEllipseIsSkipped(t *testing.T) {
	surface := canvas.SurfaceFromImage(whiteBase(10, 10))
	c := canvas.NewContext(surface)
	op := DrawEllipse{Ellipse: geometry.Ellipse{X: 2, Y: 2, W: 0, H: 5}, Border: colour.Black, Fill: colour.Black}
	if err := op.Execute(surface, c, false); err != nil {
		t.Fatal(err)
	}
	if c.Depth() != 0 {
		t.Fatalf("context depth %d after execute", c.Depth())
	}
	if got := colourAt(t, surface, 2, 4); got != colour.White {
		t.Fatalf("degenerate ellipse drew %v", got)
	}
}

func TestEllipseFillsAroundCentre(t *testing.T) {
	surface := canvas.SurfaceFromImage(whiteBase(40, 40))
	c := canvas.NewContext(surface)
	op := DrawEllipse{Ellipse: geometry.Ellipse{X: 10, Y: 10, W: 10, H: 5}, Border: colour.Black, Fill: colour.Red}
	if err := op.Execute(surface, c, false); err != nil {
		t.Fatal(err)
	}
	if got := colourAt(t, surface, 15, 12); got != colour.Red {
		t.Fatalf("centre %v", got)
	}
	if got := colourAt(t, surface, 1, 1); got != colour.White {
		t.Fatalf("corner %v", got)
	}
}

func TestTextDrawsAtAnchor(t *testing.T) {
	surface := canvas.SurfaceFromImage(whiteBase(80, 40))
	c := canvas.NewContext(surface)
	op := Text{Anchor: geometry.Pt(4, 4), Text: "Hello", Colour: colour.Black, Font: canvas.ParseFontDescription("Go 20")}
	if err := op.Execute(surface, c, false); err != nil {
		t.Fatal(err)
	}
	inked := false
	for y := 4; y < 30 && !inked; y++ {
		for x := 4; x < 70; x++ {
			if colourAt(t, surface, x, y).Red < 128 {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Fatal("no glyph pixels near the anchor")
	}
	if got := colourAt(t, surface, 2, 2); got != colour.White {
		t.Fatalf("text drew above the anchor: %v", got)
	}
}

func TestCropOutlineOnlyWhenLive(t *testing.T) {
	s := New(geometry.Rectangle{W: 30, H: 30}, nil, false)
	s.SetCurrentTool(ToolCrop)
	_ = s.StartOperationAt(geometry.Pt(5, 5))
	_ = s.UpdateCurrentOperationEnd(geometry.Pt(25, 25))
	if got := colourAt(t, replay(t, s, whiteBase(30, 30), true), 7, 5); got.Red > 64 {
		t.Fatalf("live outline missing: %v", got)
	}
	commit, _ := s.FinishCurrentOperation()
	if _, ok := commit.Operation.(Crop); !ok {
		t.Fatalf("committed %T", commit.Operation)
	}
	if got := colourAt(t, replay(t, s, whiteBase(30, 30), true), 7, 5); got != colour.White {
		t.Fatalf("committed crop drew %v", got)
	}
}
