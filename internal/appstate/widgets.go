package appstate

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/snapmark/internal/annotate"
	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/theme"
)

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive toolbar element. Activate performs the
// button's action for the mouse button that clicked it.
type Button interface {
	Draw(dst *image.RGBA, th *theme.Theme, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate(b mouse.Button)
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	th    *theme.Theme
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	if th != cb.th {
		cb.th = th
		cb.cache = [3]*image.RGBA{}
	}
	if cb.cache[state] == nil {
		img := image.NewRGBA(cb.Button.Rect())
		cb.Button.Draw(img, th, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [3]*image.RGBA{}
	}
}

// LabelButton is a text button that runs action when clicked.
type LabelButton struct {
	label  string
	rect   image.Rectangle
	action func()
}

func (lb *LabelButton) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	drawButton(dst, th, lb.rect, lb.label, state)
}

func (lb *LabelButton) Rect() image.Rectangle { return lb.rect }
func (lb *LabelButton) SetRect(r image.Rectangle) { lb.rect = r }

func (lb *LabelButton) Activate(b mouse.Button) {
	if b == mouse.ButtonLeft && lb.action != nil {
		lb.action()
	}
}

// ToolButton selects an annotation tool.
type ToolButton struct {
	LabelButton
	tool annotate.Tool
}

// SwatchButton is a palette entry. The left button picks the stroke
// colour and the right button the fill.
type SwatchButton struct {
	colour colour.Colour
	rect   image.Rectangle
	pick   func(c colour.Colour, fill bool)
}

func (sb *SwatchButton) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	drawSwatch(dst, th, sb.rect, sb.colour)
	if state == StateHover {
		draw.Draw(dst, sb.rect, image.NewUniform(color.RGBA{255, 255, 255, 80}), image.Point{}, draw.Over)
	}
}

func (sb *SwatchButton) Rect() image.Rectangle { return sb.rect }
func (sb *SwatchButton) SetRect(r image.Rectangle) { sb.rect = r }

func (sb *SwatchButton) Activate(b mouse.Button) {
	if sb.pick == nil {
		return
	}
	switch b {
	case mouse.ButtonLeft:
		sb.pick(sb.colour, false)
	case mouse.ButtonRight:
		sb.pick(sb.colour, true)
	}
}

// WidthButton sets the stroke width and previews it.
type WidthButton struct {
	width  float64
	rect   image.Rectangle
	stroke func() colour.Colour
	set    func(w float64)
}

func (wb *WidthButton) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	drawButton(dst, th, wb.rect, "", state)
	cy := (wb.rect.Min.Y + wb.rect.Max.Y) / 2
	half := int(wb.width) / 2
	line := image.Rect(wb.rect.Min.X+4, cy-half, wb.rect.Max.X-4, cy-half+max(int(wb.width), 1))
	draw.Draw(dst, line, image.NewUniform(wb.stroke()), image.Point{}, draw.Over)
}

func (wb *WidthButton) Rect() image.Rectangle { return wb.rect }
func (wb *WidthButton) SetRect(r image.Rectangle) { wb.rect = r }

func (wb *WidthButton) Activate(b mouse.Button) {
	if b == mouse.ButtonLeft && wb.set != nil {
		wb.set(wb.width)
	}
}

func drawButton(dst *image.RGBA, th *theme.Theme, r image.Rectangle, label string, state ButtonState) {
	bg := th.ButtonBackground
	switch state {
	case StateHover:
		bg = th.ButtonBackgroundHover
	case StatePressed:
		bg = th.ButtonBackgroundPress
	}
	draw.Draw(dst, r, image.NewUniform(bg), image.Point{}, draw.Src)
	strokeRect(dst, r, th.ButtonBorder)
	if label != "" {
		drawLabel(dst, r.Min.X+4, r.Min.Y+14, label, th.ButtonText)
	}
}

func drawSwatch(dst *image.RGBA, th *theme.Theme, r image.Rectangle, c colour.Colour) {
	if c.Alpha < 255 {
		drawCheckerboard(dst, r, 4, th.CheckerLight, th.CheckerDark)
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
	strokeRect(dst, r, th.SwatchBorder)
}

func drawLabel(dst *image.RGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: basicfont.Face7x13, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func labelWidth(s string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return d.MeasureString(s).Ceil()
}

// strokeRect outlines r one pixel inside its bounds.
func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	u := image.NewUniform(c)
	for _, e := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(dst, e.Intersect(r), u, image.Point{}, draw.Src)
	}
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}
