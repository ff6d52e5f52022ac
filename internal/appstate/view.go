package appstate

import (
	"fmt"
	"image"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/snapmark/internal/annotate"
	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/geometry"
	"github.com/example/snapmark/internal/theme"
)

const (
	statusHeight = 24
	buttonHeight = 20
	swatchSize   = 16
)

var toolbarWidth = 48

var palette = []colour.Colour{
	{Red: 0, Green: 0, Blue: 0, Alpha: 255},
	{Red: 255, Green: 255, Blue: 255, Alpha: 255},
	{Red: 255, Green: 0, Blue: 0, Alpha: 255},
	{Red: 0, Green: 255, Blue: 0, Alpha: 255},
	{Red: 0, Green: 0, Blue: 255, Alpha: 255},
	{Red: 255, Green: 255, Blue: 0, Alpha: 255},
	{Red: 0, Green: 255, Blue: 255, Alpha: 255},
	{Red: 255, Green: 0, Blue: 255, Alpha: 255},
	{Red: 128, Green: 0, Blue: 0, Alpha: 255},
	{Red: 0, Green: 128, Blue: 0, Alpha: 255},
	{Red: 0, Green: 0, Blue: 128, Alpha: 255},
	{Red: 128, Green: 128, Blue: 128, Alpha: 255},
	{Red: 255, Green: 255, Blue: 0, Alpha: 63},
	{},
}

var widths = []float64{1, 2, 4, 6, 8}

// toolKeys are the single-key tool shortcuts.
var toolKeys = map[annotate.Tool]rune{
	annotate.ToolCropAndSave:  's',
	annotate.ToolWindowSelect: 'w',
	annotate.ToolCrop:         'c',
	annotate.ToolPencil:       'p',
	annotate.ToolLine:         'l',
	annotate.ToolArrow:        'a',
	annotate.ToolRectangle:    'r',
	annotate.ToolHighlight:    'h',
	annotate.ToolEllipse:      'e',
	annotate.ToolPixelate:     'x',
	annotate.ToolBlur:         'b',
	annotate.ToolText:         't',
}

func toolLabel(t annotate.Tool) string {
	return fmt.Sprintf("%c:%s", toolKeys[t]-'a'+'A', t)
}

func init() {
	// The toolbar must fit every tool label.
	for _, t := range annotate.Tools() {
		if w := labelWidth(toolLabel(t)) + 8; w > toolbarWidth {
			toolbarWidth = w
		}
	}
}

// viewport maps between window pixels and image coordinates. The image
// sits to the right of the toolbar, scaled by zoom.
type viewport struct {
	width, height int
	zoom          float64
	image         image.Rectangle // destination of the frame in the window
}

func newViewport(img image.Rectangle, winW, winH int) viewport {
	v := viewport{width: winW, height: winH, zoom: fitZoom(img, winW, winH)}
	w := int(float64(img.Dx()) * v.zoom)
	h := int(float64(img.Dy()) * v.zoom)
	v.image = image.Rect(toolbarWidth, 0, toolbarWidth+w, h)
	return v
}

func fitZoom(img image.Rectangle, winW, winH int) float64 {
	availW := winW - toolbarWidth
	availH := winH - statusHeight
	if img.Dx() <= 0 || img.Dy() <= 0 || availW <= 0 || availH <= 0 {
		return 1
	}
	zx := float64(availW) / float64(img.Dx())
	zy := float64(availH) / float64(img.Dy())
	return min(zx, zy)
}

// canvas is the window area the image may be drawn in.
func (v viewport) canvas() image.Rectangle {
	return image.Rect(toolbarWidth, 0, v.width, v.height-statusHeight)
}

func (v viewport) status() image.Rectangle {
	return image.Rect(0, v.height-statusHeight, v.width, v.height)
}

func (v viewport) toolbar() image.Rectangle {
	return image.Rect(0, 0, toolbarWidth, v.height-statusHeight)
}

// toImage converts a window position to image coordinates.
func (v viewport) toImage(x, y float32) geometry.Point {
	return geometry.Pt(
		(float64(x)-float64(v.image.Min.X))/v.zoom,
		(float64(y)-float64(v.image.Min.Y))/v.zoom,
	)
}

// toWindow converts an image position to window pixels.
func (v viewport) toWindow(p geometry.Point) image.Point {
	return image.Pt(
		v.image.Min.X+int(p.X*v.zoom),
		v.image.Min.Y+int(p.Y*v.zoom),
	)
}

// imageEvent rewrites a window mouse event into image coordinates.
func (v viewport) imageEvent(e mouse.Event) mouse.Event {
	p := v.toImage(e.X, e.Y)
	e.X, e.Y = float32(p.X), float32(p.Y)
	return e
}

// toolbar lays out and hit tests the buttons down the left edge.
type toolbar struct {
	buttons []Button
	hover   int
	pressed int
}

func (tb *toolbar) layout() {
	y := 0
	for i, b := range tb.buttons {
		switch b.(type) {
		case *SwatchButton:
			// Swatches flow in rows, starting a new row after other buttons.
			prevSwatch := i > 0 && isSwatch(tb.buttons[i-1])
			x := 4
			if prevSwatch {
				prev := tb.buttons[i-1].Rect()
				x = prev.Max.X + 2
				y = prev.Min.Y
				if x+swatchSize > toolbarWidth {
					x, y = 4, prev.Max.Y+2
				}
			} else {
				y += 4
			}
			b.SetRect(image.Rect(x, y, x+swatchSize, y+swatchSize))
			if i+1 == len(tb.buttons) || !isSwatch(tb.buttons[i+1]) {
				y += swatchSize + 4
			}
		default:
			b.SetRect(image.Rect(0, y, toolbarWidth, y+buttonHeight))
			y += buttonHeight
		}
	}
}

func isSwatch(b Button) bool {
	_, ok := b.(*SwatchButton)
	return ok
}

// hit returns the index of the button under p, or -1.
func (tb *toolbar) hit(p image.Point) int {
	for i, b := range tb.buttons {
		if p.In(b.Rect()) {
			return i
		}
	}
	return -1
}

func (tb *toolbar) draw(dst *image.RGBA, th *theme.Theme, current annotate.Tool) {
	for i, b := range tb.buttons {
		state := StateDefault
		switch {
		case i == tb.pressed:
			state = StatePressed
		case i == tb.hover:
			state = StateHover
		}
		if t, ok := unwrap(b).(*ToolButton); ok && t.tool == current {
			state = StatePressed
		}
		b.Draw(dst, th, state)
	}
}

func unwrap(b Button) Button {
	if cb, ok := b.(*CacheButton); ok {
		return cb.Button
	}
	return b
}

// paintState is everything one frame needs.
type paintState struct {
	view      viewport
	theme     *theme.Theme
	frame     image.Image
	toolbar   *toolbar
	tool      annotate.Tool
	style     annotate.Style
	status    string
	textInput *textEntry
}

// drawFrame composes the window contents into dst.
func drawFrame(dst *image.RGBA, st paintState) {
	th := st.theme
	v := st.view
	draw.Draw(dst, v.canvas(), image.NewUniform(th.Background), image.Point{}, draw.Src)
	drawCheckerboard(dst, v.image, 8, th.CheckerLight, th.CheckerDark)
	if st.frame != nil {
		xdraw.NearestNeighbor.Scale(dst, v.image, st.frame, st.frame.Bounds(), draw.Over, nil)
	}

	if st.textInput != nil {
		p := v.toWindow(st.textInput.anchor)
		drawLabel(dst, p.X, p.Y+13, st.textInput.text+"|", st.style.Primary)
	}

	draw.Draw(dst, v.toolbar(), image.NewUniform(th.ToolbarBackground), image.Point{}, draw.Src)
	st.toolbar.draw(dst, th, st.tool)
	drawStyle(dst, th, v, st.style)

	sr := v.status()
	draw.Draw(dst, sr, image.NewUniform(th.StatusBackground), image.Point{}, draw.Src)
	drawLabel(dst, sr.Min.X+4, sr.Min.Y+16, st.status, th.StatusText)
}

// drawStyle shows the stroke colour over the fill colour at the foot of
// the toolbar.
func drawStyle(dst *image.RGBA, th *theme.Theme, v viewport, st annotate.Style) {
	tr := v.toolbar()
	fill := image.Rect(tr.Min.X+14, tr.Max.Y-30, tr.Min.X+34, tr.Max.Y-10)
	stroke := fill.Sub(image.Pt(10, 10))
	drawSwatch(dst, th, fill, st.Secondary)
	drawSwatch(dst, th, stroke, st.Primary)
}

// statusLine summarises the session for the status bar.
func statusLine(stack *annotate.OperationStack, hover string, message string) string {
	parts := []string{stack.Tool().String()}
	parts = append(parts, fmt.Sprintf("%d ops", len(stack.Committed())))
	if n := stack.RedoLen(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d redo", n))
	}
	if stack.CropFirst() {
		parts = append(parts, "crop first")
	}
	if stack.IgnoreWindows() {
		parts = append(parts, "no snap")
	} else if stack.SelectionMode() == annotate.WindowsWithoutDecorations {
		parts = append(parts, "content")
	}
	if hover != "" {
		parts = append(parts, hover)
	}
	if message != "" {
		parts = append(parts, message)
	}
	return strings.Join(parts, " | ")
}
