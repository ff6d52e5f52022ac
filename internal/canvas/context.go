package canvas

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/example/snapmark/internal/colour"
)

// Operator selects how a source is combined with the surface.
type Operator int

const (
	// OperatorOver blends the source on top of the surface.
	OperatorOver Operator = iota
	// OperatorSource replaces the surface with the source.
	OperatorSource
)

// LineCap is the shape used at the ends of open stroked paths.
type LineCap int

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin is the shape used where stroked segments meet.
type LineJoin int

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

var errImageSource = errors.New("image sources can only be painted")

type state struct {
	matrix      f64.Aff3
	source      image.Image
	sourceAt    image.Point
	op          Operator
	lineWidth   float64
	lineCap     LineCap
	lineJoin    LineJoin
	miterLimit  float64
	dash        []float64
	dashOffset  float64
	sourceIsRGB bool
}

type subpath struct {
	points []f64.Vec2
	closed bool
}

// degenerate reports whether the sub-path has no length.
func (sp subpath) degenerate() bool {
	for _, p := range sp.points[min(1, len(sp.points)):] {
		if p != sp.points[0] {
			return false
		}
	}
	return true
}

// Context is a stateful drawing context bound to a surface. Path coordinates
// are transformed to device space as they are added, so a path built under
// one transform can be filled or stroked after Restore.
type Context struct {
	target *Surface
	st     state
	saved  []state
	path   []subpath
	cur    f64.Vec2
	hasCur bool
}

// NewContext returns a context drawing onto s with an opaque black source,
// OVER compositing and a 2 pixel line.
func NewContext(s *Surface) *Context {
	return &Context{
		target: s,
		st: state{
			matrix:     identity,
			source:     image.NewUniform(color.Black),
			op:         OperatorOver,
			lineWidth:  2,
			miterLimit: 10,
		},
	}
}

// Target returns the surface the context draws to.
func (c *Context) Target() *Surface {
	return c.target
}

// Save pushes a copy of the current state.
func (c *Context) Save() {
	saved := c.st
	saved.dash = append([]float64(nil), c.st.dash...)
	c.saved = append(c.saved, saved)
}

// Restore pops the state pushed by the matching Save.
func (c *Context) Restore() error {
	if len(c.saved) == 0 {
		return graphicsErr("restore", ErrRestoreUnderflow)
	}
	c.st = c.saved[len(c.saved)-1]
	c.saved = c.saved[:len(c.saved)-1]
	return nil
}

// Depth is the number of unmatched Save calls.
func (c *Context) Depth() int {
	return len(c.saved)
}

// Translate moves the user space origin.
func (c *Context) Translate(tx, ty float64) {
	m := &c.st.matrix
	m[2] += m[0]*tx + m[1]*ty
	m[5] += m[3]*tx + m[4]*ty
}

// Scale scales user space. A zero factor would make the matrix singular and
// is rejected.
func (c *Context) Scale(sx, sy float64) error {
	if sx == 0 || sy == 0 || math.IsNaN(sx) || math.IsNaN(sy) {
		return graphicsErr("scale", ErrInvalidMatrix)
	}
	m := &c.st.matrix
	m[0] *= sx
	m[3] *= sx
	m[1] *= sy
	m[4] *= sy
	return nil
}

// IdentityMatrix resets the transform.
func (c *Context) IdentityMatrix() {
	c.st.matrix = identity
}

func (c *Context) device(x, y float64) f64.Vec2 {
	m := c.st.matrix
	return f64.Vec2{m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]}
}

// deviceScale approximates how much a user space length grows in device
// space under the current transform.
func (c *Context) deviceScale() float64 {
	m := c.st.matrix
	return math.Sqrt(math.Abs(m[0]*m[4] - m[1]*m[3]))
}

// SetSourceColour sets a solid source.
func (c *Context) SetSourceColour(col colour.Colour) {
	c.st.source = image.NewUniform(col)
	c.st.sourceIsRGB = false
}

// SetSourceRGBA sets a solid source from channels in [0,1].
func (c *Context) SetSourceRGBA(r, g, b, a float64) {
	conv := func(v float64) uint8 { return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	c.SetSourceColour(colour.Colour{Red: conv(r), Green: conv(g), Blue: conv(b), Alpha: conv(a)})
}

// SetSourceImage uses img as the source with its origin placed at (x, y)
// in device space.
func (c *Context) SetSourceImage(img image.Image, x, y int) {
	c.st.source = img
	c.st.sourceAt = image.Pt(x, y)
	c.st.sourceIsRGB = true
}

// SetOperator sets the compositing operator used by Paint.
func (c *Context) SetOperator(op Operator) { c.st.op = op }

// Operator returns the current compositing operator.
func (c *Context) Operator() Operator { return c.st.op }

// SetLineWidth sets the stroke width in user space units.
func (c *Context) SetLineWidth(w float64) { c.st.lineWidth = w }

// LineWidth returns the stroke width in user space units.
func (c *Context) LineWidth() float64 { return c.st.lineWidth }

func (c *Context) SetLineCap(lc LineCap) { c.st.lineCap = lc }

func (c *Context) SetLineJoin(lj LineJoin) { c.st.lineJoin = lj }

// SetDash sets the on/off dash pattern. An empty pattern draws solid lines.
func (c *Context) SetDash(dashes []float64, offset float64) {
	c.st.dash = append([]float64(nil), dashes...)
	c.st.dashOffset = offset
}

// NewPath discards the current path.
func (c *Context) NewPath() {
	c.path = c.path[:0]
	c.hasCur = false
}

// MoveTo starts a new sub-path.
func (c *Context) MoveTo(x, y float64) {
	p := c.device(x, y)
	c.path = append(c.path, subpath{points: []f64.Vec2{p}})
	c.cur = p
	c.hasCur = true
}

// LineTo adds a line from the current point. Without a current point it
// behaves as MoveTo.
func (c *Context) LineTo(x, y float64) {
	if !c.hasCur {
		c.MoveTo(x, y)
		return
	}
	c.lineToDevice(c.device(x, y))
}

func (c *Context) lineToDevice(p f64.Vec2) {
	last := &c.path[len(c.path)-1]
	if last.closed {
		c.path = append(c.path, subpath{points: []f64.Vec2{c.cur}})
		last = &c.path[len(c.path)-1]
	}
	last.points = append(last.points, p)
	c.cur = p
}

// RelLineTo adds a line relative to the current point, in user space.
func (c *Context) RelLineTo(dx, dy float64) error {
	if !c.hasCur {
		return graphicsErr("rel_line_to", ErrNoCurrentPoint)
	}
	m := c.st.matrix
	c.lineToDevice(f64.Vec2{c.cur[0] + m[0]*dx + m[1]*dy, c.cur[1] + m[3]*dx + m[4]*dy})
	return nil
}

// ClosePath closes the current sub-path.
func (c *Context) ClosePath() {
	if len(c.path) == 0 {
		return
	}
	last := &c.path[len(c.path)-1]
	last.closed = true
	c.cur = last.points[0]
}

// Rectangle adds a closed rectangle sub-path.
func (c *Context) Rectangle(x, y, w, h float64) {
	c.MoveTo(x, y)
	c.LineTo(x+w, y)
	c.LineTo(x+w, y+h)
	c.LineTo(x, y+h)
	c.ClosePath()
}

// Arc adds a circular arc centred on (xc, yc) from angle1 to angle2,
// increasing angle. If there is a current point a line joins it to the
// start of the arc.
func (c *Context) Arc(xc, yc, radius, angle1, angle2 float64) {
	for angle2 < angle1 {
		angle2 += 2 * math.Pi
	}
	sweep := angle2 - angle1
	// segment count chosen so each chord deviates from the arc by well
	// under a pixel at the device size of the radius
	m := c.st.matrix
	devR := radius * math.Sqrt(math.Max(m[0]*m[0]+m[3]*m[3], m[1]*m[1]+m[4]*m[4]))
	steps := int(math.Ceil(sweep / (2 * math.Pi) * math.Max(16, devR*2)))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		a := angle1 + sweep*float64(i)/float64(steps)
		x, y := xc+radius*math.Cos(a), yc+radius*math.Sin(a)
		if i == 0 && !c.hasCur {
			c.MoveTo(x, y)
			continue
		}
		c.LineTo(x, y)
	}
}

// CurrentPoint returns the current point in device space.
func (c *Context) CurrentPoint() (x, y float64, ok bool) {
	return c.cur[0], c.cur[1], c.hasCur
}

// Fill fills the current path and clears it.
func (c *Context) Fill() error {
	if err := c.FillPreserve(); err != nil {
		return err
	}
	c.NewPath()
	return nil
}

// FillPreserve fills the current path using the non-zero winding rule and
// keeps the path.
func (c *Context) FillPreserve() error {
	sc, err := c.scanner("fill")
	if err != nil || sc == nil {
		return err
	}
	b := c.target.Bounds()
	f := rasterx.NewFiller(b.Dx(), b.Dy(), sc)
	f.SetWinding(true)
	for _, sp := range c.path {
		if len(sp.points) < 2 {
			continue
		}
		f.Start(toFixed(sp.points[0]))
		for _, p := range sp.points[1:] {
			f.Line(toFixed(p))
		}
		f.Stop(true)
	}
	f.Draw()
	return nil
}

// Stroke strokes the current path and clears it.
func (c *Context) Stroke() error {
	if err := c.StrokePreserve(); err != nil {
		return err
	}
	c.NewPath()
	return nil
}

// StrokePreserve strokes the current path with the current line width, cap,
// join and dash pattern, and keeps the path.
func (c *Context) StrokePreserve() error {
	sc, err := c.scanner("stroke")
	if err != nil || sc == nil {
		return err
	}
	scale := c.deviceScale()
	width := c.st.lineWidth * scale
	if width <= 0 {
		return nil
	}
	b := c.target.Bounds()
	capFn, gapFn, join := c.strokeStyle()
	var stroker interface {
		Start(fixed.Point26_6)
		Line(fixed.Point26_6)
		Stop(bool)
		Draw()
	}
	if len(c.st.dash) > 0 {
		dashes := make([]float64, len(c.st.dash))
		for i, d := range c.st.dash {
			dashes[i] = d * scale
		}
		d := rasterx.NewDasher(b.Dx(), b.Dy(), sc)
		d.SetStroke(toFixedLen(width), toFixedLen(c.st.miterLimit), capFn, capFn, gapFn, join, dashes, c.st.dashOffset*scale)
		stroker = d
	} else {
		s := rasterx.NewStroker(b.Dx(), b.Dy(), sc)
		s.SetStroke(toFixedLen(width), toFixedLen(c.st.miterLimit), capFn, capFn, gapFn, join)
		stroker = s
	}
	for _, sp := range c.path {
		if sp.degenerate() {
			if len(sp.points) > 0 && c.st.lineCap != CapButt {
				// a zero-length sub-path draws only its caps
				start := toFixed(sp.points[0])
				stroker.Start(start)
				stroker.Line(start.Add(fixed.Point26_6{X: 1}))
				stroker.Stop(false)
			}
			continue
		}
		stroker.Start(toFixed(sp.points[0]))
		for _, p := range sp.points[1:] {
			stroker.Line(toFixed(p))
		}
		stroker.Stop(sp.closed)
	}
	stroker.Draw()
	return nil
}

func (c *Context) strokeStyle() (rasterx.CapFunc, rasterx.GapFunc, rasterx.JoinMode) {
	var capFn rasterx.CapFunc = rasterx.ButtCap
	switch c.st.lineCap {
	case CapRound:
		capFn = rasterx.RoundCap
	case CapSquare:
		capFn = rasterx.SquareCap
	}
	switch c.st.lineJoin {
	case JoinRound:
		return capFn, rasterx.RoundGap, rasterx.Round
	case JoinBevel:
		return capFn, rasterx.FlatGap, rasterx.Bevel
	}
	return capFn, rasterx.FlatGap, rasterx.MiterClip
}

// scanner prepares a rasterizer for a solid source. It returns nil when
// there is nothing to draw.
func (c *Context) scanner(op string) (*rasterx.ScannerGV, error) {
	if c.st.sourceIsRGB {
		return nil, graphicsErr(op, errImageSource)
	}
	if len(c.path) == 0 {
		return nil, nil
	}
	col := c.st.source.At(0, 0)
	if _, _, _, a := col.RGBA(); a == 0 {
		return nil, nil
	}
	b := c.target.Bounds()
	sc := rasterx.NewScannerGV(b.Dx(), b.Dy(), c.target, b)
	sc.SetColor(col)
	return sc, nil
}

// Paint covers the whole surface with the source using the current
// operator.
func (c *Context) Paint() error {
	s := c.target
	if c.st.op == OperatorSource {
		if c.st.sourceIsRGB {
			sp := c.st.source.Bounds().Min.Sub(c.st.sourceAt)
			s.paintImage(c.st.source, sp)
			return nil
		}
		// the surface has no alpha channel, so a translucent source lands
		// as if composited over black
		col := c.st.source.At(0, 0)
		for y := s.Rect.Min.Y; y < s.Rect.Max.Y; y++ {
			for x := s.Rect.Min.X; x < s.Rect.Max.X; x++ {
				s.Set(x, y, col)
			}
		}
		return nil
	}
	origin := c.st.source.Bounds().Min.Sub(c.st.sourceAt)
	for y := s.Rect.Min.Y; y < s.Rect.Max.Y; y++ {
		for x := s.Rect.Min.X; x < s.Rect.Max.X; x++ {
			s.Set(x, y, over(s.At(x, y), c.st.source.At(origin.X+x, origin.Y+y)))
		}
	}
	return nil
}

// over composites src on top of dst. Both are alpha premultiplied.
func over(dst, src color.Color) color.Color {
	sr, sg, sb, sa := src.RGBA()
	if sa == 0xffff {
		return src
	}
	dr, dg, db, da := dst.RGBA()
	k := 0xffff - sa
	return color.RGBA64{
		R: uint16(sr + dr*k/0xffff),
		G: uint16(sg + dg*k/0xffff),
		B: uint16(sb + db*k/0xffff),
		A: uint16(sa + da*k/0xffff),
	}
}

func toFixed(p f64.Vec2) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(math.Round(p[0] * 64)), Y: fixed.Int26_6(math.Round(p[1] * 64))}
}

func toFixedLen(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
