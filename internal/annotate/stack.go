package annotate

import (
	"errors"
	"image"
	"log"

	"github.com/example/snapmark/internal/canvas"
	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/geometry"
	"github.com/example/snapmark/internal/render"
)

// Style holds the settings new operations are built from.
type Style struct {
	Primary      colour.Colour
	Secondary    colour.Colour
	LineWidth    float64
	Font         canvas.FontDescription
	BlurRadius   float64
	PixelateSize int
}

// DefaultStyle is a red stroke over a transparent fill.
func DefaultStyle() Style {
	return Style{
		Primary:      colour.Red,
		Secondary:    colour.Transparent,
		LineWidth:    DefaultLineWidth,
		Font:         canvas.ParseFontDescription("Go 16"),
		BlurRadius:   8,
		PixelateSize: render.DefaultPixelateSize,
	}
}

// Commit describes an operation that has just been committed. Tool is the
// tool the operation was started with, even if the current tool changed
// before it was finished.
type Commit struct {
	Operation Operation
	Tool      Tool
	// Saving is set when the tool ends the session.
	Saving bool
}

// Option configures an OperationStack.
type Option func(*OperationStack)

// WithStyle sets the initial drawing style.
func WithStyle(st Style) Option {
	return func(s *OperationStack) { s.style = st }
}

// WithLogger sets where skipped operations are reported.
func WithLogger(l *log.Logger) Option {
	return func(s *OperationStack) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTool sets the initially selected tool.
func WithTool(t Tool) Option {
	return func(s *OperationStack) { s.tool = t }
}

// OperationStack holds the committed operations of one capture, the redo
// buffer and at most one operation being dragged out. It is not safe for
// concurrent use.
type OperationStack struct {
	committed []Operation
	redo      []Operation

	current Operation
	// startTool is the tool current was started with.
	startTool Tool
	anchor    geometry.Point
	end       geometry.Point
	// hover is the window selection shown while a cropping tool is idle.
	hover *geometry.Rectangle

	tool          Tool
	selectionMode SelectionMode
	ignoreWindows bool
	inCropDrag    bool
	sealed        bool

	style  Style
	screen geometry.Rectangle
	// windows are ordered topmost first.
	windows   []Window
	cropFirst bool

	logger *log.Logger
}

// New returns an empty stack for a capture covering screen. Sessions that
// start with cropping begin on ToolCropAndSave, others on ToolPencil.
func New(screen geometry.Rectangle, windows []Window, cropFirst bool, opts ...Option) *OperationStack {
	s := &OperationStack{
		screen:    screen.Normalised(),
		windows:   append([]Window(nil), windows...),
		cropFirst: cropFirst,
		style:     DefaultStyle(),
		tool:      ToolPencil,
		logger:    log.Default(),
	}
	if cropFirst {
		s.tool = ToolCropAndSave
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Committed returns a copy of the committed operations, oldest first.
func (s *OperationStack) Committed() []Operation {
	return append([]Operation(nil), s.committed...)
}

// RedoLen is the number of operations that Redo can restore.
func (s *OperationStack) RedoLen() int { return len(s.redo) }

// Current returns the operation being drawn, or nil when idle.
func (s *OperationStack) Current() Operation { return s.current }

// Drawing reports whether an operation is in progress.
func (s *OperationStack) Drawing() bool { return s.current != nil }

// Sealed reports whether editing has finished.
func (s *OperationStack) Sealed() bool { return s.sealed }

func (s *OperationStack) Tool() Tool { return s.tool }
func (s *OperationStack) SelectionMode() SelectionMode { return s.selectionMode }
func (s *OperationStack) IgnoreWindows() bool { return s.ignoreWindows }
func (s *OperationStack) InCropDrag() bool { return s.inCropDrag }
func (s *OperationStack) CropFirst() bool { return s.cropFirst }
func (s *OperationStack) Style() Style { return s.style }
func (s *OperationStack) ScreenBounds() geometry.Rectangle {
	return s.screen
}

// Windows returns the windows detected at construction.
func (s *OperationStack) Windows() []Window {
	return append([]Window(nil), s.windows...)
}

// SetCurrentTool selects the tool used by the next StartOperationAt.
func (s *OperationStack) SetCurrentTool(t Tool) {
	s.tool = t
	if !t.IsCroppingTool() {
		s.hover = nil
	}
}

func (s *OperationStack) SetSelectionMode(m SelectionMode) { s.selectionMode = m }

// SetIgnoreWindows turns window snapping off. Turning it on also drops a
// snapped hover selection.
func (s *OperationStack) SetIgnoreWindows(ignore bool) {
	s.ignoreWindows = ignore
	if ignore {
		s.hover = nil
	}
}

func (s *OperationStack) SetInCropDrag(v bool) { s.inCropDrag = v }
func (s *OperationStack) SetPrimaryColour(c colour.Colour) { s.style.Primary = c }
func (s *OperationStack) SetSecondaryColour(c colour.Colour) { s.style.Secondary = c }
func (s *OperationStack) SetFont(f canvas.FontDescription) { s.style.Font = f }
func (s *OperationStack) SetBlurRadius(r float64) { s.style.BlurRadius = r }
func (s *OperationStack) SetPixelateSize(n int) { s.style.PixelateSize = n }
func (s *OperationStack) SetLineWidth(w float64) { s.style.LineWidth = w }

// WindowAt returns the topmost detected window whose selection rectangle
// contains p.
func (s *OperationStack) WindowAt(p geometry.Point) (Window, bool) {
	for _, w := range s.windows {
		if w.contains(p, s.selectionMode) {
			return w, true
		}
	}
	return Window{}, false
}

// StartOperationAt begins an operation of the current tool at p.
func (s *OperationStack) StartOperationAt(p geometry.Point) error {
	if s.sealed {
		return ErrSessionFinished
	}
	if s.current != nil {
		return ErrOperationInProgress
	}
	s.anchor, s.end = p, p
	s.startTool = s.tool
	s.hover = nil
	st := s.style
	zero := geometry.Rectangle{X: p.X, Y: p.Y}
	switch s.tool {
	case ToolCropAndSave, ToolCrop:
		s.current = Crop{Rect: zero}
	case ToolWindowSelect:
		s.current = WindowSelect{Rect: zero}
	case ToolPencil:
		s.current = DrawPencil{Points: []geometry.Point{p}, Colour: st.Primary, Width: st.LineWidth}
	case ToolLine:
		s.current = DrawLine{Start: p, End: p, Colour: st.Primary, Width: st.LineWidth}
	case ToolArrow:
		s.current = DrawArrow{Start: p, End: p, Colour: st.Primary, Width: st.LineWidth}
	case ToolRectangle:
		s.current = DrawRectangle{Rect: zero, Border: st.Primary, Fill: st.Secondary, Width: st.LineWidth}
	case ToolHighlight:
		s.current = Highlight{Rect: zero}
	case ToolEllipse:
		s.current = DrawEllipse{Ellipse: geometry.Ellipse{X: p.X, Y: p.Y}, Border: st.Primary, Fill: st.Secondary, Width: st.LineWidth}
	case ToolPixelate:
		s.current = Pixelate{Rect: zero, BlockSize: st.PixelateSize}
	case ToolBlur:
		s.current = Blur{Rect: zero, Radius: min(st.BlurRadius, render.MaxBlurRadius)}
	case ToolText:
		s.current = Text{Anchor: p, Colour: st.Primary, Font: st.Font}
	default:
		return errors.New("annotate: unknown tool " + s.tool.String())
	}
	if s.tool.IsCroppingTool() {
		s.snapCurrent(p)
	}
	return nil
}

// UpdateCurrentOperationEnd moves the end of the operation being drawn to
// p. A pencil stroke gains a point.
func (s *OperationStack) UpdateCurrentOperationEnd(p geometry.Point) error {
	if s.current == nil {
		return ErrNoOperation
	}
	s.end = p
	drag := geometry.RectangleBetween(s.anchor, p)
	switch op := s.current.(type) {
	case Crop:
		op.Rect = drag
		s.current = op
	case WindowSelect:
		op.Rect = drag
		s.current = op
	case DrawPencil:
		op.Points = append(op.Points, p)
		s.current = op
	case DrawLine:
		op.End = p
		s.current = op
	case DrawArrow:
		op.End = p
		s.current = op
	case DrawRectangle:
		op.Rect = drag
		s.current = op
	case Highlight:
		op.Rect = drag
		s.current = op
	case DrawEllipse:
		op.Ellipse = geometry.Ellipse{X: drag.X, Y: drag.Y, W: drag.W, H: drag.H}
		s.current = op
	case Pixelate:
		op.Rect = drag
		s.current = op
	case Blur:
		op.Rect = drag
		s.current = op
	}
	return nil
}

// UpdateCurrentText replaces the text of an in-progress Text operation.
func (s *OperationStack) UpdateCurrentText(text string) error {
	op, ok := s.current.(Text)
	if !ok {
		return ErrNoOperation
	}
	op.Text = text
	s.current = op
	return nil
}

// SetCurrentWindow snaps the selection of a cropping tool to the window
// under p. While a drag is under way, or when windows are ignored, the
// selection follows the pointer instead.
func (s *OperationStack) SetCurrentWindow(p geometry.Point) {
	if !s.tool.IsCroppingTool() || s.inCropDrag {
		return
	}
	if s.current == nil {
		s.hover = nil
		if s.ignoreWindows {
			return
		}
		if w, ok := s.WindowAt(p); ok {
			r := w.Rect(s.selectionMode)
			s.hover = &r
		}
		return
	}
	s.snapCurrent(p)
}

// snapCurrent sets the selection of the current operation to the window
// under p, or to the drag rectangle when there is none.
func (s *OperationStack) snapCurrent(p geometry.Point) {
	rect := geometry.RectangleBetween(s.anchor, s.end)
	if !s.ignoreWindows {
		if w, ok := s.WindowAt(p); ok {
			rect = w.Rect(s.selectionMode)
		}
	}
	switch op := s.current.(type) {
	case Crop:
		op.Rect = rect
		s.current = op
	case WindowSelect:
		op.Rect = rect
		s.current = op
	}
}

// FinishCurrentOperation commits the operation being drawn and clears the
// redo buffer.
func (s *OperationStack) FinishCurrentOperation() (Commit, error) {
	if s.current == nil {
		return Commit{}, ErrNoOperation
	}
	op := s.current
	s.commit(op)
	s.current = nil
	s.inCropDrag = false
	return Commit{Operation: op, Tool: s.startTool, Saving: s.startTool.IsSavingTool()}, nil
}

// DiscardCurrentOperation drops the operation being drawn.
func (s *OperationStack) DiscardCurrentOperation() {
	s.current = nil
	s.inCropDrag = false
}

// Push commits op directly, as if it had been drawn.
func (s *OperationStack) Push(op Operation) error {
	if s.sealed {
		return ErrSessionFinished
	}
	if s.current != nil {
		return ErrOperationInProgress
	}
	s.commit(op)
	return nil
}

func (s *OperationStack) commit(op Operation) {
	s.committed = append(s.committed, op)
	s.redo = s.redo[:0]
}

// Seal commits the Finish marker. No operation can be started afterwards.
func (s *OperationStack) Seal() {
	if s.sealed {
		return
	}
	s.current = nil
	s.committed = append(s.committed, Finish{})
	s.sealed = true
}

// Undo moves the last committed operation to the redo buffer.
func (s *OperationStack) Undo() bool {
	n := len(s.committed)
	if n == 0 || s.sealed {
		return false
	}
	s.redo = append(s.redo, s.committed[n-1])
	s.committed = s.committed[:n-1]
	return true
}

// Redo restores the operation most recently undone.
func (s *OperationStack) Redo() bool {
	n := len(s.redo)
	if n == 0 || s.sealed {
		return false
	}
	s.committed = append(s.committed, s.redo[n-1])
	s.redo = s.redo[:n-1]
	return true
}

// CropRegion resolves the output rectangle: the last committed crop or
// window selection with an area, else the window under p, else the whole
// screen.
func (s *OperationStack) CropRegion(p *geometry.Point) geometry.Rectangle {
	for i := len(s.committed) - 1; i >= 0; i-- {
		var r geometry.Rectangle
		switch op := s.committed[i].(type) {
		case Crop:
			r = op.Rect
		case WindowSelect:
			r = op.Rect
		default:
			continue
		}
		if !r.Empty() {
			return r.Normalised()
		}
	}
	if p != nil {
		if w, ok := s.WindowAt(*p); ok {
			return w.Rect(s.selectionMode).Normalised()
		}
	}
	return s.screen
}

// Execute replays the capture onto surface: base is painted first, then
// every committed operation in order and, when live, the operation being
// drawn. A graphics error ends the pass. Other failures are logged and the
// operation is skipped.
func (s *OperationStack) Execute(surface *canvas.Surface, c *canvas.Context, base image.Image, live bool) error {
	c.Save()
	c.SetOperator(canvas.OperatorSource)
	c.SetSourceImage(base, 0, 0)
	err := c.Paint()
	if rerr := c.Restore(); err == nil {
		err = rerr
	}
	if err != nil {
		return err
	}
	for _, op := range s.committed {
		if err := s.run(op, surface, c, false); err != nil {
			return err
		}
	}
	if !live {
		return nil
	}
	if s.current != nil {
		return s.run(s.current, surface, c, true)
	}
	if s.hover != nil && s.tool.IsCroppingTool() {
		return s.run(WindowSelect{Rect: *s.hover}, surface, c, true)
	}
	return nil
}

func (s *OperationStack) run(op Operation, surface *canvas.Surface, c *canvas.Context, live bool) error {
	err := op.Execute(surface, c, live)
	if err == nil {
		return nil
	}
	var gerr *canvas.GraphicsError
	if errors.As(err, &gerr) {
		return err
	}
	if errors.Is(err, ErrRegionOutOfBounds) {
		s.logger.Printf("skipping %T: %v", op, err)
		return nil
	}
	s.logger.Printf("%T failed: %v", op, err)
	return nil
}
