// Package session routes pointer and key input for one capture to its
// operation stack, keeps the rendered frame up to date and reports how the
// capture ended.
package session

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/google/uuid"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/snapmark/internal/annotate"
	"github.com/example/snapmark/internal/canvas"
	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/geometry"
)

// ErrClosed is returned by operations on a session that has ended.
var ErrClosed = errors.New("session closed")

// Result is the finished capture, already cropped to Crop.
type Result struct {
	Image *image.RGBA
	Crop  image.Rectangle
}

// PendingColourRequest is either empty or waiting for the next primary
// click to pick a colour from the frame.
type PendingColourRequest struct {
	reply chan colour.Colour
}

// Awaiting reports whether a click will be consumed as a colour pick.
func (r PendingColourRequest) Awaiting() bool { return r.reply != nil }

func (r *PendingColourRequest) deliver(c colour.Colour) {
	r.reply <- c
	close(r.reply)
	r.reply = nil
}

func (r *PendingColourRequest) drop() {
	if r.reply != nil {
		close(r.reply)
		r.reply = nil
	}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option { return func(s *Session) { s.logger = l } }

// WithRedraw registers a callback run after every new frame.
func WithRedraw(fn func()) Option { return func(s *Session) { s.onRedraw = fn } }

// WithFinish registers the callback that receives the saved capture.
func WithFinish(fn func(Result)) Option { return func(s *Session) { s.onFinish = fn } }

// WithClose registers a callback for sessions closed without saving.
func WithClose(fn func()) Option { return func(s *Session) { s.onClose = fn } }

// WithTextRequest registers the callback asked for the text of a Text
// operation. The host answers with SubmitText or CancelText.
func WithTextRequest(fn func(anchor geometry.Point)) Option {
	return func(s *Session) { s.onTextRequest = fn }
}

// WithCropFirst starts the session with the crop-and-save tool and enables
// saving with Return.
func WithCropFirst(v bool) Option { return func(s *Session) { s.cropFirst = v } }

// WithStyle sets the initial drawing style.
func WithStyle(st annotate.Style) Option { return func(s *Session) { s.style = &st } }

// Session is one capture being annotated. It is driven from the host's
// event loop and is not safe for concurrent use.
type Session struct {
	id     string
	base   *image.RGBA
	stack  *annotate.OperationStack
	logger *log.Logger

	// front is the last frame that rendered without error.
	front, back *canvas.Surface

	pending     PendingColourRequest
	textPending bool
	dragging    bool
	pointer     geometry.Point
	closed      bool
	cropFirst   bool
	style       *annotate.Style

	onRedraw      func()
	onFinish      func(Result)
	onClose       func()
	onTextRequest func(geometry.Point)
}

// New starts a session over base with the windows detected at capture time.
func New(base *image.RGBA, windows []annotate.Window, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		base:   base,
		logger: log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	stackOpts := []annotate.Option{annotate.WithLogger(s.logger)}
	if s.style != nil {
		stackOpts = append(stackOpts, annotate.WithStyle(*s.style))
	}
	b := base.Bounds()
	s.stack = annotate.New(geometry.RectangleFromImage(b), windows, s.cropFirst, stackOpts...)
	s.front = canvas.NewSurface(b.Dx(), b.Dy())
	s.back = canvas.NewSurface(b.Dx(), b.Dy())
	if err := s.Render(); err != nil {
		s.logger.Printf("session %s: first frame: %v", s.id, err)
	}
	return s
}

// ID identifies the session in logs and notifications.
func (s *Session) ID() string { return s.id }

// Stack exposes the operation stack for hosts that show tool state.
func (s *Session) Stack() *annotate.OperationStack { return s.stack }

// Frame is the most recent successfully rendered frame.
func (s *Session) Frame() *canvas.Surface { return s.front }

// Closed reports whether the session has been saved or closed.
func (s *Session) Closed() bool { return s.closed }

// Pending returns the colour pick state.
func (s *Session) Pending() PendingColourRequest { return s.pending }

// TextPending reports whether a Text operation is waiting for SubmitText.
func (s *Session) TextPending() bool { return s.textPending }

// Render draws the live frame into the back buffer and swaps it in. On
// error the previous frame stays current.
func (s *Session) Render() error {
	ctx := canvas.NewContext(s.back)
	if err := s.stack.Execute(s.back, ctx, s.base, true); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	s.front, s.back = s.back, s.front
	return nil
}

func (s *Session) redraw() {
	if err := s.Render(); err != nil {
		s.logger.Printf("session %s: %v", s.id, err)
		return
	}
	if s.onRedraw != nil {
		s.onRedraw()
	}
}

// Undo removes the last operation.
func (s *Session) Undo() {
	if s.stack.Undo() {
		s.redraw()
	}
}

// Redo restores the last undone operation.
func (s *Session) Redo() {
	if s.stack.Redo() {
		s.redraw()
	}
}

// SetTool changes the active tool.
func (s *Session) SetTool(t annotate.Tool) {
	s.stack.SetCurrentTool(t)
	s.stack.SetCurrentWindow(s.pointer)
	s.redraw()
}

// SetSelectionMode switches between outer and content window rectangles.
func (s *Session) SetSelectionMode(m annotate.SelectionMode) {
	if s.stack.SelectionMode() == m {
		return
	}
	s.stack.SetSelectionMode(m)
	s.stack.SetCurrentWindow(s.pointer)
	s.redraw()
}

// SetIgnoreWindows turns window snapping off or back on.
func (s *Session) SetIgnoreWindows(ignore bool) {
	if s.stack.IgnoreWindows() == ignore {
		return
	}
	s.stack.SetIgnoreWindows(ignore)
	s.stack.SetCurrentWindow(s.pointer)
	s.redraw()
}

// RequestColourPick makes the next primary click sample the frame instead
// of drawing. The channel receives exactly one colour, or is closed empty
// if the session ends first. An earlier request is dropped.
func (s *Session) RequestColourPick() <-chan colour.Colour {
	s.pending.drop()
	ch := make(chan colour.Colour, 1)
	if s.closed {
		close(ch)
		return ch
	}
	s.pending.reply = ch
	return ch
}

// HandleMouse processes a pointer event in image coordinates.
func (s *Session) HandleMouse(e mouse.Event) {
	if s.closed {
		return
	}
	p := geometry.Pt(float64(e.X), float64(e.Y))
	switch e.Direction {
	case mouse.DirPress:
		switch e.Button {
		case mouse.ButtonRight:
			s.Close()
		case mouse.ButtonLeft:
			s.press(p)
		}
	case mouse.DirNone:
		s.move(p)
	case mouse.DirRelease:
		if e.Button == mouse.ButtonLeft {
			s.release(p)
		}
	}
}

func (s *Session) press(p geometry.Point) {
	s.pointer = p
	if s.pending.Awaiting() {
		c, err := s.front.ColourAt(int(p.X), int(p.Y))
		if err != nil {
			s.logger.Printf("session %s: colour pick: %v", s.id, err)
			return
		}
		s.pending.deliver(c)
		return
	}
	if s.textPending {
		return
	}
	if err := s.stack.StartOperationAt(p); err != nil {
		s.logger.Printf("session %s: start: %v", s.id, err)
		return
	}
	s.dragging = true
	s.redraw()
}

func (s *Session) move(p geometry.Point) {
	s.pointer = p
	if s.dragging {
		if err := s.stack.UpdateCurrentOperationEnd(p); err != nil {
			s.logger.Printf("session %s: update: %v", s.id, err)
		}
		if s.stack.Tool().IsCroppingTool() {
			s.stack.SetInCropDrag(true)
		}
	}
	s.stack.SetCurrentWindow(p)
	s.redraw()
}

func (s *Session) release(p geometry.Point) {
	s.pointer = p
	if !s.dragging {
		return
	}
	s.dragging = false
	if err := s.stack.UpdateCurrentOperationEnd(p); err != nil {
		s.logger.Printf("session %s: update: %v", s.id, err)
		return
	}
	if s.stack.Tool() == annotate.ToolText {
		if s.onTextRequest == nil {
			s.stack.DiscardCurrentOperation()
			s.redraw()
			return
		}
		s.textPending = true
		s.onTextRequest(p)
		return
	}
	commit, err := s.stack.FinishCurrentOperation()
	if err != nil {
		s.logger.Printf("session %s: finish: %v", s.id, err)
		return
	}
	s.committed(commit, p)
}

// committed applies the effects of a commit made at p: saving tools end
// the session and a plain crop hands over to the pencil.
func (s *Session) committed(commit annotate.Commit, p geometry.Point) {
	if commit.Saving {
		if err := s.finish(&p); err != nil {
			s.logger.Printf("session %s: save: %v", s.id, err)
		}
		return
	}
	if commit.Tool == annotate.ToolCrop {
		s.stack.SetCurrentTool(annotate.ToolPencil)
	}
	s.redraw()
}

// SubmitText commits the Text operation waiting for input. Empty text
// discards it. The commit belongs to the text tool, so switching tools
// while typing never ends the session.
func (s *Session) SubmitText(text string) error {
	if !s.textPending {
		return annotate.ErrNoOperation
	}
	s.textPending = false
	if text == "" {
		s.stack.DiscardCurrentOperation()
		s.redraw()
		return nil
	}
	if err := s.stack.UpdateCurrentText(text); err != nil {
		return err
	}
	anchor := s.pointer
	if txt, ok := s.stack.Current().(annotate.Text); ok {
		anchor = txt.Anchor
	}
	commit, err := s.stack.FinishCurrentOperation()
	if err != nil {
		return err
	}
	s.committed(commit, anchor)
	return nil
}

// CancelText drops the Text operation waiting for input.
func (s *Session) CancelText() {
	if !s.textPending {
		return
	}
	s.textPending = false
	s.stack.DiscardCurrentOperation()
	s.redraw()
}

// HandleKey processes a key event.
func (s *Session) HandleKey(e key.Event) {
	if s.closed {
		return
	}
	switch e.Code {
	case key.CodeLeftControl, key.CodeRightControl:
		switch e.Direction {
		case key.DirPress:
			s.SetIgnoreWindows(true)
		case key.DirRelease:
			s.SetIgnoreWindows(false)
		}
		return
	case key.CodeLeftShift, key.CodeRightShift:
		switch e.Direction {
		case key.DirPress:
			s.SetSelectionMode(annotate.WindowsWithoutDecorations)
		case key.DirRelease:
			s.SetSelectionMode(annotate.WindowsWithDecorations)
		}
		return
	}
	if e.Direction != key.DirPress {
		return
	}
	switch {
	case e.Code == key.CodeEscape:
		if s.textPending {
			s.CancelText()
			return
		}
		s.Close()
	case e.Code == key.CodeReturnEnter:
		if !s.cropFirst || s.textPending {
			return
		}
		if err := s.Save(); err != nil {
			s.logger.Printf("session %s: save: %v", s.id, err)
		}
	case e.Modifiers&key.ModControl != 0 && (e.Code == key.CodeZ || e.Rune == 'z'):
		s.Undo()
	case e.Modifiers&key.ModControl != 0 && (e.Code == key.CodeY || e.Rune == 'y'):
		s.Redo()
	}
}

// Save renders the capture without live overlays, crops it and hands it
// to the finish callback.
func (s *Session) Save() error {
	if s.closed {
		return ErrClosed
	}
	if s.stack.Drawing() {
		s.stack.DiscardCurrentOperation()
		s.dragging = false
		s.textPending = false
	}
	return s.finish(nil)
}

func (s *Session) finish(p *geometry.Point) error {
	rect := s.stack.CropRegion(p).Image().Intersect(s.base.Bounds())
	if rect.Empty() {
		rect = s.base.Bounds()
	}
	b := s.base.Bounds()
	out := canvas.NewSurface(b.Dx(), b.Dy())
	if err := s.stack.Execute(out, canvas.NewContext(out), s.base, false); err != nil {
		return err
	}
	s.stack.Seal()
	s.end()
	s.logger.Printf("session %s: saved %dx%d region at %v", s.id, rect.Dx(), rect.Dy(), rect.Min)
	if s.onFinish != nil {
		s.onFinish(Result{Image: out.RGBA(rect), Crop: rect})
	}
	return nil
}

// Close ends the session without saving.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.end()
	if s.onClose != nil {
		s.onClose()
	}
}

func (s *Session) end() {
	s.closed = true
	s.dragging = false
	s.textPending = false
	s.pending.drop()
}
