// Package appstate hosts an editing session in a shiny window.
package appstate

import (
	"image"
	"log"
	"os"
	"sync"
	"time"
	"unicode"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/snapmark/internal/annotate"
	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/geometry"
	"github.com/example/snapmark/internal/session"
	"github.com/example/snapmark/internal/theme"
)

const messageDuration = 2 * time.Second

// AppState is the editor window around one session.
type AppState struct {
	Title string
	Theme *theme.Theme

	session *session.Session
	base    image.Rectangle
	logger  *log.Logger
	chooser *colour.Chooser
	toolbar *toolbar
	view    viewport
	text    *textEntry
	hover   string

	message      string
	messageUntil time.Time

	// canvasDrag routes every pointer event to the session until the
	// button that started a drag on the image is released.
	canvasDrag bool
	dirty      bool

	send      func(any)
	onClose   func()
	closeOnce sync.Once

	sessionOpts []session.Option
}

type textEntry struct {
	anchor geometry.Point
	text   string
}

// colourPicked carries a sampled colour back to the event loop.
type colourPicked struct {
	colour colour.Colour
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(a *AppState) { a.Title = title } }

// WithTheme sets the chrome colours.
func WithTheme(th *theme.Theme) Option { return func(a *AppState) { a.Theme = th } }

// WithLogger sets the logger used by the window and its session.
func WithLogger(l *log.Logger) Option { return func(a *AppState) { a.logger = l } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// WithSessionOptions passes options through to the session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(a *AppState) { a.sessionOpts = append(a.sessionOpts, opts...) }
}

// New creates the window state and starts a session over base.
func New(base *image.RGBA, windows []annotate.Window, opts ...Option) *AppState {
	a := &AppState{
		Title:  "Snapmark",
		Theme:  theme.Default(),
		base:   base.Bounds(),
		logger: log.New(os.Stderr, "", log.LstdFlags),
		send:   func(any) {},
	}
	for _, o := range opts {
		o(a)
	}
	sessOpts := append([]session.Option{session.WithLogger(a.logger)}, a.sessionOpts...)
	sessOpts = append(sessOpts,
		session.WithRedraw(func() { a.dirty = true }),
		session.WithTextRequest(func(anchor geometry.Point) {
			a.text = &textEntry{anchor: anchor}
		}),
	)
	a.session = session.New(base, windows, sessOpts...)

	stack := a.session.Stack()
	a.chooser = colour.NewChooser(stack.Style().Primary)
	a.chooser.OnChange(func(c colour.Colour) {
		stack.SetPrimaryColour(c)
		a.dirty = true
	})
	a.toolbar = a.newToolbar()
	a.resize(a.base.Dx()+toolbarWidth, a.base.Dy()+statusHeight)
	return a
}

// Session returns the session being edited.
func (a *AppState) Session() *session.Session { return a.session }

func (a *AppState) newToolbar() *toolbar {
	stack := a.session.Stack()
	tb := &toolbar{hover: -1, pressed: -1}
	for _, t := range annotate.Tools() {
		t := t
		tb.buttons = append(tb.buttons, &CacheButton{Button: &ToolButton{
			LabelButton: LabelButton{label: toolLabel(t), action: func() { a.session.SetTool(t) }},
			tool:        t,
		}})
	}
	for _, c := range palette {
		tb.buttons = append(tb.buttons, &SwatchButton{colour: c, pick: a.pickSwatch})
	}
	for _, w := range widths {
		tb.buttons = append(tb.buttons, &WidthButton{
			width:  w,
			stroke: func() colour.Colour { return stack.Style().Primary },
			set:    stack.SetLineWidth,
		})
	}
	for _, b := range []*LabelButton{
		{label: "I:Pick", action: a.requestColourPick},
		{label: "Undo", action: a.session.Undo},
		{label: "Redo", action: a.session.Redo},
		{label: "Save", action: a.save},
	} {
		tb.buttons = append(tb.buttons, &CacheButton{Button: b})
	}
	tb.layout()
	return tb
}

func (a *AppState) pickSwatch(c colour.Colour, fill bool) {
	if fill {
		a.session.Stack().SetSecondaryColour(c)
		a.dirty = true
		return
	}
	a.chooser.SetColour(c)
}

func (a *AppState) requestColourPick() {
	ch := a.session.RequestColourPick()
	a.setMessage("click to pick a colour")
	send := a.send
	go func() {
		if c, ok := <-ch; ok {
			send(colourPicked{colour: c})
		}
	}()
}

func (a *AppState) save() {
	if err := a.session.Save(); err != nil {
		a.logger.Printf("save: %v", err)
		a.setMessage(err.Error())
	}
}

func (a *AppState) setMessage(msg string) {
	a.message = msg
	a.messageUntil = time.Now().Add(messageDuration)
	a.dirty = true
}

func (a *AppState) resize(w, h int) {
	a.view = newViewport(a.base, w, h)
	a.dirty = true
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		a.session.Close()
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main runs the window until the session ends.
func (a *AppState) Main(s screen.Screen) {
	defer a.notifyClose()

	w, err := s.NewWindow(&screen.NewWindowOptions{
		Width:  a.view.width,
		Height: a.view.height,
		Title:  a.Title,
	})
	if err != nil {
		a.logger.Printf("new window: %v", err)
		return
	}
	defer w.Release()
	a.send = w.Send

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
		case size.Event:
			a.resize(e.WidthPx, e.HeightPx)
		case paint.Event:
			a.paint(s, w)
			continue
		case mouse.Event:
			a.handleMouse(e)
		case key.Event:
			a.handleKey(e)
		case colourPicked:
			a.chooser.SetColour(e.colour)
			a.setMessage("picked " + e.colour.String())
		case error:
			a.logger.Printf("window: %v", e)
		}
		if a.session.Closed() {
			return
		}
		if a.dirty {
			a.dirty = false
			w.Send(paint.Event{})
		}
	}
}

func (a *AppState) paint(s screen.Screen, w screen.Window) {
	b, err := s.NewBuffer(image.Pt(a.view.width, a.view.height))
	if err != nil {
		a.logger.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	drawFrame(b.RGBA(), a.paintState())
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

func (a *AppState) paintState() paintState {
	stack := a.session.Stack()
	if !a.session.TextPending() {
		a.text = nil
	}
	msg := ""
	if a.message != "" && time.Now().Before(a.messageUntil) {
		msg = a.message
	}
	return paintState{
		view:      a.view,
		theme:     a.Theme,
		frame:     a.session.Frame(),
		toolbar:   a.toolbar,
		tool:      stack.Tool(),
		style:     stack.Style(),
		status:    statusLine(stack, a.hover, msg),
		textInput: a.text,
	}
}

func (a *AppState) handleMouse(e mouse.Event) {
	p := image.Pt(int(e.X), int(e.Y))
	if a.canvasDrag || p.In(a.view.canvas()) {
		a.handleCanvasMouse(e)
		return
	}
	if a.toolbar.hover != -1 {
		a.toolbar.hover = -1
		a.dirty = true
	}
	if !p.In(a.view.toolbar()) {
		return
	}
	idx := a.toolbar.hit(p)
	switch e.Direction {
	case mouse.DirNone:
		if idx != a.toolbar.hover {
			a.toolbar.hover = idx
			a.dirty = true
		}
	case mouse.DirPress:
		a.toolbar.pressed = idx
		a.dirty = true
	case mouse.DirRelease:
		if idx >= 0 && idx == a.toolbar.pressed {
			a.toolbar.buttons[idx].Activate(e.Button)
		}
		a.toolbar.pressed = -1
		a.dirty = true
	}
}

func (a *AppState) handleCanvasMouse(e mouse.Event) {
	ie := a.view.imageEvent(e)
	a.session.HandleMouse(ie)
	switch e.Direction {
	case mouse.DirPress:
		if e.Button == mouse.ButtonLeft {
			a.canvasDrag = a.session.Stack().Drawing() && !a.session.TextPending()
		}
	case mouse.DirRelease:
		if e.Button == mouse.ButtonLeft {
			a.canvasDrag = false
		}
	case mouse.DirNone:
		hover := ""
		if w, ok := a.session.Stack().WindowAt(geometry.Pt(float64(ie.X), float64(ie.Y))); ok {
			hover = w.Title
		}
		if hover != a.hover {
			a.hover = hover
			a.dirty = true
		}
	}
}

func (a *AppState) handleKey(e key.Event) {
	if a.text != nil && a.session.TextPending() {
		if a.handleTextKey(e) {
			return
		}
	}
	if e.Direction == key.DirPress && e.Modifiers == 0 {
		if e.Rune == 'i' {
			a.requestColourPick()
			return
		}
		for t, r := range toolKeys {
			if e.Rune == r {
				a.session.SetTool(t)
				return
			}
		}
	}
	if e.Direction == key.DirPress && e.Modifiers&key.ModControl != 0 && (e.Code == key.CodeS || e.Rune == 's') {
		a.save()
		return
	}
	a.session.HandleKey(e)
}

// handleTextKey edits the pending text. It reports whether e was consumed.
func (a *AppState) handleTextKey(e key.Event) bool {
	if e.Direction == key.DirRelease {
		return e.Code != key.CodeLeftControl && e.Code != key.CodeRightControl &&
			e.Code != key.CodeLeftShift && e.Code != key.CodeRightShift
	}
	a.dirty = true
	switch e.Code {
	case key.CodeEscape:
		a.text = nil
		return false
	case key.CodeReturnEnter:
		text := a.text.text
		a.text = nil
		if err := a.session.SubmitText(text); err != nil {
			a.logger.Printf("text: %v", err)
		}
		return true
	case key.CodeDeleteBackspace:
		if r := []rune(a.text.text); len(r) > 0 {
			a.text.text = string(r[:len(r)-1])
		}
		return true
	}
	if e.Rune > 0 && unicode.IsPrint(e.Rune) && e.Modifiers&key.ModControl == 0 {
		a.text.text += string(e.Rune)
		return true
	}
	return e.Modifiers&key.ModControl == 0
}
