//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Without cgo the clipboard is served directly over X11: a hidden window
// owns CLIPBOARD and answers selection requests with the last PNG written.

var (
	initOnce     sync.Once
	initErr      error
	owner        *selectionOwner
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
)

func ensureInit() error {
	initOnce.Do(func() {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			initErr = errNoDisplay
			return
		}
		o, err := newSelectionOwner()
		if err != nil {
			initErr = fmt.Errorf("x11 clipboard: %w", err)
			return
		}
		owner = o
	})
	return initErr
}

func platformWritePNG(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return owner.publish(data)
}

func platformReadPNG() ([]byte, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	return owner.read(owner.atoms.png)
}

type selectionAtoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	png       xproto.Atom
	property  xproto.Atom
}

type selectionOwner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  selectionAtoms

	mu  sync.RWMutex
	png []byte
}

func newSelectionOwner() (*selectionOwner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	const mask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, []uint32{mask}).Check(); err != nil {
		conn.Close()
		return nil, err
	}
	atoms, err := internSelectionAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return nil, err
	}
	o := &selectionOwner{conn: conn, window: window, atoms: atoms}
	go o.serve()
	return o, nil
}

func internSelectionAtoms(conn *xgb.Conn) (selectionAtoms, error) {
	var atoms selectionAtoms
	for name, dst := range map[string]*xproto.Atom{
		"CLIPBOARD":          &atoms.clipboard,
		"TARGETS":            &atoms.targets,
		"image/png":          &atoms.png,
		"SNAPMARK_CLIPBOARD": &atoms.property,
	} {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return atoms, fmt.Errorf("intern %s: %w", name, err)
		}
		*dst = reply.Atom
	}
	return atoms, nil
}

func (o *selectionOwner) publish(data []byte) error {
	o.mu.Lock()
	o.png = append([]byte(nil), data...)
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (o *selectionOwner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.png = nil
			o.mu.Unlock()
		}
	}
}

// answer writes the requested target to the requestor's property and
// notifies it. Unknown targets are refused with a None property.
func (o *selectionOwner) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}
	o.mu.RLock()
	data := o.png
	o.mu.RUnlock()

	switch {
	case e.Target == o.atoms.targets:
		payload := targetList(o.atoms, len(data) > 0)
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property, xproto.AtomAtom, 32, uint32(len(payload)/4), payload)
	case e.Target == o.atoms.png && len(data) > 0:
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property, o.atoms.png, 8, uint32(len(data)), data)
	default:
		property = xproto.AtomNone
	}
	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	_ = xproto.SendEvent(o.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

// targetList encodes the TARGETS reply.
func targetList(atoms selectionAtoms, hasImage bool) []byte {
	targets := []xproto.Atom{atoms.targets}
	if hasImage {
		targets = append(targets, atoms.png)
	}
	buf := make([]byte, len(targets)*4)
	for i, atom := range targets {
		xgb.Put32(buf[i*4:], uint32(atom))
	}
	return buf
}

// read converts the CLIPBOARD selection to target on a second connection,
// since the owner connection's events belong to serve.
func (o *selectionOwner) read(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	if err := xproto.ConvertSelectionChecked(conn, window, o.atoms.clipboard, target, o.atoms.property, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		e, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if e.Property == xproto.AtomNone {
			return nil, fmt.Errorf("clipboard has no image")
		}
		reply, perr := xproto.GetProperty(conn, true, window, e.Property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, perr
		}
		return append([]byte(nil), reply.Value...), nil
	}
}
