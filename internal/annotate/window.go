package annotate

import "github.com/example/snapmark/internal/geometry"

// SelectionMode picks which rectangle of a window the selection snaps to.
type SelectionMode int

const (
	WindowsWithDecorations SelectionMode = iota
	WindowsWithoutDecorations
)

// Window is a top-level window detected when the capture was taken.
type Window struct {
	Title string
	// Outer includes the frame drawn by the window manager.
	Outer geometry.Rectangle
	// Content is the client area.
	Content geometry.Rectangle
}

// Rect returns the rectangle used for mode. A window without a known
// content area always uses Outer.
func (w Window) Rect(mode SelectionMode) geometry.Rectangle {
	if mode == WindowsWithoutDecorations && !w.Content.Empty() {
		return w.Content
	}
	return w.Outer
}

func (w Window) contains(p geometry.Point, mode SelectionMode) bool {
	return w.Rect(mode).Contains(p)
}
