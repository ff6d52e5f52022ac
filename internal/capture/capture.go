// Package capture takes screenshots and describes the windows on screen.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/example/snapmark/internal/annotate"
	"github.com/example/snapmark/internal/geometry"
)

// Options controls a screenshot.
type Options struct {
	// Interactive lets the portal show its own selection dialog.
	Interactive bool
	// Display crops the capture to one monitor, see FindMonitor.
	Display string
}

var (
	portalCapture = portalScreenshot
	rootCapture   = func() (*image.RGBA, error) { return backend.RootImage() }
)

// Screenshot captures the desktop through the screenshot portal, falling
// back to reading the X11 root window.
func Screenshot(ctx context.Context, opts Options) (*image.RGBA, error) {
	img, portalErr := portalCapture(ctx, opts)
	if portalErr != nil {
		if errors.Is(portalErr, context.Canceled) || errors.Is(portalErr, context.DeadlineExceeded) || opts.Interactive {
			return nil, portalErr
		}
		var rootErr error
		img, rootErr = rootCapture()
		if rootErr != nil {
			return nil, fmt.Errorf("screenshot: %w", errors.Join(portalErr, rootErr))
		}
	}
	if opts.Display == "" {
		return img, nil
	}
	monitors, err := ListMonitors()
	if err != nil {
		return nil, err
	}
	monitor, err := FindMonitor(monitors, opts.Display)
	if err != nil {
		return nil, err
	}
	return cropToRect(img, monitor.Rect.Sub(unionRect(monitors).Min))
}

// ScreenBounds is the union of all monitors in global coordinates.
func ScreenBounds() (image.Rectangle, error) {
	monitors, err := ListMonitors()
	if err != nil {
		return image.Rectangle{}, err
	}
	return unionRect(monitors), nil
}

func unionRect(monitors []MonitorInfo) image.Rectangle {
	var r image.Rectangle
	for _, m := range monitors {
		r = r.Union(m.Rect)
	}
	return r
}

// Windows returns the on-screen windows, topmost first, in the coordinates
// of a screenshot whose top-left corner is origin.
func Windows(origin image.Point) ([]annotate.Window, error) {
	infos, err := ListWindows()
	if err != nil {
		return nil, err
	}
	windows := make([]annotate.Window, 0, len(infos))
	for _, info := range infos {
		if info.Outer.Empty() && info.Content.Empty() {
			continue
		}
		outer := info.Outer
		if outer.Empty() {
			outer = info.Content
		}
		windows = append(windows, annotate.Window{
			Title:   info.Title,
			Outer:   geometry.RectangleFromImage(outer.Sub(origin)),
			Content: geometry.RectangleFromImage(info.Content.Sub(origin)),
		})
	}
	return windows, nil
}

// CaptureWindow captures the desktop and crops it to the window matched by
// selector, including its frame.
func CaptureWindow(ctx context.Context, selector string) (*image.RGBA, WindowInfo, error) {
	windows, err := ListWindows()
	if err != nil {
		return nil, WindowInfo{}, fmt.Errorf("capture window %q: %w", selector, err)
	}
	info, err := SelectWindow(selector, windows)
	if err != nil {
		return nil, WindowInfo{}, fmt.Errorf("capture window %q: %w", selector, err)
	}
	shot, err := Screenshot(ctx, Options{})
	if err != nil {
		return nil, WindowInfo{}, err
	}
	var origin image.Point
	if bounds, err := ScreenBounds(); err == nil {
		origin = bounds.Min
	}
	img, err := cropToRect(shot, info.Outer.Sub(origin))
	if err != nil {
		return nil, WindowInfo{}, fmt.Errorf("capture window %q: %w", selector, err)
	}
	return img, info, nil
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
