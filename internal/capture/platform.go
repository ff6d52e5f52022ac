package capture

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

type platformBackend interface {
	Monitors() ([]MonitorInfo, error)
	Windows() ([]WindowInfo, error)
	RootImage() (*image.RGBA, error)
}

var backend = newBackend()

var (
	errNoMonitors = errors.New("no monitors available")
	errNoWindows  = errors.New("no windows available")
)

// MonitorInfo describes an individual monitor in the display layout.
type MonitorInfo struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

// WindowInfo describes a top-level window in global screen coordinates.
type WindowInfo struct {
	Index int
	ID    uint32
	Title string
	Class string
	PID   uint32
	// Outer includes the window manager frame, Content is the client area.
	Outer   image.Rectangle
	Content image.Rectangle
	Active  bool
}

// ListMonitors retrieves all monitors using the platform backend.
func ListMonitors() ([]MonitorInfo, error) {
	return backend.Monitors()
}

// ListWindows retrieves top-level windows, topmost first.
func ListWindows() ([]WindowInfo, error) {
	return backend.Windows()
}

// FindMonitor resolves a monitor selector: empty for the first monitor,
// "primary", an index, or part of the output name.
func FindMonitor(monitors []MonitorInfo, selector string) (MonitorInfo, error) {
	if len(monitors) == 0 {
		return MonitorInfo{}, errNoMonitors
	}
	sel := strings.ToLower(strings.TrimSpace(selector))
	switch sel {
	case "":
		return monitors[0], nil
	case "primary":
		for _, mon := range monitors {
			if mon.Primary {
				return mon, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(sel, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return MonitorInfo{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, mon := range monitors {
		if strings.Contains(strings.ToLower(mon.Name), sel) {
			return mon, nil
		}
	}
	return MonitorInfo{}, fmt.Errorf("monitor %q not found", selector)
}

// SelectWindow matches a selector against windows. Selectors are "active",
// "index:N", "id:0xNN", "pid:N", "class:name", "title:text" or free text
// matched against title and class.
func SelectWindow(selector string, windows []WindowInfo) (WindowInfo, error) {
	if len(windows) == 0 {
		return WindowInfo{}, errNoWindows
	}
	sel := strings.TrimSpace(selector)
	lower := strings.ToLower(sel)
	prefix, value, hasPrefix := strings.Cut(lower, ":")
	switch prefix {
	case "index", "id", "pid", "class", "title":
	default:
		hasPrefix = false
	}
	if !hasPrefix {
		prefix, value = "", lower
	}
	value = strings.TrimSpace(value)
	match := func(ok func(WindowInfo) bool, what string) (WindowInfo, error) {
		for _, win := range windows {
			if ok(win) {
				return win, nil
			}
		}
		return WindowInfo{}, fmt.Errorf("no window with %s", what)
	}
	switch prefix {
	case "index":
		idx, err := strconv.Atoi(value)
		if err != nil || idx < 0 || idx >= len(windows) {
			return WindowInfo{}, fmt.Errorf("invalid window index %q", value)
		}
		return windows[idx], nil
	case "id":
		id, err := parseWindowID(value)
		if err != nil {
			return WindowInfo{}, err
		}
		return match(func(w WindowInfo) bool { return w.ID == id }, fmt.Sprintf("id 0x%x", id))
	case "pid":
		pid, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return WindowInfo{}, fmt.Errorf("invalid pid %q", value)
		}
		return match(func(w WindowInfo) bool { return w.PID == uint32(pid) }, fmt.Sprintf("pid %d", pid))
	case "class":
		return match(func(w WindowInfo) bool { return strings.Contains(strings.ToLower(w.Class), value) }, "class "+strconv.Quote(value))
	case "title":
		return match(func(w WindowInfo) bool { return strings.Contains(strings.ToLower(w.Title), value) }, "title "+strconv.Quote(value))
	}
	switch {
	case value == "" || value == "active":
		win, err := match(func(w WindowInfo) bool { return w.Active }, "focus")
		if err != nil && value == "" {
			return windows[0], nil
		}
		return win, err
	case strings.HasPrefix(value, "0x"):
		if id, err := parseWindowID(value); err == nil {
			return match(func(w WindowInfo) bool { return w.ID == id }, fmt.Sprintf("id 0x%x", id))
		}
	}
	if idx, err := strconv.Atoi(value); err == nil && idx >= 0 && idx < len(windows) {
		return windows[idx], nil
	}
	return match(func(w WindowInfo) bool {
		return strings.Contains(strings.ToLower(w.Title), value) || strings.Contains(strings.ToLower(w.Class), value)
	}, "title or class "+strconv.Quote(sel))
}

func parseWindowID(val string) (uint32, error) {
	v := strings.ToLower(strings.TrimSpace(val))
	base := 10
	if strings.HasPrefix(v, "0x") {
		v, base = v[2:], 16
	}
	parsed, err := strconv.ParseUint(v, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", val)
	}
	return uint32(parsed), nil
}
