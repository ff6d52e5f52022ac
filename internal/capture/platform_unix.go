//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

type x11Backend struct{}

func newBackend() platformBackend {
	return x11Backend{}
}

func runningOnWayland() bool {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")), "wayland") {
		return true
	}
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

func connect() (*xgb.Conn, *xproto.ScreenInfo, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, nil, fmt.Errorf("connect X server: %w", err)
	}
	setup := xproto.Setup(conn)
	if setup == nil {
		conn.Close()
		return nil, nil, fmt.Errorf("xproto setup unavailable")
	}
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		conn.Close()
		return nil, nil, fmt.Errorf("xproto screen unavailable")
	}
	return conn, screen, nil
}

func (x11Backend) Monitors() ([]MonitorInfo, error) {
	conn, screen, err := connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	monitors, err := fetchMonitors(conn, screen.Root)
	if err != nil {
		return nil, err
	}
	if len(monitors) == 0 {
		return nil, errNoMonitors
	}
	return monitors, nil
}

func (x11Backend) Windows() ([]WindowInfo, error) {
	conn, screen, err := connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	activeID, _ := fetchActiveWindow(conn, screen.Root)
	windows, err := fetchWindows(conn, screen.Root, activeID)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, errNoWindows
	}
	return windows, nil
}

// RootImage reads the whole root window. Under Wayland the X server only
// sees XWayland clients, so the portal is used there instead.
func (x11Backend) RootImage() (*image.RGBA, error) {
	if runningOnWayland() {
		return nil, fmt.Errorf("root window capture is unavailable under wayland")
	}
	conn, screen, err := connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	w, h := screen.WidthInPixels, screen.HeightInPixels
	reply, err := xproto.GetImage(conn, xproto.ImageFormatZPixmap, xproto.Drawable(screen.Root), 0, 0, w, h, ^uint32(0)).Reply()
	if err != nil {
		return nil, fmt.Errorf("root pixels: %w", err)
	}
	return xImageToRGBA(xproto.Setup(conn), reply, int(w), int(h), "root window")
}

func fetchMonitors(conn *xgb.Conn, root xproto.Window) ([]MonitorInfo, error) {
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("init randr: %w", err)
	}
	res, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("randr screen resources: %w", err)
	}
	primaryOutput := randr.Output(0)
	if primary, err := randr.GetOutputPrimary(conn, root).Reply(); err == nil {
		primaryOutput = primary.Output
	}
	var monitors []MonitorInfo
	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(conn, output, res.ConfigTimestamp).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		monitors = append(monitors, MonitorInfo{
			Index:   len(monitors),
			Name:    strings.TrimSpace(string(info.Name)),
			Rect:    image.Rect(int(crtc.X), int(crtc.Y), int(crtc.X)+int(crtc.Width), int(crtc.Y)+int(crtc.Height)),
			Primary: output == primaryOutput,
		})
	}
	return monitors, nil
}

func fetchActiveWindow(conn *xgb.Conn, root xproto.Window) (uint32, error) {
	atom, err := internAtom(conn, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return 0, err
	}
	reply, err := xproto.GetProperty(conn, false, root, atom, xproto.AtomWindow, 0, 1).Reply()
	if err != nil {
		return 0, err
	}
	if reply.Format != 32 || reply.ValueLen == 0 {
		return 0, fmt.Errorf("active window unavailable")
	}
	return xgb.Get32(reply.Value), nil
}

// fetchWindows lists managed windows from the stacking order, topmost
// first.
func fetchWindows(conn *xgb.Conn, root xproto.Window, activeID uint32) ([]WindowInfo, error) {
	var reply *xproto.GetPropertyReply
	for _, name := range []string{"_NET_CLIENT_LIST_STACKING", "_NET_CLIENT_LIST"} {
		atom, err := internAtom(conn, name)
		if err != nil {
			return nil, err
		}
		reply, err = xproto.GetProperty(conn, false, root, atom, xproto.AtomWindow, 0, 1<<16).Reply()
		if err == nil && reply.Format == 32 && reply.ValueLen > 0 {
			break
		}
		reply = nil
	}
	if reply == nil {
		return nil, nil
	}
	windows := make([]WindowInfo, 0, reply.ValueLen)
	for idx := int(reply.ValueLen) - 1; idx >= 0; idx-- {
		win := xproto.Window(xgb.Get32(reply.Value[idx*4:]))
		info, err := describeWindow(conn, root, win)
		if err != nil {
			continue
		}
		info.Index = len(windows)
		info.Active = info.ID == activeID
		windows = append(windows, info)
	}
	return windows, nil
}

func describeWindow(conn *xgb.Conn, root xproto.Window, win xproto.Window) (WindowInfo, error) {
	title := readUTF8Property(conn, win, "_NET_WM_NAME")
	if title == "" {
		title = readStringProperty(conn, win, "WM_NAME")
	}
	content, err := windowRect(conn, root, win)
	if err != nil {
		return WindowInfo{}, err
	}
	return WindowInfo{
		ID:      uint32(win),
		Title:   title,
		Class:   readClass(conn, win),
		PID:     readCardinal(conn, win, "_NET_WM_PID"),
		Content: content,
		Outer:   outerRect(content, readFrameExtents(conn, win)),
	}, nil
}

func windowRect(conn *xgb.Conn, root xproto.Window, win xproto.Window) (image.Rectangle, error) {
	geo, err := xproto.GetGeometry(conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return image.Rectangle{}, err
	}
	trans, err := xproto.TranslateCoordinates(conn, win, root, 0, 0).Reply()
	if err != nil {
		return image.Rectangle{}, err
	}
	x, y := int(trans.DstX), int(trans.DstY)
	return image.Rect(x, y, x+int(geo.Width), y+int(geo.Height)), nil
}

// frameExtents are the left, right, top and bottom frame widths.
type frameExtents [4]int

// outerRect grows the client rectangle by the frame the window manager
// draws around it.
func outerRect(content image.Rectangle, ext frameExtents) image.Rectangle {
	return image.Rect(
		content.Min.X-ext[0],
		content.Min.Y-ext[2],
		content.Max.X+ext[1],
		content.Max.Y+ext[3],
	)
}

func readFrameExtents(conn *xgb.Conn, win xproto.Window) frameExtents {
	var ext frameExtents
	atom, err := internAtom(conn, "_NET_FRAME_EXTENTS")
	if err != nil {
		return ext
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, xproto.AtomCardinal, 0, 4).Reply()
	if err != nil || reply.Format != 32 || reply.ValueLen < 4 {
		return ext
	}
	for i := range ext {
		ext[i] = int(xgb.Get32(reply.Value[i*4:]))
	}
	return ext
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}

func readUTF8Property(conn *xgb.Conn, win xproto.Window, name string) string {
	utf8String, err := internAtom(conn, "UTF8_STRING")
	if err != nil {
		return ""
	}
	return readProperty(conn, win, name, utf8String)
}

func readStringProperty(conn *xgb.Conn, win xproto.Window, name string) string {
	return readProperty(conn, win, name, xproto.AtomString)
}

func readProperty(conn *xgb.Conn, win xproto.Window, name string, typ xproto.Atom) string {
	atom, err := internAtom(conn, name)
	if err != nil {
		return ""
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, typ, 0, 1<<16).Reply()
	if err != nil || reply.ValueLen == 0 {
		return ""
	}
	return strings.TrimRight(string(reply.Value), "\x00")
}

// readClass returns the class half of WM_CLASS.
func readClass(conn *xgb.Conn, win xproto.Window) string {
	raw := readStringProperty(conn, win, "WM_CLASS")
	parts := bytes.Split([]byte(raw), []byte{0})
	for i := len(parts) - 1; i >= 0; i-- {
		if len(parts[i]) > 0 {
			return string(parts[i])
		}
	}
	return ""
}

func readCardinal(conn *xgb.Conn, win xproto.Window, name string) uint32 {
	atom, err := internAtom(conn, name)
	if err != nil {
		return 0
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, xproto.AtomCardinal, 0, 1).Reply()
	if err != nil || reply.Format != 32 || reply.ValueLen == 0 {
		return 0
	}
	return xgb.Get32(reply.Value)
}
