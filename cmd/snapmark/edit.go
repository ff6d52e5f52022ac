package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/example/snapmark/internal/annotate"
	"github.com/example/snapmark/internal/appstate"
	"github.com/example/snapmark/internal/capture"
	"github.com/example/snapmark/internal/clipboard"
	"github.com/example/snapmark/internal/session"
)

var (
	captureScreenshotFn = capture.Screenshot
	captureWindowsFn    = capture.Windows
	screenBoundsFn      = capture.ScreenBounds
	readClipboardFn     = clipboard.ReadImage
	runEditorFn         = func(a *appstate.AppState) { a.Run() }
)

// editCmd captures or loads an image and opens the editor on it.
type editCmd struct {
	file          string
	fromClipboard bool
	cropFirst     bool
	display       string
	interactive   bool
	actions       string
	dir           string
	shadow        bool
	tool          string
	*root
	fs *flag.FlagSet
}

func (e *editCmd) FlagSet() *flag.FlagSet { return e.fs }
func (e *editCmd) Template() string { return "edit.txt" }

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	e := &editCmd{root: r, fs: fs}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.file, "file", "", "edit this image instead of capturing the screen")
	fs.BoolVar(&e.fromClipboard, "clipboard", false, "edit the image on the clipboard")
	fs.BoolVar(&e.cropFirst, "crop-first", r != nil && r.config.Editor.CropFirst, "start by selecting the region to keep; Return saves")
	fs.StringVar(&e.display, "display", "", "limit the capture to one monitor")
	fs.BoolVar(&e.interactive, "interactive", false, "let the screenshot portal ask what to capture")
	fs.StringVar(&e.actions, "actions", "", "comma separated post-capture actions (save, clipboard, pdf, notify, shadow)")
	fs.StringVar(&e.dir, "dir", "", "directory for saved captures")
	fs.BoolVar(&e.shadow, "shadow", false, "add a drop shadow to the finished capture")
	fs.StringVar(&e.tool, "tool", "", "tool to start with")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: e}
	}
	if e.file != "" && e.fromClipboard {
		return nil, fmt.Errorf("-file cannot be used with -clipboard")
	}
	return e, nil
}

func (e *editCmd) Run() error {
	ctx := context.Background()
	actions, err := e.postCapture(splitList(e.actions), e.dir, e.shadow)
	if err != nil {
		return err
	}
	img, windows, detail, err := e.load(ctx)
	if err != nil {
		return err
	}

	style := e.config.Editor.Style()
	stackOpts := []session.Option{
		session.WithStyle(style),
		session.WithCropFirst(e.cropFirst),
	}
	var result *session.Result
	stackOpts = append(stackOpts, session.WithFinish(func(res session.Result) { result = &res }))

	app := appstate.New(img, windows,
		appstate.WithTitle(windowTitle(detail)),
		appstate.WithTheme(e.activeTheme),
		appstate.WithLogger(e.logger),
		appstate.WithSessionOptions(stackOpts...),
	)
	if name := firstNonEmpty(e.tool, e.config.Editor.Tool); name != "" {
		t, err := annotate.ParseTool(name)
		if err != nil {
			return err
		}
		app.Session().SetTool(t)
	}
	runEditorFn(app)

	if result == nil {
		e.logger.Printf("session %s closed without saving", app.Session().ID())
		return nil
	}
	e.notifier.Capture(ctx, detail, result.Image)
	return e.finish(ctx, result.Image, actions)
}

// load returns the image to edit and, for live captures, the windows on
// screen in image coordinates.
func (e *editCmd) load(ctx context.Context) (*image.RGBA, []annotate.Window, string, error) {
	switch {
	case e.file != "":
		img, err := loadImage(e.file)
		if err != nil {
			return nil, nil, "", err
		}
		return img, nil, filepath.Base(e.file), nil
	case e.fromClipboard:
		src, err := readClipboardFn()
		if err != nil {
			return nil, nil, "", fmt.Errorf("read clipboard: %w", err)
		}
		return toRGBA(src), nil, "clipboard image", nil
	}
	img, err := captureScreenshotFn(ctx, capture.Options{Interactive: e.interactive, Display: e.display})
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to capture screen: %w", err)
	}
	var windows []annotate.Window
	// A cropped or portal-chosen capture no longer lines up with the
	// window geometry.
	if e.display == "" && !e.interactive {
		origin := image.Point{}
		if b, err := screenBoundsFn(); err == nil {
			origin = b.Min
		}
		if windows, err = captureWindowsFn(origin); err != nil {
			e.logger.Printf("window list unavailable: %v", err)
		}
	}
	return img, windows, "screen", nil
}

func loadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return toRGBA(src), nil
}

// toRGBA copies src to an RGBA image with a zero origin.
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func windowTitle(detail string) string {
	parts := []string{"Snapmark"}
	if d := strings.TrimSpace(detail); d != "" {
		parts = append(parts, d)
	}
	if v := strings.TrimSpace(version); v != "" {
		parts = append(parts, "v"+v)
	}
	return strings.Join(parts, " - ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
