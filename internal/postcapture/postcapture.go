// Package postcapture runs the actions that follow a finished capture.
package postcapture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf"

	"github.com/example/snapmark/internal/clipboard"
	"github.com/example/snapmark/internal/notify"
	"github.com/example/snapmark/internal/render"
)

var (
	now            = time.Now
	writeClipboard = clipboard.WriteImage
)

// Action does something with a finished image.
type Action interface {
	Handle(ctx context.Context, img *image.RGBA) error
}

// Options carries what the named actions need.
type Options struct {
	Dir      string
	Notifier *notify.Notifier
}

// ErrUnknownAction is returned by FromNames for names it cannot build.
var ErrUnknownAction = errors.New("unknown post-capture action")

// Names lists the actions FromNames understands.
func Names() []string {
	return []string{"save", "clipboard", "pdf", "notify", "shadow"}
}

// FromNames builds actions in order. "shadow" decorates the image for the
// actions that follow it.
func FromNames(names []string, opts Options) ([]Action, error) {
	var actions []Action
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case "save":
			actions = append(actions, Save{Dir: opts.Dir, Notifier: opts.Notifier})
		case "clipboard", "copy":
			actions = append(actions, Clipboard{Notifier: opts.Notifier})
		case "pdf":
			actions = append(actions, PDF{Dir: opts.Dir, Notifier: opts.Notifier})
		case "notify":
			actions = append(actions, Notify{Notifier: opts.Notifier})
		case "shadow":
			actions = append(actions, &Shadow{Options: render.DefaultShadowOptions()})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
		}
	}
	return actions, nil
}

// Run hands img to every action. A failing action does not stop the ones
// after it; all errors are joined.
func Run(ctx context.Context, img *image.RGBA, actions []Action) error {
	var errs []error
	for _, a := range actions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if sh, ok := a.(*Shadow); ok {
			img = sh.Apply(img)
			continue
		}
		if err := a.Handle(ctx, img); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", a, err))
		}
	}
	return errors.Join(errs...)
}

// Filename names a capture taken at t.
func Filename(t time.Time, ext string) string {
	return "screenshot_" + t.Format(time.RFC3339) + ext
}

// Save writes a PNG into Dir, or the working directory.
type Save struct {
	Dir      string
	Notifier *notify.Notifier
}

func (s Save) Handle(ctx context.Context, img *image.RGBA) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	path, err := writeFile(s.Dir, Filename(now(), ".png"), buf.Bytes())
	if err != nil {
		return err
	}
	log.Printf("saved %s (%s)", path, humanize.Bytes(uint64(buf.Len())))
	s.Notifier.Save(ctx, path)
	return nil
}

// Clipboard copies the image as PNG.
type Clipboard struct {
	Notifier *notify.Notifier
}

func (c Clipboard) Handle(ctx context.Context, img *image.RGBA) error {
	if err := writeClipboard(img); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	b := img.Bounds()
	c.Notifier.Copy(ctx, fmt.Sprintf("%dx%d image", b.Dx(), b.Dy()))
	return nil
}

// PDF writes a single page the size of the image, one point per pixel.
type PDF struct {
	Dir      string
	Notifier *notify.Notifier
}

func (p PDF) Handle(ctx context.Context, img *image.RGBA) error {
	data, err := encodePDF(img)
	if err != nil {
		return err
	}
	path, err := writeFile(p.Dir, Filename(now(), ".pdf"), data)
	if err != nil {
		return err
	}
	log.Printf("saved %s (%s)", path, humanize.Bytes(uint64(len(data))))
	p.Notifier.Save(ctx, path)
	return nil
}

func encodePDF(img *image.RGBA) ([]byte, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("pdf: empty image")
	}
	w, h := float64(b.Dx()), float64(b.Dy())
	orientation := "P"
	if w > h {
		orientation = "L"
	}
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	doc.RegisterImageOptionsReader("capture", gofpdf.ImageOptions{ImageType: "PNG"}, &encoded)
	doc.ImageOptions("capture", 0, 0, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	var out bytes.Buffer
	if err := doc.Output(&out); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	return out.Bytes(), nil
}

// Notify announces the capture with a thumbnail.
type Notify struct {
	Notifier *notify.Notifier
}

func (n Notify) Handle(ctx context.Context, img *image.RGBA) error {
	b := img.Bounds()
	n.Notifier.Capture(ctx, fmt.Sprintf("%dx%d", b.Dx(), b.Dy()), img)
	return nil
}

// Shadow adds a drop shadow for the actions after it in a Run.
type Shadow struct {
	Options render.ShadowOptions
}

// Apply returns img with the shadow added.
func (s *Shadow) Apply(img *image.RGBA) *image.RGBA {
	return render.DropShadow(img, s.Options)
}

// Handle is a no-op outside Run, which calls Apply instead.
func (s *Shadow) Handle(context.Context, *image.RGBA) error { return nil }

func writeFile(dir, name string, data []byte) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
