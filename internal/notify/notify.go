// Package notify tells the user what happened to a capture.
package notify

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nfnt/resize"

	"github.com/example/snapmark/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventCapture fires when an annotated capture is finished.
	EventCapture Event = "capture"
	// EventSave fires when an image is written to disk.
	EventSave Event = "save"
	// EventCopy fires when an image is copied to the clipboard.
	EventCopy Event = "copy"
)

// PreviewSize bounds the thumbnail attached to capture notifications.
const PreviewSize = 256

var send = platform.Notify

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title     string
	Templates map[Event]string
	Timeout   time.Duration
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "Snapmark",
		Templates: map[Event]string{
			EventCapture: "Captured %s",
			EventSave:    "Saved %s",
			EventCopy:    "Copied %s to clipboard",
		},
		Timeout: 5 * time.Second,
	}
}

// LoadPreferences applies SNAPMARK_NOTIFY_* environment overrides to the
// defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("SNAPMARK_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for event, key := range map[Event]string{
		EventCapture: "SNAPMARK_NOTIFY_CAPTURE_TEXT",
		EventSave:    "SNAPMARK_NOTIFY_SAVE_TEXT",
		EventCopy:    "SNAPMARK_NOTIFY_COPY_TEXT",
	} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			prefs.Templates[event] = v
		}
	}
	return prefs
}

// Notifier sends desktop notifications for enabled events.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
}

// New creates a Notifier with every event disabled.
func New(prefs Preferences) *Notifier {
	cloned := prefs
	cloned.Templates = make(map[Event]string, len(prefs.Templates))
	for k, v := range prefs.Templates {
		cloned.Templates[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool)}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Enabled reports whether event produces notifications.
func (n *Notifier) Enabled(event Event) bool {
	return n != nil && n.enabled[event]
}

// Capture announces a finished capture with a thumbnail of img.
func (n *Notifier) Capture(ctx context.Context, detail string, img image.Image) {
	if !n.Enabled(EventCapture) {
		return
	}
	opts := n.options()
	if img != nil {
		path, cleanup, err := createPreview(img)
		if err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(ctx, EventCapture, detail, opts)
}

// Save announces a written file, using the file itself as the icon.
func (n *Notifier) Save(ctx context.Context, path string) {
	if !n.Enabled(EventSave) {
		return
	}
	opts := n.options()
	detail := strings.TrimSpace(path)
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, err := os.Stat(abs); err == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(ctx, EventSave, detail, opts)
}

// Copy announces a clipboard copy.
func (n *Notifier) Copy(ctx context.Context, detail string) {
	if !n.Enabled(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.dispatch(ctx, EventCopy, detail, n.options())
}

func (n *Notifier) options() platform.Options {
	return platform.Options{Timeout: n.prefs.Timeout}
}

func (n *Notifier) dispatch(ctx context.Context, event Event, detail string, opts platform.Options) {
	template := strings.TrimSpace(n.prefs.Templates[event])
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := send(ctx, n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

// createPreview writes a thumbnail of img to a temporary PNG.
func createPreview(img image.Image) (string, func(), error) {
	thumb := resize.Thumbnail(PreviewSize, PreviewSize, img, resize.Lanczos3)
	f, err := os.CreateTemp("", "snapmark-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, thumb); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
