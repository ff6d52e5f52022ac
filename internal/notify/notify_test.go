package notify

import (
	"context"
	"image"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/example/snapmark/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
	iconBounds  image.Rectangle
}

func captureSends(t *testing.T) *[]sent {
	t.Helper()
	var got []sent
	prev := send
	send = func(_ context.Context, title, body string, opts platform.Options) error {
		s := sent{title: title, body: body, opts: opts}
		if opts.IconPath != "" {
			if f, err := os.Open(opts.IconPath); err == nil {
				if cfg, err := png.DecodeConfig(f); err == nil {
					s.iconBounds = image.Rect(0, 0, cfg.Width, cfg.Height)
				}
				f.Close()
			}
		}
		got = append(got, s)
		return nil
	}
	t.Cleanup(func() { send = prev })
	return &got
}

func TestDisabledEventsAreSilent(t *testing.T) {
	got := captureSends(t)
	n := New(DefaultPreferences())
	n.Copy(context.Background(), "")
	if len(*got) != 0 {
		t.Fatalf("sent %v", *got)
	}
}

func TestCopyUsesTemplate(t *testing.T) {
	got := captureSends(t)
	n := New(DefaultPreferences())
	n.Enable(EventCopy, true)
	n.Copy(context.Background(), "")
	if len(*got) != 1 || (*got)[0].body != "Copied image to clipboard" || (*got)[0].title != "Snapmark" {
		t.Fatalf("sent %+v", *got)
	}
}

func TestCaptureAttachesThumbnail(t *testing.T) {
	got := captureSends(t)
	n := New(DefaultPreferences())
	n.Enable(EventCapture, true)
	n.Capture(context.Background(), "1024x512", image.NewRGBA(image.Rect(0, 0, 1024, 512)))
	if len(*got) != 1 {
		t.Fatalf("sent %d notifications", len(*got))
	}
	s := (*got)[0]
	if s.iconBounds.Dx() != PreviewSize || s.iconBounds.Dy() != PreviewSize/2 {
		t.Fatalf("thumbnail %v", s.iconBounds)
	}
	if _, err := os.Stat(s.opts.IconPath); !os.IsNotExist(err) {
		t.Fatal("preview file not cleaned up")
	}
}

func TestLoadPreferencesFromEnvironment(t *testing.T) {
	t.Setenv("SNAPMARK_NOTIFY_TITLE", "Shots")
	t.Setenv("SNAPMARK_NOTIFY_SAVE_TEXT", "Wrote %s")
	prefs := LoadPreferences()
	if prefs.Title != "Shots" || !strings.HasPrefix(prefs.Templates[EventSave], "Wrote") {
		t.Fatalf("prefs %+v", prefs)
	}
	if prefs.Templates[EventCopy] == "" {
		t.Fatal("default template lost")
	}
}
