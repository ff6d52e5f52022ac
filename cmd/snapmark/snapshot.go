package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"strings"

	"github.com/example/snapmark/internal/capture"
)

var captureWindowFn = capture.CaptureWindow

// snapshotCmd captures without editing and runs the post-capture actions.
type snapshotCmd struct {
	display     string
	window      string
	interactive bool
	actions     string
	dir         string
	shadow      bool
	*root
	fs *flag.FlagSet
}

func (s *snapshotCmd) FlagSet() *flag.FlagSet { return s.fs }
func (s *snapshotCmd) Template() string { return "snapshot.txt" }

func parseSnapshotCmd(args []string, r *root) (*snapshotCmd, error) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	s := &snapshotCmd{root: r, fs: fs}
	fs.Usage = usageFunc(s)
	fs.StringVar(&s.display, "display", "", "limit the capture to one monitor (index, name or primary)")
	fs.StringVar(&s.window, "window", "", "capture one window (see the windows command for selectors)")
	fs.BoolVar(&s.interactive, "interactive", false, "let the screenshot portal ask what to capture")
	fs.StringVar(&s.actions, "actions", "", "comma separated post-capture actions (save, clipboard, pdf, notify, shadow)")
	fs.StringVar(&s.dir, "dir", "", "directory for saved captures")
	fs.BoolVar(&s.shadow, "shadow", false, "add a drop shadow to the capture")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 && s.window == "" {
		s.window = strings.Join(fs.Args(), " ")
	}
	if s.window != "" && (s.display != "" || s.interactive) {
		return nil, fmt.Errorf("-window cannot be combined with -display or -interactive")
	}
	return s, nil
}

func (s *snapshotCmd) Run() error {
	ctx := context.Background()
	actions, err := s.postCapture(splitList(s.actions), s.dir, s.shadow)
	if err != nil {
		return err
	}
	img, detail, err := s.capture(ctx)
	if err != nil {
		return err
	}
	s.notifier.Capture(ctx, detail, img)
	return s.finish(ctx, img, actions)
}

func (s *snapshotCmd) capture(ctx context.Context) (*image.RGBA, string, error) {
	if s.window != "" {
		img, info, err := captureWindowFn(ctx, s.window)
		if err != nil {
			return nil, "", fmt.Errorf("failed to capture window: %w", err)
		}
		return img, "window " + firstNonEmpty(info.Title, s.window), nil
	}
	img, err := captureScreenshotFn(ctx, capture.Options{Interactive: s.interactive, Display: s.display})
	if err != nil {
		return nil, "", fmt.Errorf("failed to capture screen: %w", err)
	}
	if s.display != "" {
		return img, "display " + s.display, nil
	}
	return img, "screen", nil
}
