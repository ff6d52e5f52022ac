package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/snapmark/internal/annotate"
	"github.com/example/snapmark/internal/appstate"
	"github.com/example/snapmark/internal/capture"
	"github.com/example/snapmark/internal/config"
	"github.com/example/snapmark/internal/geometry"
	"github.com/example/snapmark/internal/notify"
	"github.com/example/snapmark/internal/theme"
)

func testRoot(t *testing.T) *root {
	t.Helper()
	cfg := config.New()
	cfg.SaveDir = t.TempDir()
	return &root{
		program:     "snapmark",
		config:      cfg,
		notifier:    notify.New(notify.DefaultPreferences()),
		activeTheme: theme.Default(),
		logger:      log.New(io.Discard, "", 0),
	}
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func white(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func TestParseRenderOp(t *testing.T) {
	op, err := parseRenderOp("rect@10,10,50,80")
	if err != nil {
		t.Fatal(err)
	}
	if op.tool != annotate.ToolRectangle || len(op.points) != 2 || op.points[1] != geometry.Pt(50, 80) {
		t.Fatalf("op %+v", op)
	}
	op, err = parseRenderOp("text@5,6=a=b")
	if err != nil {
		t.Fatal(err)
	}
	if op.text != "a=b" {
		t.Fatalf("text %q", op.text)
	}
	for _, bad := range []string{
		"rectangle",
		"spray@1,1,2,2",
		"line@1,1,2",
		"line@1,1",
		"arrow@1,1,2,2,3,3",
		"text@1,1",
		"blur@a,b,c,d",
	} {
		if _, err := parseRenderOp(bad); err == nil {
			t.Errorf("%s: expected error", bad)
		}
	}
}

func TestRenderCommand(t *testing.T) {
	r := testRoot(t)
	in := writePNG(t, white(100, 100))
	out := filepath.Join(t.TempDir(), "out.png")
	cmd, err := parseRenderCmd([]string{
		"-file", in, "-output", out, "-colour", "blue", "-fill", "blue",
		"rectangle@10,10,50,50",
		"crop@0,0,60,60",
	}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 60, 60) {
		t.Fatalf("bounds %v", img.Bounds())
	}
	if got := color.RGBAModel.Convert(img.At(30, 30)).(color.RGBA); got != (color.RGBA{0, 0, 255, 255}) {
		t.Fatalf("inside rectangle %v", got)
	}
	if got := color.RGBAModel.Convert(img.At(55, 55)).(color.RGBA); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("outside rectangle %v", got)
	}
}

func TestRenderToStdout(t *testing.T) {
	r := testRoot(t)
	in := writePNG(t, white(20, 10))
	cmd, err := parseRenderCmd([]string{"-file", in, "-output", "-", "line@0,0,19,9"}, r)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	cmd.stdout = &buf
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Fatalf("bounds %v", img.Bounds())
	}
}

func TestRenderRequiresFile(t *testing.T) {
	_, err := parseRenderCmd([]string{"line@0,0,1,1"}, testRoot(t))
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(uerr.Error(), "render -file") {
		t.Fatalf("help text %q", uerr.Error())
	}
}

func TestSnapshotCaptureError(t *testing.T) {
	original := captureScreenshotFn
	sentinel := errors.New("boom")
	captureScreenshotFn = func(context.Context, capture.Options) (*image.RGBA, error) { return nil, sentinel }
	t.Cleanup(func() { captureScreenshotFn = original })

	cmd, err := parseSnapshotCmd(nil, testRoot(t))
	if err != nil {
		t.Fatal(err)
	}
	err = cmd.Run()
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if want := "failed to capture screen"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to contain %q, got %v", want, err)
	}
}

func TestSnapshotSaves(t *testing.T) {
	original := captureScreenshotFn
	captureScreenshotFn = func(context.Context, capture.Options) (*image.RGBA, error) { return white(8, 8), nil }
	t.Cleanup(func() { captureScreenshotFn = original })

	r := testRoot(t)
	dir := t.TempDir()
	cmd, err := parseSnapshotCmd([]string{"-actions", "save", "-dir", dir}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "screenshot_*.png"))
	if len(matches) != 1 {
		t.Fatalf("saved files %v", matches)
	}
}

func TestSnapshotRejectsWindowWithDisplay(t *testing.T) {
	if _, err := parseSnapshotCmd([]string{"-window", "firefox", "-display", "0"}, testRoot(t)); err == nil {
		t.Fatal("expected error")
	}
}

func TestEditSavesThroughActions(t *testing.T) {
	originalRun := runEditorFn
	t.Cleanup(func() { runEditorFn = originalRun })
	runEditorFn = func(a *appstate.AppState) {
		s := a.Session()
		s.SetTool(annotate.ToolCrop)
		s.Stack().Push(annotate.Crop{Rect: geometry.Rectangle{X: 2, Y: 2, W: 4, H: 3}})
		if err := s.Save(); err != nil {
			t.Errorf("save: %v", err)
		}
	}
	r := testRoot(t)
	in := writePNG(t, white(10, 10))
	dir := t.TempDir()
	cmd, err := parseEditCmd([]string{"-file", in, "-actions", "save", "-dir", dir}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "screenshot_*.png"))
	if len(matches) != 1 {
		t.Fatalf("saved files %v", matches)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 4 || cfg.Height != 3 {
		t.Fatalf("saved %dx%d", cfg.Width, cfg.Height)
	}
}

func TestEditClosedWithoutSaving(t *testing.T) {
	originalRun := runEditorFn
	t.Cleanup(func() { runEditorFn = originalRun })
	runEditorFn = func(a *appstate.AppState) { a.Session().Close() }
	r := testRoot(t)
	dir := t.TempDir()
	cmd, err := parseEditCmd([]string{"-file", writePNG(t, white(4, 4)), "-actions", "save", "-dir", dir}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, "*")); len(matches) != 0 {
		t.Fatalf("unexpected files %v", matches)
	}
}

func TestEditCaptureUsesWindows(t *testing.T) {
	origShot, origWins, origBounds, origRun := captureScreenshotFn, captureWindowsFn, screenBoundsFn, runEditorFn
	t.Cleanup(func() {
		captureScreenshotFn, captureWindowsFn, screenBoundsFn, runEditorFn = origShot, origWins, origBounds, origRun
	})
	captureScreenshotFn = func(context.Context, capture.Options) (*image.RGBA, error) { return white(50, 50), nil }
	screenBoundsFn = func() (image.Rectangle, error) { return image.Rect(100, 0, 150, 50), nil }
	var origin image.Point
	captureWindowsFn = func(o image.Point) ([]annotate.Window, error) {
		origin = o
		return []annotate.Window{{Title: "term", Outer: geometry.Rectangle{X: 5, Y: 5, W: 10, H: 10}}}, nil
	}
	var windows []annotate.Window
	runEditorFn = func(a *appstate.AppState) { windows = a.Session().Stack().Windows() }

	cmd, err := parseEditCmd([]string{"-actions", "save"}, testRoot(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	if origin != image.Pt(100, 0) {
		t.Fatalf("origin %v", origin)
	}
	if len(windows) != 1 || windows[0].Title != "term" {
		t.Fatalf("windows %+v", windows)
	}
}

func TestEditRejectsFileAndClipboard(t *testing.T) {
	if _, err := parseEditCmd([]string{"-file", "a.png", "-clipboard"}, testRoot(t)); err == nil {
		t.Fatal("expected error")
	}
}

func TestWindowsCommand(t *testing.T) {
	original := listWindowsFn
	t.Cleanup(func() { listWindowsFn = original })
	listWindowsFn = func() ([]capture.WindowInfo, error) {
		return []capture.WindowInfo{
			{Index: 0, ID: 0x2a, Title: "Editor", Class: "Code", Active: true, Outer: image.Rect(0, 0, 800, 600)},
			{Index: 1, ID: 0x2b},
		}, nil
	}
	cmd, err := parseWindowsCmd(nil, testRoot(t))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	cmd.out = &buf
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"* 0: Editor [id 0x2a class Code] 800x600+0+0", "(untitled)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigPrint(t *testing.T) {
	cmd, err := parseConfigCmd([]string{"print"}, testRoot(t))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	cmd.out = &buf
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[editor]") {
		t.Fatalf("config output %q", buf.String())
	}
}

func TestConfigSave(t *testing.T) {
	r := testRoot(t)
	r.configPath = filepath.Join(t.TempDir(), "snapmark.rc")
	cmd, err := parseConfigCmd([]string{"save"}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(r.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[postcapture]") {
		t.Fatalf("saved config %q", data)
	}
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	cmd := &versionCmd{root: testRoot(t), out: &buf}
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "snapmark version ") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRootUsage(t *testing.T) {
	r := newRoot()
	err := r.Run(nil)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	help := uerr.Error()
	for _, want := range []string{"Usage: snapmark", "edit", "-theme"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}
