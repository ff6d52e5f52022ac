package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"strings"

	"github.com/example/snapmark/internal/config"
	"github.com/example/snapmark/internal/notify"
	"github.com/example/snapmark/internal/postcapture"
	"github.com/example/snapmark/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs            *flag.FlagSet
	program       string
	notifier      *notify.Notifier
	config        *config.Config
	configPath    string
	captureAlerts bool
	saveAlerts    bool
	copyAlerts    bool
	themeName     string
	activeTheme   *theme.Theme
	logger        *log.Logger
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	r := &root{
		fs:       flag.NewFlagSet("snapmark", flag.ExitOnError),
		program:  "snapmark",
		notifier: notify.New(notify.LoadPreferences()),
		config:   config.New(),
		logger:   log.New(os.Stderr, "", log.LstdFlags),
	}
	r.fs.StringVar(&r.configPath, "config", configPathOverride, "read configuration from this file")
	r.fs.BoolVar(&r.captureAlerts, "notify-capture", false, "show a desktop notification after capturing a screenshot")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", false, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", false, "show a desktop notification after copying to the clipboard")
	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "colour theme for the editor ("+strings.Join(theme.Builtin(), ", ")+")")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}

	cfg, err := config.NewLoader(version, r.configPath).Load()
	if err != nil {
		r.logger.Printf("warning: failed to load config: %v", err)
		cfg = config.New()
	}
	r.config = cfg
	set := map[string]bool{}
	r.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["notify-capture"] {
		r.captureAlerts = cfg.Notify.Capture
	}
	if !set["notify-save"] {
		r.saveAlerts = cfg.Notify.Save
	}
	if !set["notify-copy"] {
		r.copyAlerts = cfg.Notify.Copy
	}
	r.notifier.Enable(notify.EventCapture, r.captureAlerts)
	r.notifier.Enable(notify.EventSave, r.saveAlerts)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	r.activeTheme = r.loadTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var cmd runnable
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "snapshot":
		cmd, err = parseSnapshotCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "windows":
		cmd, err = parseWindowsCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// loadTheme resolves the theme from the flag, SNAPMARK_THEME, then the
// config file.
func (r *root) loadTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("SNAPMARK_THEME")
	}
	if name == "" {
		name = r.config.Theme
	}
	loader := theme.NewLoader()
	loader.Custom = r.config.Themes
	t, err := loader.Load(name)
	if err != nil {
		r.logger.Printf("warning: failed to load theme %q: %v. using default.", name, err)
		return theme.Default()
	}
	return t
}

// postCapture builds the configured actions, with names overriding the
// config when given.
func (r *root) postCapture(names []string, dir string, shadow bool) ([]postcapture.Action, error) {
	if len(names) == 0 {
		names = r.config.PostCapture.Actions
	}
	if dir == "" {
		dir = expandHome(r.config.SaveDir)
	}
	if shadow || r.config.PostCapture.Shadow {
		names = append([]string{"shadow"}, names...)
	}
	return postcapture.FromNames(names, postcapture.Options{Dir: dir, Notifier: r.notifier})
}

func (r *root) finish(ctx context.Context, img *image.RGBA, actions []postcapture.Action) error {
	return postcapture.Run(ctx, img, actions)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
