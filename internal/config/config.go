// Package config reads and writes the snapmark RC file.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/snapmark/internal/annotate"
	"github.com/example/snapmark/internal/canvas"
	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Capture bool
	Save    bool
	Copy    bool
}

// Editor holds the tool settings an editing session starts with.
type Editor struct {
	PrimaryColour   colour.Colour
	SecondaryColour colour.Colour
	LineWidth       float64
	Font            string
	BlurRadius      float64
	PixelateSize    int
	CropFirst       bool
	Tool            string
}

// PostCapture lists what happens to an image once editing finishes.
type PostCapture struct {
	Actions []string
	Shadow  bool
}

// Config holds the application configuration.
type Config struct {
	Theme       string
	SaveDir     string
	Editor      Editor
	PostCapture PostCapture
	Notify      Notify
	Themes      map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	st := annotate.DefaultStyle()
	return &Config{
		Theme: "", // empty falls back to SNAPMARK_THEME then the default
		Editor: Editor{
			PrimaryColour:   st.Primary,
			SecondaryColour: st.Secondary,
			LineWidth:       st.LineWidth,
			Font:            st.Font.String(),
			BlurRadius:      st.BlurRadius,
			PixelateSize:    st.PixelateSize,
		},
		PostCapture: PostCapture{Actions: []string{"save"}},
		Themes:      make(map[string]*theme.Theme),
	}
}

// Style converts the editor settings into the style new operations use.
func (e Editor) Style() annotate.Style {
	st := annotate.DefaultStyle()
	st.Primary = e.PrimaryColour
	st.Secondary = e.SecondaryColour
	if e.LineWidth > 0 {
		st.LineWidth = e.LineWidth
	}
	if e.Font != "" {
		st.Font = canvas.ParseFontDescription(e.Font)
	}
	if e.BlurRadius > 0 {
		st.BlurRadius = e.BlurRadius
	}
	if e.PixelateSize > 0 {
		st.PixelateSize = e.PixelateSize
	}
	return st
}

// StartTool resolves the configured starting tool, falling back to the
// session default when unset or unknown.
func (e Editor) StartTool() (annotate.Tool, bool) {
	if e.Tool == "" {
		return 0, false
	}
	t, err := annotate.ParseTool(e.Tool)
	if err != nil {
		return 0, false
	}
	return t, true
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[editor]\n")
	fmt.Fprintf(&sb, "primary = %s\n", c.Editor.PrimaryColour)
	fmt.Fprintf(&sb, "secondary = %s\n", c.Editor.SecondaryColour)
	fmt.Fprintf(&sb, "line_width = %g\n", c.Editor.LineWidth)
	fmt.Fprintf(&sb, "font = %q\n", c.Editor.Font)
	fmt.Fprintf(&sb, "blur_radius = %g\n", c.Editor.BlurRadius)
	fmt.Fprintf(&sb, "pixelate_size = %d\n", c.Editor.PixelateSize)
	fmt.Fprintf(&sb, "crop_first = %v\n", c.Editor.CropFirst)
	if c.Editor.Tool != "" {
		fmt.Fprintf(&sb, "tool = %s\n", c.Editor.Tool)
	}
	sb.WriteString("\n")

	sb.WriteString("[postcapture]\n")
	fmt.Fprintf(&sb, "actions = %s\n", strings.Join(c.PostCapture.Actions, ", "))
	fmt.Fprintf(&sb, "shadow = %v\n", c.PostCapture.Shadow)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "capture = %v\n", c.Notify.Capture)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)
	for _, name := range themeNames {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		_, _ = c.Themes[name].WriteTo(&sb)
		sb.WriteString("\n")
	}

	return sb.String()
}
