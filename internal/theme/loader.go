package theme

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EmbeddedThemes holds the built-in themes.
//
//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

// Loader handles loading themes from various sources.
type Loader struct {
	ConfigDir string
	SystemDir string
	// Custom holds themes defined inline in the configuration file.
	Custom map[string]*Theme
}

// NewLoader creates a Loader with the standard search paths.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "snapmark", "themes"),
		SystemDir: "/usr/share/snapmark/themes",
	}
}

// Load resolves a theme by name or path. The search order is: an existing
// file path, inline config themes, embedded themes, ConfigDir, SystemDir.
// An empty name returns Default.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}
	if _, err := os.Stat(name); err == nil {
		return parseFile(name)
	}
	if t, ok := l.Custom[name]; ok {
		return t, nil
	}
	filename := name
	if !strings.HasSuffix(filename, ".theme") {
		filename += ".theme"
	}
	if f, err := EmbeddedThemes.Open("defaults/" + filename); err == nil {
		defer f.Close()
		return Parse(f)
	}
	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil {
			return parseFile(path)
		}
	}
	return nil, fmt.Errorf("theme %q not found", name)
}

// Builtin lists the names of the embedded themes.
func Builtin() []string {
	entries, err := EmbeddedThemes.ReadDir("defaults")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".theme"))
	}
	sort.Strings(names)
	return names
}

func parseFile(path string) (*Theme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f, path)
}

func parse(r io.Reader, name string) (*Theme, error) {
	t, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", name, err)
	}
	return t, nil
}
