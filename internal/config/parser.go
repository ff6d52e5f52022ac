package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/render"
	"github.com/example/snapmark/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := strings.TrimSpace(line[len("[theme.") : len(line)-1])
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		var err error
		switch {
		case currentTheme != nil:
			err = currentTheme.Set(key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "editor":
			err = setEditorField(&cfg.Editor, key, value)
		case currentSection == "postcapture":
			err = setPostCaptureField(&cfg.PostCapture, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

// splitKeyValue accepts "key = value" and "key: value", whichever
// separator comes first. Quotes around the value are removed.
func splitKeyValue(line string) (string, string, bool) {
	i := strings.IndexAny(line, "=:")
	if i < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:i])
	value := strings.TrimSpace(line[i+1:])
	if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
		if uq, err := strconv.Unquote(value); err == nil {
			value = uq
		} else {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, true
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	}
	return nil
}

func setEditorField(e *Editor, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "primary", "primary_colour", "primary_color":
		e.PrimaryColour, err = colour.Parse(value)
	case "secondary", "secondary_colour", "secondary_color":
		e.SecondaryColour, err = colour.Parse(value)
	case "line_width":
		e.LineWidth, err = parsePositiveFloat(value)
	case "font":
		e.Font = value
	case "blur_radius":
		e.BlurRadius, err = parsePositiveFloat(value)
		if err == nil && e.BlurRadius > render.MaxBlurRadius {
			err = fmt.Errorf("must be at most %d", render.MaxBlurRadius)
		}
	case "pixelate_size":
		e.PixelateSize, err = strconv.Atoi(value)
		if err == nil && e.PixelateSize < 1 {
			err = fmt.Errorf("must be at least 1")
		}
	case "crop_first":
		e.CropFirst, err = strconv.ParseBool(value)
	case "tool":
		e.Tool = value
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid value for key %s: %w", key, err)
	}
	return nil
}

func parsePositiveFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return f, nil
}

func setPostCaptureField(p *PostCapture, key, value string) error {
	switch strings.ToLower(key) {
	case "actions":
		p.Actions = p.Actions[:0]
		for _, a := range strings.Split(value, ",") {
			if a = strings.TrimSpace(a); a != "" {
				p.Actions = append(p.Actions, strings.ToLower(a))
			}
		}
	case "shadow":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for key %s: %w", key, err)
		}
		p.Shadow = b
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "capture":
		n.Capture = b
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	}
	return nil
}
