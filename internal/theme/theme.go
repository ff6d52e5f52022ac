// Package theme colours the editor chrome.
package theme

import (
	"image/color"
)

// Theme defines the colours of everything drawn around the capture.
type Theme struct {
	Name string

	// Window
	Background color.RGBA // behind the capture when it does not fill the window
	Foreground color.RGBA

	// Toolbar
	ToolbarBackground     color.RGBA
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonBackgroundPress color.RGBA
	ButtonText            color.RGBA
	ButtonBorder          color.RGBA
	SwatchBorder          color.RGBA

	// Status bar
	StatusBackground color.RGBA
	StatusText       color.RGBA

	// Canvas
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{220, 220, 220, 255},
		Foreground:            color.RGBA{0, 0, 0, 255},
		ToolbarBackground:     color.RGBA{230, 230, 230, 255},
		ButtonBackground:      color.RGBA{200, 200, 200, 255},
		ButtonBackgroundHover: color.RGBA{180, 180, 180, 255},
		ButtonBackgroundPress: color.RGBA{150, 150, 150, 255},
		ButtonText:            color.RGBA{0, 0, 0, 255},
		ButtonBorder:          color.RGBA{90, 90, 90, 255},
		SwatchBorder:          color.RGBA{0, 0, 0, 255},
		StatusBackground:      color.RGBA{210, 210, 210, 255},
		StatusText:            color.RGBA{20, 20, 20, 255},
		CheckerLight:          color.RGBA{220, 220, 220, 255},
		CheckerDark:           color.RGBA{192, 192, 192, 255},
	}
}
