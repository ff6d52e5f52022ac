// Package colour provides the 8-bit RGBA colour used by annotations together
// with HSV conversion, parsing and the observable chooser model.
package colour

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Colour is a straight (non-premultiplied) alpha colour.
type Colour struct {
	Red   uint8
	Green uint8
	Blue  uint8
	Alpha uint8
}

var (
	Black       = Colour{0, 0, 0, 255}
	White       = Colour{255, 255, 255, 255}
	Red         = Colour{255, 0, 0, 255}
	Transparent = Colour{}
)

// RGBA implements color.Color. The result is alpha premultiplied.
func (c Colour) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.Red, G: c.Green, B: c.Blue, A: c.Alpha}.RGBA()
}

// FloatTuple returns each channel scaled to [0,1].
func (c Colour) FloatTuple() (r, g, b, a float64) {
	return float64(c.Red) / 255, float64(c.Green) / 255, float64(c.Blue) / 255, float64(c.Alpha) / 255
}

// WithAlpha returns c with its alpha channel replaced.
func (c Colour) WithAlpha(a uint8) Colour {
	c.Alpha = a
	return c
}

// Hex formats the colour channels as #rrggbb.
func (c Colour) Hex() string {
	return c.colorful().Hex()
}

// String formats c as #rrggbb, or #rrggbbaa when it is not opaque.
func (c Colour) String() string {
	if c.Alpha == 255 {
		return c.Hex()
	}
	return fmt.Sprintf("%s%02x", c.Hex(), c.Alpha)
}

func (c Colour) colorful() colorful.Color {
	return colorful.Color{R: float64(c.Red) / 255, G: float64(c.Green) / 255, B: float64(c.Blue) / 255}
}

// HSV is hue in degrees [0,360) and saturation and value in [0,1].
type HSV struct {
	H, S, V float64
}

// HSV converts the colour channels, ignoring alpha.
func (c Colour) HSV() HSV {
	h, s, v := c.colorful().Hsv()
	return HSV{H: h, S: s, V: v}
}

// FromHSV builds a colour from hsv with the given alpha.
func FromHSV(hsv HSV, alpha uint8) Colour {
	r, g, b := colorful.Hsv(hsv.H, hsv.S, hsv.V).Clamped().RGB255()
	return Colour{Red: r, Green: g, Blue: b, Alpha: alpha}
}

// FromColor converts any color.Color, undoing premultiplication.
func FromColor(c color.Color) Colour {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Colour{Red: n.R, Green: n.G, Blue: n.B, Alpha: n.A}
}

// Parse accepts an SVG/CSS colour name, #rgb, #rrggbb or #rrggbbaa.
func Parse(s string) (Colour, error) {
	spec := strings.ToLower(strings.TrimSpace(s))
	if spec == "" {
		return Colour{}, fmt.Errorf("colour cannot be empty")
	}
	if spec == "transparent" {
		return Transparent, nil
	}
	if c, ok := colornames.Map[spec]; ok {
		return FromColor(c), nil
	}
	if !strings.HasPrefix(spec, "#") {
		return Colour{}, fmt.Errorf("invalid colour %q", s)
	}
	hex := spec[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return Colour{}, fmt.Errorf("invalid colour %q", s)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Colour{}, fmt.Errorf("invalid colour %q", s)
	}
	if len(hex) == 6 {
		return Colour{Red: uint8(val >> 16), Green: uint8(val >> 8), Blue: uint8(val), Alpha: 255}, nil
	}
	return Colour{Red: uint8(val >> 24), Green: uint8(val >> 16), Blue: uint8(val >> 8), Alpha: uint8(val)}, nil
}
