// Package clipboard copies captures to and from the system clipboard as PNG.
package clipboard

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

var (
	writePNG = platformWritePNG
	readPNG  = platformReadPNG
)

// WriteImage encodes img as PNG and publishes it to the clipboard.
func WriteImage(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode clipboard image: %w", err)
	}
	return writePNG(buf.Bytes())
}

// ReadImage decodes the PNG image held by the clipboard.
func ReadImage() (image.Image, error) {
	data, err := readPNG()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("clipboard does not contain image data")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode clipboard image: %w", err)
	}
	return img, nil
}
