//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"fmt"
	"image"

	"github.com/jezek/xgb/xproto"
)

// xImageToRGBA converts a ZPixmap reply in the server's little-endian
// BGR(X) layout. Only depth 32 carries alpha; padding bytes at depth 24
// are ignored.
func xImageToRGBA(setup *xproto.SetupInfo, reply *xproto.GetImageReply, width, height int, kind string) (*image.RGBA, error) {
	if setup == nil {
		return nil, fmt.Errorf("xproto setup unavailable")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%s has empty geometry", kind)
	}
	if reply == nil || len(reply.Data) == 0 {
		return nil, fmt.Errorf("%s pixels: empty image data", kind)
	}
	bytesPerPixel := 0
	for _, format := range setup.PixmapFormats {
		if format.Depth == reply.Depth {
			bytesPerPixel = int(format.BitsPerPixel) / 8
			break
		}
	}
	if bytesPerPixel < 3 {
		return nil, fmt.Errorf("unsupported %s depth %d", kind, reply.Depth)
	}
	stride := len(reply.Data) / height
	if stride*height != len(reply.Data) || stride < width*bytesPerPixel {
		return nil, fmt.Errorf("%s pixels: unexpected stride", kind)
	}
	withAlpha := reply.Depth == 32 && bytesPerPixel == 4

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := reply.Data[y*stride:]
		pix := img.Pix[img.PixOffset(0, y):]
		for x := 0; x < width; x++ {
			src := row[x*bytesPerPixel:]
			dst := pix[x*4:]
			dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], 0xFF
			if withAlpha {
				dst[3] = src[3]
			}
		}
	}
	return img, nil
}
