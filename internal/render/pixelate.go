package render

import "github.com/example/snapmark/internal/canvas"

// DefaultPixelateSize is the mosaic block edge in pixels.
const DefaultPixelateSize = 12

// Pixelate replaces each block×block tile of reg with the tile's average
// colour. Tiles are aligned to the region's top-left corner.
func Pixelate(reg *canvas.Region, block int) {
	if block <= 1 {
		return
	}
	w, h := reg.Width(), reg.Height()
	for ty := 0; ty < h; ty += block {
		for tx := 0; tx < w; tx += block {
			x1 := min(tx+block, w)
			y1 := min(ty+block, h)
			var sum [3]int
			for y := ty; y < y1; y++ {
				for x := tx; x < x1; x++ {
					i := reg.Offset(x, y)
					sum[0] += int(reg.Pix[i])
					sum[1] += int(reg.Pix[i+1])
					sum[2] += int(reg.Pix[i+2])
				}
			}
			n := (x1 - tx) * (y1 - ty)
			avg := [3]uint8{uint8(sum[0] / n), uint8(sum[1] / n), uint8(sum[2] / n)}
			for y := ty; y < y1; y++ {
				for x := tx; x < x1; x++ {
					i := reg.Offset(x, y)
					reg.Pix[i] = avg[0]
					reg.Pix[i+1] = avg[1]
					reg.Pix[i+2] = avg[2]
				}
			}
		}
	}
}
