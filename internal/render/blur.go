// Package render holds the pixel filters applied to surface regions and to
// finished captures.
package render

import (
	"math"

	"github.com/example/snapmark/internal/canvas"
)

// MaxBlurRadius is the largest radius the editor builds blur operations
// with.
const MaxBlurRadius = 256

// GaussianBlur blurs reg in place with a separable Gaussian kernel whose
// standard deviation is radius. A radius of zero leaves reg unchanged. The
// unused fourth byte of each pixel is not touched.
func GaussianBlur(reg *canvas.Region, radius float64) {
	if radius <= 0 || reg.Width() == 0 || reg.Height() == 0 {
		return
	}
	w, h := reg.Width(), reg.Height()
	kernel := gaussianKernel(radius, max(w, h)-1)
	tmp := make([]float64, w*h*3)

	// horizontal pass into tmp
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [3]float64
			for k, weight := range kernel {
				sx := clamp(x+k-len(kernel)/2, 0, w-1)
				i := reg.Offset(sx, y)
				acc[0] += weight * float64(reg.Pix[i])
				acc[1] += weight * float64(reg.Pix[i+1])
				acc[2] += weight * float64(reg.Pix[i+2])
			}
			copy(tmp[(y*w+x)*3:], acc[:])
		}
	}

	// vertical pass back into the region
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [3]float64
			for k, weight := range kernel {
				sy := clamp(y+k-len(kernel)/2, 0, h-1)
				j := (sy*w + x) * 3
				acc[0] += weight * tmp[j]
				acc[1] += weight * tmp[j+1]
				acc[2] += weight * tmp[j+2]
			}
			i := reg.Offset(x, y)
			reg.Pix[i] = toByte(acc[0])
			reg.Pix[i+1] = toByte(acc[1])
			reg.Pix[i+2] = toByte(acc[2])
		}
	}
}

// gaussianKernel returns normalised weights for offsets -half..half, where
// half is ceil(3*sigma) cut down to limit. Taps beyond limit always sample
// a clamped edge pixel, so their weight is folded into the outermost taps.
func gaussianKernel(sigma float64, limit int) []float64 {
	full := math.Ceil(sigma * 3)
	half := int(min(full, float64(limit)))
	kernel := make([]float64, 2*half+1)
	var sum float64
	for i := range kernel {
		d := float64(i - half)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	if full > float64(half) {
		// integer taps half+1..full on each side, by the midpoint rule
		s := sigma * math.Sqrt2
		tail := sigma * math.Sqrt(math.Pi/2) *
			(math.Erf((full+0.5)/s) - math.Erf((float64(half)+0.5)/s))
		kernel[0] += tail
		kernel[2*half] += tail
		sum += 2 * tail
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
