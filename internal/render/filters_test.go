package render

import (
	"bytes"
	"image"
	"math"
	"testing"
	"time"

	"github.com/example/snapmark/internal/canvas"
	"github.com/example/snapmark/internal/colour"
)

func checkerRegion(t *testing.T) *canvas.Region {
	t.Helper()
	s := canvas.NewSurface(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if (x+y)%2 == 0 {
				s.Set(x, y, colour.White)
			}
		}
	}
	reg, err := s.Extract(image.Rect(2, 2, 14, 14))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return reg
}

func TestGaussianBlurZeroRadiusIsIdentity(t *testing.T) {
	reg := checkerRegion(t)
	want := append([]byte(nil), reg.Pix...)
	GaussianBlur(reg, 0)
	if !bytes.Equal(reg.Pix, want) {
		t.Fatalf("zero radius blur changed the region")
	}
}

func TestGaussianBlurSmoothsChecker(t *testing.T) {
	reg := checkerRegion(t)
	GaussianBlur(reg, 2)
	i := reg.Offset(6, 6)
	for c := 0; c < 3; c++ {
		if v := reg.Pix[i+c]; v < 100 || v > 155 {
			t.Fatalf("channel %d = %d, expected mid grey", c, v)
		}
	}
}

func TestGaussianBlurKeepsFlatColour(t *testing.T) {
	s := canvas.NewSurface(8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			s.Set(x, y, colour.Colour{Red: 10, Green: 20, Blue: 30, Alpha: 255})
		}
	}
	reg, _ := s.Extract(s.Bounds())
	GaussianBlur(reg, 3)
	i := reg.Offset(0, 7)
	if reg.Pix[i] != 30 || reg.Pix[i+1] != 20 || reg.Pix[i+2] != 10 {
		t.Fatalf("flat colour changed: %v", reg.Pix[i:i+3])
	}
}

// gradientRegion returns a w x h region whose blue channel rises by step
// per column and is constant down each column.
func gradientRegion(t *testing.T, w, h int, step uint8) *canvas.Region {
	t.Helper()
	s := canvas.NewSurface(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s.Set(x, y, colour.Colour{Blue: uint8(x) * step, Alpha: 255})
		}
	}
	reg, err := s.Extract(s.Bounds())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return reg
}

func TestGaussianBlurHugeRadiusOnSmallRegion(t *testing.T) {
	reg := gradientRegion(t, 30, 30, 8)
	start := time.Now()
	GaussianBlur(reg, 1e6)
	if d := time.Since(start); d > 2*time.Second {
		t.Fatalf("blur took %v", d)
	}
	// The mean of a linear ramp is 29*8/2.
	for _, p := range []image.Point{{0, 0}, {15, 7}, {29, 29}} {
		v := reg.Pix[reg.Offset(p.X, p.Y)]
		if v < 115 || v > 117 {
			t.Fatalf("pixel %v = %d, want the flat mean 116", p, v)
		}
	}
}

func TestGaussianBlurWideKernelMatchesUncapped(t *testing.T) {
	const sigma = 6.0
	reg := gradientRegion(t, 5, 3, 50)
	w := reg.Width()
	src := make([]float64, w)
	for x := range src {
		src[x] = float64(reg.Pix[reg.Offset(x, 0)])
	}
	// Uncapped horizontal convolution over clamped edges.
	half := int(math.Ceil(3 * sigma))
	want := make([]float64, w)
	for x := range want {
		var acc, sum float64
		for d := -half; d <= half; d++ {
			k := math.Exp(-float64(d*d) / (2 * sigma * sigma))
			acc += k * src[clamp(x+d, 0, w-1)]
			sum += k
		}
		want[x] = acc / sum
	}
	GaussianBlur(reg, sigma)
	for x := range want {
		got := float64(reg.Pix[reg.Offset(x, 1)])
		if math.Abs(got-want[x]) > 1 {
			t.Fatalf("column %d = %v, want %.2f", x, got, want[x])
		}
	}
}

func TestGaussianKernelIsCappedAndNormalised(t *testing.T) {
	k := gaussianKernel(1e6, 4)
	if len(k) != 9 {
		t.Fatalf("kernel length %d, want 9", len(k))
	}
	var sum float64
	for _, v := range k {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("kernel sums to %v", sum)
	}
	if k[0] != k[8] || k[0] <= k[4] {
		t.Fatalf("edge taps %v %v should carry the tail over centre %v", k[0], k[8], k[4])
	}
}

func TestPixelateAveragesBlocks(t *testing.T) {
	reg := checkerRegion(t)
	Pixelate(reg, 4)
	first := reg.Offset(0, 0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			i := reg.Offset(x, y)
			if !bytes.Equal(reg.Pix[i:i+3], reg.Pix[first:first+3]) {
				t.Fatalf("block not uniform at %d,%d", x, y)
			}
		}
	}
	if v := reg.Pix[first]; v != 127 {
		t.Fatalf("block average = %d, want 127", v)
	}
}
