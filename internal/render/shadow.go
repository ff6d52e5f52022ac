package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures the drop shadow added around a finished capture.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadowOptions is a soft shadow down and to the right.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{Radius: 16, Offset: image.Pt(10, 10), Opacity: 0.5}
}

// DropShadow returns img on a transparent canvas large enough to hold a
// blurred shadow of its opaque pixels. The result has a zero origin. When
// the options produce no shadow img is returned unchanged.
func DropShadow(img *image.RGBA, opts ShadowOptions) *image.RGBA {
	if img == nil || img.Bounds().Empty() || opts.Opacity <= 0 {
		return img
	}
	opacity := min(opts.Opacity, 1)
	radius := max(opts.Radius, 0)

	src := img.Bounds()
	padded := src.Inset(-radius)
	shadow := padded.Add(opts.Offset)
	all := src.Union(shadow)

	mask := image.NewAlpha(padded.Sub(padded.Min))
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			if a := img.RGBAAt(x, y).A; a != 0 {
				mask.SetAlpha(x-padded.Min.X, y-padded.Min.Y, color.Alpha{A: a})
			}
		}
	}
	mask = boxBlurAlpha(mask, radius)

	dst := image.NewRGBA(all.Sub(all.Min))
	shade := image.NewUniform(color.RGBA{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, mask.Bounds().Add(shadow.Min.Sub(all.Min)), shade, image.Point{}, mask, image.Point{}, draw.Over)
	draw.Draw(dst, src.Sub(all.Min), img, src.Min, draw.Over)
	return dst
}

// boxBlurAlpha is a separable box blur over prefix sums, with the window
// clamped at the edges.
func boxBlurAlpha(src *image.Alpha, radius int) *image.Alpha {
	b := src.Bounds()
	out := image.NewAlpha(b)
	if radius <= 0 {
		copy(out.Pix, src.Pix)
		return out
	}
	w, h := b.Dx(), b.Dy()
	tmp := image.NewAlpha(b)
	blur1D := func(n int, get func(int) uint8, set func(int, uint8)) {
		prefix := make([]int, n+1)
		for i := 0; i < n; i++ {
			prefix[i+1] = prefix[i] + int(get(i))
		}
		for i := 0; i < n; i++ {
			lo := max(i-radius, 0)
			hi := min(i+radius, n-1)
			set(i, uint8((prefix[hi+1]-prefix[lo])/(hi-lo+1)))
		}
	}
	for y := 0; y < h; y++ {
		row := y * src.Stride
		blur1D(w,
			func(x int) uint8 { return src.Pix[row+x] },
			func(x int, v uint8) { tmp.Pix[y*tmp.Stride+x] = v })
	}
	for x := 0; x < w; x++ {
		blur1D(h,
			func(y int) uint8 { return tmp.Pix[y*tmp.Stride+x] },
			func(y int, v uint8) { out.Pix[y*out.Stride+x] = v })
	}
	return out
}
