package geometry

import (
	"image"
	"testing"
)

func TestPointDistance(t *testing.T) {
	if got := Pt(0, 0).Distance(Pt(3, 4)); got != 5 {
		t.Fatalf("distance = %v, want 5", got)
	}
	if got := Pt(5, 7).Sub(Pt(2, 3)); got != Pt(3, 4) {
		t.Fatalf("sub = %v", got)
	}
}

func TestRectangleNormalised(t *testing.T) {
	tests := []struct {
		name string
		in   Rectangle
		want Rectangle
	}{
		{"positive", Rectangle{10, 10, 40, 70}, Rectangle{10, 10, 40, 70}},
		{"negative width", Rectangle{50, 10, -40, 70}, Rectangle{10, 10, 40, 70}},
		{"negative both", Rectangle{50, 80, -40, -70}, Rectangle{10, 10, 40, 70}},
		{"zero", Rectangle{5, 5, 0, 0}, Rectangle{5, 5, 0, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalised(); got != tc.want {
				t.Fatalf("Normalised() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRectangleContains(t *testing.T) {
	r := Rectangle{X: 50, Y: 50, W: -50, H: -50}
	if !r.Contains(Pt(0, 0)) {
		t.Fatalf("expected origin inside")
	}
	if r.Contains(Pt(50, 10)) {
		t.Fatalf("max edge should be exclusive")
	}
}

func TestRectangleImage(t *testing.T) {
	r := Rectangle{X: 1.5, Y: 2.2, W: -1, H: 3}
	if got, want := r.Image(), image.Rect(0, 2, 2, 6); got != want {
		t.Fatalf("Image() = %v, want %v", got, want)
	}
	if got := RectangleFromImage(image.Rect(1, 2, 4, 6)); got != (Rectangle{1, 2, 3, 4}) {
		t.Fatalf("RectangleFromImage = %+v", got)
	}
}
