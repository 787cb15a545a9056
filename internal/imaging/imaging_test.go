package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// marked returns a w x h white image with a red pixel at the top-left corner
// and a blue pixel at the top-right corner.
func marked(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.White)
		}
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(w-1, 0, color.RGBA{B: 255, A: 255})
	return img
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r > 0xf000 && g < 0x1000 && b < 0x1000
}

func isBlue(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return b > 0xf000 && r < 0x1000 && g < 0x1000
}

func TestRotateRightAngles(t *testing.T) {
	src := marked(4, 2)

	tests := []struct {
		angle     int
		wantW     int
		wantH     int
		red, blue image.Point
	}{
		{0, 4, 2, image.Pt(0, 0), image.Pt(3, 0)},
		// Counter-clockwise: top-right corner moves to top-left.
		{90, 2, 4, image.Pt(0, 3), image.Pt(0, 0)},
		{180, 4, 2, image.Pt(3, 1), image.Pt(0, 1)},
		{270, 2, 4, image.Pt(1, 0), image.Pt(1, 3)},
		{-90, 2, 4, image.Pt(1, 0), image.Pt(1, 3)},
		{450, 2, 4, image.Pt(0, 3), image.Pt(0, 0)},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.angle), func(t *testing.T) {
			got := Rotate(src, tt.angle)
			b := got.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Fatalf("angle %d: size %dx%d, want %dx%d", tt.angle, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
			if !isRed(got.At(tt.red.X, tt.red.Y)) {
				t.Errorf("angle %d: expected red at %v", tt.angle, tt.red)
			}
			if !isBlue(got.At(tt.blue.X, tt.blue.Y)) {
				t.Errorf("angle %d: expected blue at %v", tt.angle, tt.blue)
			}
		})
	}
}

func TestRotateFullTurnIsIdentity(t *testing.T) {
	src := marked(5, 3)
	got := Rotate(Rotate(Rotate(Rotate(src, 90), 90), 90), 90)
	for y := range 3 {
		for x := range 5 {
			if src.At(x, y) != got.At(x, y) {
				t.Fatalf("pixel (%d,%d) differs after four quarter turns", x, y)
			}
		}
	}
}

func TestRotateArbitraryExpandsCanvas(t *testing.T) {
	src := marked(100, 50)
	got := Rotate(src, 45)
	b := got.Bounds()
	// |50 sin45| + |100 cos45| ≈ 106.07
	if b.Dx() < 106 || b.Dx() > 108 || b.Dy() < 106 || b.Dy() > 108 {
		t.Errorf("45 degree canvas = %dx%d, want about 107x107", b.Dx(), b.Dy())
	}
	// Corners of the expanded canvas are not covered by the source.
	r, g, bl, _ := got.At(0, 0).RGBA()
	if r != 0xffff || g != 0xffff || bl != 0xffff {
		t.Errorf("uncovered corner is not white")
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := map[int]int{0: 0, 90: 90, 360: 0, 370: 10, -90: 270, -450: 270}
	for in, want := range tests {
		if got := NormalizeAngle(in); got != want {
			t.Errorf("NormalizeAngle(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, marked(8, 6)); err != nil {
		t.Fatal(err)
	}

	img, format, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Errorf("size = %v", img.Bounds())
	}

	if _, _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected error for garbage input")
	}
	if _, _, err := Decode(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestDecodeFileAndEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(marked(16, 16), 90)
	if err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "face.jpg")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	img, format, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile() error = %v", err)
	}
	if format != "jpeg" || img.Bounds().Dx() != 16 {
		t.Errorf("DecodeFile() = %s %v", format, img.Bounds())
	}

	if _, _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}
