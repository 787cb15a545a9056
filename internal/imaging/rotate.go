package imaging

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// NormalizeAngle folds an angle in degrees into [0, 360).
func NormalizeAngle(angle int) int {
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	return angle
}

// Rotate rotates img counter-clockwise by angle degrees. The canvas grows to
// hold the whole rotated image; uncovered corners are filled white.
// Multiples of 90 are exact pixel remaps.
func Rotate(img image.Image, angle int) image.Image {
	switch NormalizeAngle(angle) {
	case 0:
		return img
	case 90:
		return rotate90(img)
	case 180:
		return rotate180(img)
	case 270:
		return rotate270(img)
	default:
		return rotateArbitrary(img, float64(NormalizeAngle(angle)))
	}
}

func rotate90(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := range w {
		for x := range h {
			dst.Set(x, y, img.At(b.Min.X+w-1-y, b.Min.Y+x))
		}
	}
	return dst
}

func rotate180(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			dst.Set(x, y, img.At(b.Min.X+w-1-x, b.Min.Y+h-1-y))
		}
	}
	return dst
}

func rotate270(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := range w {
		for x := range h {
			dst.Set(x, y, img.At(b.Min.X+y, b.Min.Y+h-1-x))
		}
	}
	return dst
}

func rotateArbitrary(img image.Image, degrees float64) image.Image {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)

	nw := int(math.Ceil(math.Abs(h*sin) + math.Abs(w*cos)))
	nh := int(math.Ceil(math.Abs(h*cos) + math.Abs(w*sin)))

	cx := float64(b.Min.X) + w/2
	cy := float64(b.Min.Y) + h/2
	// Maps source to destination; y grows downwards, so this is a
	// counter-clockwise turn on screen.
	s2d := f64.Aff3{
		cos, sin, float64(nw)/2 - (cos*cx + sin*cy),
		-sin, cos, float64(nh)/2 - (-sin*cx + cos*cy),
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.BiLinear.Transform(dst, s2d, img, b, draw.Over, nil)
	return dst
}
