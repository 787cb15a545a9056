package facematch

import (
	"fmt"
	"math"
)

// BBox is a face bounding box in pixel coordinates of the image it was detected in.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BBoxFromCorners converts a detector box [x1, y1, x2, y2] into a BBox.
func BBoxFromCorners(corners []float64) (BBox, error) {
	if len(corners) != 4 {
		return BBox{}, fmt.Errorf("bbox must have 4 coordinates, got %d", len(corners))
	}
	for _, c := range corners {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return BBox{}, fmt.Errorf("bbox has non-finite coordinate %v", c)
		}
	}
	return BBox{
		X:      corners[0],
		Y:      corners[1],
		Width:  corners[2] - corners[0],
		Height: corners[3] - corners[1],
	}, nil
}

// Corners returns the box as [x1, y1, x2, y2].
func (b BBox) Corners() []float64 {
	return []float64{b.X, b.Y, b.X + b.Width, b.Y + b.Height}
}

// Area returns width*height in square pixels.
func (b BBox) Area() float64 {
	return b.Width * b.Height
}

// MinSide returns the shorter side of the box.
func (b BBox) MinSide() float64 {
	return min(b.Width, b.Height)
}

// Valid reports whether the box has a positive, finite extent.
func (b BBox) Valid() bool {
	for _, v := range []float64{b.X, b.Y, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Width > 0 && b.Height > 0
}

// Clip returns the part of the box that lies inside a width x height image.
// A box entirely outside the image clips to a zero-sized box.
func (b BBox) Clip(width, height int) BBox {
	x1 := math.Max(b.X, 0)
	y1 := math.Max(b.Y, 0)
	x2 := math.Min(b.X+b.Width, float64(width))
	y2 := math.Min(b.Y+b.Height, float64(height))
	if x2 <= x1 || y2 <= y1 {
		return BBox{X: x1, Y: y1}
	}
	return BBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// AreaRatio returns the share of a width x height image covered by the box.
func (b BBox) AreaRatio(width, height int) float64 {
	imageArea := float64(width) * float64(height)
	if imageArea <= 0 {
		return 0
	}
	return b.Area() / imageArea
}
