package facematch

// Embedding is a fixed-length face descriptor produced by the embedding backend.
type Embedding []float32

// Detection is a single raw detector hit.
type Detection struct {
	Box        BBox
	Confidence float64
}

// DetectedFace is a detection placed in the context of the image it was found in.
type DetectedFace struct {
	Box         BBox
	Confidence  float64
	Angle       int // rotation applied to the source image before detection, degrees
	ImageWidth  int
	ImageHeight int
}

// NewDetectedFace attaches image dimensions and rotation to a raw detection.
func NewDetectedFace(d Detection, angle, width, height int) DetectedFace {
	return DetectedFace{
		Box:         d.Box,
		Confidence:  d.Confidence,
		Angle:       angle,
		ImageWidth:  width,
		ImageHeight: height,
	}
}

// AreaRatio returns the share of the image covered by the face box.
func (f DetectedFace) AreaRatio() float64 {
	return f.Box.AreaRatio(f.ImageWidth, f.ImageHeight)
}

// QualifiedFace is a detected face that passed every quality rule.
// Trail records the rules it passed, in evaluation order.
type QualifiedFace struct {
	DetectedFace
	Trail []string
}
