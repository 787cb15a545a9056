package facematch

import (
	"fmt"
	"math"
)

// FilterConfig holds the thresholds a detected face must meet to be used.
type FilterConfig struct {
	MinConfidence float64 // detector score floor
	MinSize       float64 // shorter box side, pixels
	MinAreaRatio  float64 // box area / image area floor
	MaxAreaRatio  float64 // box area / image area ceiling, 0 disables
}

// DefaultFilterConfig returns the thresholds used when nothing is configured.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinConfidence: 0.5,
		MinSize:       30,
		MinAreaRatio:  0.0002,
		MaxAreaRatio:  0.85,
	}
}

// Validate checks that the thresholds are usable.
func (c FilterConfig) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within [0, 1], got %v", c.MinConfidence)
	}
	if c.MinSize < 0 {
		return fmt.Errorf("min face size must not be negative, got %v", c.MinSize)
	}
	if c.MinAreaRatio < 0 || c.MinAreaRatio > 1 {
		return fmt.Errorf("min area ratio must be within [0, 1], got %v", c.MinAreaRatio)
	}
	if c.MaxAreaRatio < 0 || c.MaxAreaRatio > 1 {
		return fmt.Errorf("max area ratio must be within [0, 1], got %v", c.MaxAreaRatio)
	}
	if c.MaxAreaRatio > 0 && c.MaxAreaRatio < c.MinAreaRatio {
		return fmt.Errorf("max area ratio %v is below min area ratio %v", c.MaxAreaRatio, c.MinAreaRatio)
	}
	return nil
}

// Reason identifies the rule that rejected a face.
type Reason string

const (
	ReasonInvalid       Reason = "invalid_detection"
	ReasonLowConfidence Reason = "low_confidence"
	ReasonTooSmall      Reason = "too_small"
	ReasonAreaRatio     Reason = "area_ratio"
)

// Decision is the outcome of evaluating one face.
type Decision struct {
	Accepted bool
	Reason   Reason // empty when accepted
	Detail   string
}

// QualityFilter decides which detected faces are usable for comparison.
// It is a pure function of the face and its configuration.
type QualityFilter struct {
	cfg FilterConfig
}

// NewQualityFilter creates a filter with the given thresholds.
func NewQualityFilter(cfg FilterConfig) QualityFilter {
	return QualityFilter{cfg: cfg}
}

// Config returns the thresholds the filter applies.
func (f QualityFilter) Config() FilterConfig {
	return f.cfg
}

// Evaluate applies the rules in order and stops at the first failure.
func (f QualityFilter) Evaluate(face DetectedFace) (QualifiedFace, Decision) {
	if !face.Box.Valid() || face.ImageWidth <= 0 || face.ImageHeight <= 0 {
		return QualifiedFace{}, reject(ReasonInvalid,
			fmt.Sprintf("box %.1fx%.1f in image %dx%d", face.Box.Width, face.Box.Height, face.ImageWidth, face.ImageHeight))
	}
	if math.IsNaN(face.Confidence) || face.Confidence < 0 || face.Confidence > 1 {
		return QualifiedFace{}, reject(ReasonInvalid,
			fmt.Sprintf("confidence %v outside [0, 1]", face.Confidence))
	}
	trail := make([]string, 0, 3)

	if face.Confidence < f.cfg.MinConfidence {
		return QualifiedFace{}, reject(ReasonLowConfidence,
			fmt.Sprintf("confidence %.3f < %.3f", face.Confidence, f.cfg.MinConfidence))
	}
	trail = append(trail, fmt.Sprintf("confidence %.3f >= %.3f", face.Confidence, f.cfg.MinConfidence))

	if side := face.Box.MinSide(); side < f.cfg.MinSize {
		return QualifiedFace{}, reject(ReasonTooSmall,
			fmt.Sprintf("size %.0fx%.0f below %.0f px", face.Box.Width, face.Box.Height, f.cfg.MinSize))
	}
	trail = append(trail, fmt.Sprintf("size %.0fx%.0f >= %.0f px", face.Box.Width, face.Box.Height, f.cfg.MinSize))

	ratio := face.AreaRatio()
	if ratio < f.cfg.MinAreaRatio {
		return QualifiedFace{}, reject(ReasonAreaRatio,
			fmt.Sprintf("area ratio %.5f < %.5f", ratio, f.cfg.MinAreaRatio))
	}
	if f.cfg.MaxAreaRatio > 0 && ratio > f.cfg.MaxAreaRatio {
		return QualifiedFace{}, reject(ReasonAreaRatio,
			fmt.Sprintf("area ratio %.5f > %.5f", ratio, f.cfg.MaxAreaRatio))
	}
	trail = append(trail, fmt.Sprintf("area ratio %.5f accepted", ratio))

	return QualifiedFace{DetectedFace: face, Trail: trail}, Decision{Accepted: true}
}

// Accepts is Evaluate without the rationale.
func (f QualityFilter) Accepts(face DetectedFace) bool {
	_, d := f.Evaluate(face)
	return d.Accepted
}

func reject(reason Reason, detail string) Decision {
	return Decision{Reason: reason, Detail: detail}
}
