package facematch

import (
	"fmt"
	"math"
)

// DefaultMatchThreshold is the largest cosine distance still considered the same person.
const DefaultMatchThreshold = 0.60

// Comparison is the outcome of comparing two embeddings.
type Comparison struct {
	Distance   float64
	Confidence float64
	IsMatch    bool
}

// Matcher turns a cosine distance into a match decision.
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a matcher, rejecting thresholds outside (0, 2].
func NewMatcher(threshold float64) (Matcher, error) {
	if threshold <= 0 || threshold > 2 || math.IsNaN(threshold) {
		return Matcher{}, fmt.Errorf("match threshold must be within (0, 2], got %v", threshold)
	}
	return Matcher{Threshold: threshold}, nil
}

// Compare computes the distance between a and b and decides on it.
func (m Matcher) Compare(a, b Embedding) (Comparison, error) {
	d, err := CosineDistance(a, b)
	if err != nil {
		return Comparison{}, err
	}
	return m.Decide(d), nil
}

// Decide applies the threshold to an already computed distance.
func (m Matcher) Decide(distance float64) Comparison {
	return Comparison{
		Distance:   distance,
		Confidence: ConfidenceFromDistance(distance),
		IsMatch:    distance <= m.Threshold,
	}
}

// ConfidenceFromDistance maps a distance to a [0, 1] similarity score.
func ConfidenceFromDistance(distance float64) float64 {
	return math.Max(0, math.Min(1, 1-distance))
}
