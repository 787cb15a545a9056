package verification

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kozaktomas/face-verifier/internal/facematch"
	"github.com/kozaktomas/face-verifier/internal/imaging"
)

// DefaultRotationAngles are tried in order when rotation search is enabled.
var DefaultRotationAngles = []int{0, 90, 180, 270}

// Config holds every tunable of a verification run. Each Verifier owns its
// own copy, so runs with different thresholds do not interfere.
type Config struct {
	Filter         facematch.FilterConfig
	MatchThreshold float64
	EnableRotation bool
	RotationAngles []int
	Concurrency    int // applicants and comparison documents processed at once
}

// DefaultConfig returns the default verification settings.
func DefaultConfig() Config {
	return Config{
		Filter:         facematch.DefaultFilterConfig(),
		MatchThreshold: facematch.DefaultMatchThreshold,
		EnableRotation: true,
		RotationAngles: slices.Clone(DefaultRotationAngles),
		Concurrency:    4,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("quality filter: %w", err)
	}
	if _, err := facematch.NewMatcher(c.MatchThreshold); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	return nil
}

// Angles returns the rotation angles to try: 0 first, then the configured
// angles normalized to [0, 360) without duplicates. Only 0 when rotation is
// disabled.
func (c Config) Angles() []int {
	if !c.EnableRotation {
		return []int{0}
	}
	angles := []int{0}
	for _, a := range c.RotationAngles {
		a = imaging.NormalizeAngle(a)
		if !slices.Contains(angles, a) {
			angles = append(angles, a)
		}
	}
	return angles
}
