package verification

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/kozaktomas/face-verifier/internal/facematch"
	"github.com/kozaktomas/face-verifier/internal/imaging"
)

// Orientation is the outcome of a rotation search over one image.
type Orientation struct {
	Angle int                       // chosen angle, 0 when nothing was found
	Image image.Image               // the image rotated by Angle
	Faces []facematch.QualifiedFace // empty when no angle produced a face
	Tried []int                     // angles evaluated, in order
}

// RotationSearch runs detection and quality filtering over a sequence of
// rotations and stops at the first angle that produces a qualified face.
type RotationSearch struct {
	detector Detector
	filter   facematch.QualityFilter
	angles   []int
	rotate   func(image.Image, int) image.Image
	recorder Recorder
	logger   *slog.Logger
}

// NewRotationSearch creates a search over angles. The first angle should be 0;
// Config.Angles guarantees that.
func NewRotationSearch(detector Detector, filter facematch.QualityFilter, angles []int) *RotationSearch {
	if len(angles) == 0 {
		angles = []int{0}
	}
	return &RotationSearch{
		detector: detector,
		filter:   filter,
		angles:   angles,
		rotate:   imaging.Rotate,
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
}

// Search finds the first orientation of img in which at least one face passes
// the quality filter. A detector failure at any angle ends the search.
func (s *RotationSearch) Search(ctx context.Context, img image.Image) (Orientation, error) {
	tried := make([]int, 0, len(s.angles))
	for _, angle := range s.angles {
		if err := ctx.Err(); err != nil {
			return Orientation{Image: img, Tried: tried}, detectionError(err)
		}

		rotated := s.rotate(img, angle)
		tried = append(tried, angle)

		detections, err := s.detector.Detect(ctx, rotated)
		if err != nil {
			return Orientation{Image: img, Tried: tried}, detectionError(fmt.Errorf("angle %d: %w", angle, err))
		}

		faces := s.qualify(detections, rotated, angle)
		if len(faces) > 0 {
			if angle != 0 {
				s.logger.Debug("faces found after rotation", "angle", angle, "faces", len(faces))
			}
			return Orientation{Angle: angle, Image: rotated, Faces: faces, Tried: tried}, nil
		}
	}
	return Orientation{Angle: 0, Image: img, Tried: tried}, nil
}

func (s *RotationSearch) qualify(detections []facematch.Detection, img image.Image, angle int) []facematch.QualifiedFace {
	b := img.Bounds()
	var faces []facematch.QualifiedFace
	rejected := make(map[facematch.Reason]int)
	for _, d := range detections {
		q, decision := s.filter.Evaluate(facematch.NewDetectedFace(d, angle, b.Dx(), b.Dy()))
		if !decision.Accepted {
			rejected[decision.Reason]++
			s.logger.Debug("face rejected", "angle", angle, "reason", decision.Reason, "detail", decision.Detail)
			continue
		}
		faces = append(faces, q)
	}
	for reason, n := range rejected {
		s.recorder.FacesRejected(string(reason), n)
	}
	return faces
}
