package verification

import (
	"context"
	"image"
	"time"

	"github.com/kozaktomas/face-verifier/internal/facematch"
)

// Detector finds faces in an image. No detections is a valid empty result.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]facematch.Detection, error)
}

// Embedder computes the embedding of the face inside box.
type Embedder interface {
	Embed(ctx context.Context, img image.Image, box facematch.BBox) (facematch.Embedding, error)
}

// DocumentExtractor turns a document file into its raster images.
type DocumentExtractor interface {
	Extract(ctx context.Context, path, mimeType string) ([]RawImage, error)
}

// Recorder receives pipeline events, typically to update metrics.
type Recorder interface {
	DocumentProcessed(role DocumentRole, outcome string)
	FacesRejected(reason string, n int)
	ComparisonDecided(matched bool, distance float64)
	BackendFailed(kind string)
	ApplicantVerified(status Status, took time.Duration)
}

// ProgressFunc is called once per processed document.
type ProgressFunc func(applicant Role, doc Document)

// Document outcome labels passed to Recorder.DocumentProcessed.
const (
	OutcomeFaces   = "faces"
	OutcomeNoFaces = "no_faces"
	OutcomeError   = "error"
)

type nopRecorder struct{}

func (nopRecorder) DocumentProcessed(DocumentRole, string) {}
func (nopRecorder) FacesRejected(string, int) {}
func (nopRecorder) ComparisonDecided(bool, float64) {}
func (nopRecorder) BackendFailed(string) {}
func (nopRecorder) ApplicantVerified(Status, time.Duration) {}
