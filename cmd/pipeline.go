package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/face-verifier/internal/config"
	"github.com/kozaktomas/face-verifier/internal/document"
	"github.com/kozaktomas/face-verifier/internal/faceapi"
	"github.com/kozaktomas/face-verifier/internal/facematch"
	"github.com/kozaktomas/face-verifier/internal/storage"
	"github.com/kozaktomas/face-verifier/internal/storage/s3"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

// pipeline bundles the collaborators of a verification run.
type pipeline struct {
	verifier *verification.Verifier
	faceAPI  *faceapi.Client
	objects  storage.ObjectStorage // nil when S3 could not be configured
}

// verificationConfig maps the loaded configuration onto verifier settings.
func verificationConfig(cfg *config.Config) verification.Config {
	v := cfg.Verification
	return verification.Config{
		Filter: facematch.FilterConfig{
			MinConfidence: v.MinFaceConfidence,
			MinSize:       float64(v.MinFaceSize),
			MinAreaRatio:  v.MinAreaRatio,
			MaxAreaRatio:  v.MaxAreaRatio,
		},
		MatchThreshold: v.MatchThreshold,
		EnableRotation: v.EnableRotation,
		RotationAngles: v.RotationAngles,
		Concurrency:    v.Concurrency,
	}
}

// newObjectStorage returns the S3 store, or nil when it cannot be configured.
// s3:// documents then fail individually instead of aborting the run.
func newObjectStorage(ctx context.Context, cfg *config.Config) storage.ObjectStorage {
	client, err := s3.NewClient(ctx, &cfg.S3)
	if err != nil {
		slog.Warn("S3 storage unavailable, s3:// documents will fail", "error", err)
		return nil
	}
	return client
}

// buildPipeline wires the face service client, document extraction and the
// verifier from cfg.
func buildPipeline(ctx context.Context, cfg *config.Config, opts ...verification.Option) (*pipeline, error) {
	faceAPI := faceapi.NewClient(cfg.FaceAPI.URL, cfg.FaceAPI.Timeout, cfg.FaceAPI.MaxInFlight)
	objects := newObjectStorage(ctx, cfg)

	extractor := document.NewExtractor(document.Config{
		PDFToPPM: cfg.Extraction.PDFToPPMPath,
		DPI:      cfg.Extraction.PDFDPI,
	}, document.WithLocalizer(storage.NewFetcher(objects, cfg.Extraction.DatasetDir)))

	verifier, err := verification.NewVerifier(verificationConfig(cfg), extractor, faceAPI, faceAPI, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid verification settings: %w", err)
	}

	return &pipeline{verifier: verifier, faceAPI: faceAPI, objects: objects}, nil
}
