package verification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/face-verifier/internal/facematch"
)

// Verifier runs the verification pipeline for applicants.
type Verifier struct {
	cfg      Config
	faces    *FaceExtractor
	matcher  facematch.Matcher
	recorder Recorder
	progress ProgressFunc
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Verifier.
type Option func(*Verifier)

// WithRecorder sets the receiver of pipeline events.
func WithRecorder(r Recorder) Option {
	return func(v *Verifier) {
		if r != nil {
			v.recorder = r
		}
	}
}

// WithProgress sets a callback invoked after each document.
func WithProgress(fn ProgressFunc) Option {
	return func(v *Verifier) { v.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewVerifier creates a verifier from its configuration and collaborators.
func NewVerifier(cfg Config, documents DocumentExtractor, detector Detector, embedder Embedder, opts ...Option) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid verification config: %w", err)
	}
	matcher, err := facematch.NewMatcher(cfg.MatchThreshold)
	if err != nil {
		return nil, err
	}

	v := &Verifier{
		cfg:      cfg,
		matcher:  matcher,
		recorder: nopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	search := NewRotationSearch(detector, facematch.NewQualityFilter(cfg.Filter), cfg.Angles())
	search.recorder = v.recorder
	search.logger = v.logger
	v.faces = NewFaceExtractor(documents, search, embedder)
	return v, nil
}

// Config returns the configuration the verifier was built with.
func (v *Verifier) Config() Config {
	return v.cfg
}

// Run verifies every applicant and aggregates the results into a report.
// Applicants are independent: one applicant's failure never blocks another.
func (v *Verifier) Run(ctx context.Context, applicants []Applicant) *Report {
	results := make([]ApplicantResult, len(applicants))

	var g errgroup.Group
	g.SetLimit(v.cfg.Concurrency)
	for i, a := range applicants {
		g.Go(func() error {
			results[i] = v.VerifyApplicant(ctx, a)
			return nil
		})
	}
	_ = g.Wait()

	return Aggregate(uuid.New(), v.now().UTC(), results)
}

// VerifyApplicant extracts the applicant's primary face pool and matches
// every comparison document against it. It never fails: problems are
// reported in the result status and in each comparison's details.
func (v *Verifier) VerifyApplicant(ctx context.Context, a Applicant) ApplicantResult {
	start := v.now()
	result := ApplicantResult{
		Role:        a.Role,
		Label:       a.Label,
		Comparisons: make([]MatchResult, 0, len(a.Comparison)),
	}

	var pool []EmbeddedFace
	var failures []string
	for _, out := range v.processDocuments(ctx, a.Role, a.Primary) {
		if out.err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", out.doc.DisplayName(), out.err))
			continue
		}
		pool = append(pool, out.faces...)
	}
	result.PrimaryFacesDetected = len(pool)
	result.Faces = append(result.Faces, pool...)

	switch {
	case len(pool) > 0:
		result.Status = StatusSuccess
	case len(failures) > 0:
		result.Status = StatusError
		result.Error = strings.Join(failures, "; ")
	default:
		result.Status = StatusNoPrimaryFace
		result.Error = ErrNoPrimaryFace.Error()
	}
	if result.Status != StatusSuccess {
		v.logger.Warn("no usable primary face", "role", a.Role, "label", a.Label, "status", result.Status)
	}

	for _, out := range v.processDocuments(ctx, a.Role, a.Comparison) {
		result.Comparisons = append(result.Comparisons, v.decide(pool, out))
		result.Faces = append(result.Faces, out.faces...)
	}

	v.recorder.ApplicantVerified(result.Status, v.now().Sub(start))
	v.logger.Info("applicant verified",
		"role", a.Role,
		"label", a.Label,
		"status", result.Status,
		"primary_faces", result.PrimaryFacesDetected,
		"comparisons", len(result.Comparisons))
	return result
}

// documentOutcome is the result of processing one document: either the
// faces it produced or the error that stopped it.
type documentOutcome struct {
	doc   Document
	faces []EmbeddedFace
	err   error
}

func (v *Verifier) processDocuments(ctx context.Context, role Role, docs []Document) []documentOutcome {
	outcomes := make([]documentOutcome, len(docs))

	// Plain group: a failing document must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(v.cfg.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			outcomes[i] = v.processDocument(ctx, role, doc)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (v *Verifier) processDocument(ctx context.Context, role Role, doc Document) documentOutcome {
	faces, err := v.faces.Extract(ctx, doc)
	out := documentOutcome{doc: doc, faces: faces, err: err}

	switch {
	case err != nil:
		v.recorder.DocumentProcessed(doc.Role, OutcomeError)
		if kind := BackendKind(err); kind != "" {
			v.recorder.BackendFailed(kind)
		}
		v.logger.Warn("document processing failed",
			"role", role,
			"document", doc.DisplayName(),
			"class", doc.Class,
			"error", err)
	case len(faces) == 0:
		v.recorder.DocumentProcessed(doc.Role, OutcomeNoFaces)
		v.logger.Debug("no face in document", "role", role, "document", doc.DisplayName())
	default:
		v.recorder.DocumentProcessed(doc.Role, OutcomeFaces)
	}

	if v.progress != nil {
		v.progress(role, doc)
	}
	return out
}

// decide builds the match result of one comparison document.
func (v *Verifier) decide(pool []EmbeddedFace, out documentOutcome) MatchResult {
	res := MatchResult{
		DocumentClass: out.doc.Class,
		Filename:      out.doc.DisplayName(),
		FacesFound:    len(out.faces),
	}

	if out.err != nil {
		res.Details = detailsErrorPrefix + out.err.Error()
		return res
	}
	if len(out.faces) == 0 {
		res.Details = ErrNoFaceInComparison.Error()
		return res
	}
	res.RotationAngle = out.faces[0].Angle
	if len(pool) == 0 {
		res.Details = DetailsNoPrimaryFace
		return res
	}

	best, face, err := v.bestPair(pool, out.faces)
	if err != nil {
		v.recorder.BackendFailed(BackendKind(err))
		res.Details = detailsErrorPrefix + err.Error()
		return res
	}

	v.recorder.ComparisonDecided(best.IsMatch, best.Distance)
	res.IsMatch = best.IsMatch
	res.Distance = &best.Distance
	res.Confidence = &best.Confidence
	res.RotationAngle = face.Angle
	res.Details = DetailsComplete
	return res
}

// bestPair compares every primary face with every comparison face and
// returns the closest pair. Ties keep the earliest pair.
func (v *Verifier) bestPair(pool, candidates []EmbeddedFace) (facematch.Comparison, EmbeddedFace, error) {
	var (
		best     facematch.Comparison
		bestFace EmbeddedFace
		found    bool
	)
	for _, p := range pool {
		for _, c := range candidates {
			cmp, err := v.matcher.Compare(p.Embedding, c.Embedding)
			if err != nil {
				return facematch.Comparison{}, EmbeddedFace{}, embeddingError(
					fmt.Errorf("comparing %s with %s: %w", p.Document, c.Document, err))
			}
			if !found || cmp.Distance < best.Distance {
				best, bestFace, found = cmp, c, true
			}
		}
	}
	return best, bestFace, nil
}
