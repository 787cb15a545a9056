package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/face-verifier/internal/facematch"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

// fakeVerifier returns a fixed report and remembers the applicants it saw.
type fakeVerifier struct {
	mu     sync.Mutex
	seen   [][]verification.Applicant
	config verification.Config
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{config: verification.DefaultConfig()}
}

func (f *fakeVerifier) Run(ctx context.Context, applicants []verification.Applicant) *verification.Report {
	f.mu.Lock()
	f.seen = append(f.seen, applicants)
	f.mu.Unlock()

	results := make([]verification.ApplicantResult, 0, len(applicants))
	for _, a := range applicants {
		res := verification.ApplicantResult{
			Role:                 a.Role,
			Label:                a.Label,
			Status:               verification.StatusSuccess,
			PrimaryFacesDetected: len(a.Primary),
			Comparisons:          []verification.MatchResult{},
		}
		for _, d := range a.Primary {
			res.Faces = append(res.Faces, verification.EmbeddedFace{
				QualifiedFace: facematch.QualifiedFace{DetectedFace: facematch.DetectedFace{
					Box:        facematch.BBox{X: 1, Y: 1, Width: 40, Height: 40},
					Confidence: 0.9,
				}},
				Embedding:    facematch.Embedding{1, 0, 0, 0},
				DocumentRole: verification.RolePrimary,
				Document:     d.DisplayName(),
			})
		}
		results = append(results, res)
	}
	return verification.Aggregate(uuid.New(), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), results)
}

func (f *fakeVerifier) Config() verification.Config {
	return f.config
}

func (f *fakeVerifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
