package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-verifier/internal/config"
	"github.com/kozaktomas/face-verifier/internal/database/mock"
	"github.com/kozaktomas/face-verifier/internal/metrics"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

type stubVerifier struct{}

func (stubVerifier) Run(ctx context.Context, applicants []verification.Applicant) *verification.Report {
	results := make([]verification.ApplicantResult, 0, len(applicants))
	for _, a := range applicants {
		results = append(results, verification.ApplicantResult{
			Role:        a.Role,
			Status:      verification.StatusNoPrimaryFace,
			Comparisons: []verification.MatchResult{},
		})
	}
	return verification.Aggregate(uuid.New(), time.Now().UTC(), results)
}

func (stubVerifier) Config() verification.Config { return verification.DefaultConfig() }

func newTestServer(t *testing.T, deps Dependencies) *httptest.Server {
	t.Helper()
	s := NewServer(config.Defaults(), 0, "127.0.0.1", deps)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", url, err)
	}
	return resp.StatusCode, string(body)
}

func TestServer_Routes(t *testing.T) {
	ts := newTestServer(t, Dependencies{
		Verifier: stubVerifier{},
		Reports:  mock.NewMockReportRepository(),
		Metrics:  metrics.New(),
	})

	resp, err := http.Post(ts.URL+"/api/v1/verifications", "application/json",
		strings.NewReader(`{"applicants":[{"role":"applicant"}]}`))
	if err != nil {
		t.Fatalf("POST verifications: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("POST /api/v1/verifications: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	tests := []struct {
		path         string
		wantStatus   int
		wantContains string
	}{
		{"/api/v1/health", http.StatusOK, `"status":"ok"`},
		{"/api/v1/ready", http.StatusOK, ""},
		{"/api/v1/config", http.StatusOK, `"persistence":true`},
		{"/api/v1/verifications/" + uuid.NewString(), http.StatusNotFound, ""},
		{"/metrics", http.StatusOK, "face_verifier_http_requests_total"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body := get(t, ts.URL+tt.path)
			if code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, code)
			}
			if !strings.Contains(body, tt.wantContains) {
				t.Errorf("expected body to contain %q, got %s", tt.wantContains, body)
			}
		})
	}
}

func TestServer_WithoutOptionalDependencies(t *testing.T) {
	ts := newTestServer(t, Dependencies{Verifier: stubVerifier{}})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/v1/verifications/" + uuid.NewString(), http.StatusServiceUnavailable},
		{"/metrics", http.StatusNotFound},
	}

	for _, tt := range tests {
		if code, _ := get(t, ts.URL+tt.path); code != tt.wantStatus {
			t.Errorf("GET %s: expected status %d, got %d", tt.path, tt.wantStatus, code)
		}
	}
}
