// Package metrics exposes verification pipeline metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/face-verifier/internal/verification"
)

// Metrics records verification pipeline events. It implements
// verification.Recorder. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Documents processed by role and outcome
	Documents *prometheus.CounterVec

	// Detected faces rejected by the quality filter, by reason
	Rejections *prometheus.CounterVec

	// Comparison decisions by result
	Comparisons *prometheus.CounterVec

	// Distance of every decided comparison
	Distance prometheus.Histogram

	// Failed detector or embedder calls
	BackendErrors *prometheus.CounterVec

	// Applicant verifications by status, and how long they took
	Applicants        *prometheus.CounterVec
	ApplicantDuration prometheus.Histogram

	// HTTP API requests by method and status code
	HTTPRequests *prometheus.CounterVec
}

var _ verification.Recorder = (*Metrics)(nil)

// New creates a Metrics instance on its own registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "face_verifier_documents_total",
			Help: "Documents processed by role and outcome",
		}, []string{"role", "outcome"}), // outcome: "faces", "no_faces", "error"

		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "face_verifier_faces_rejected_total",
			Help: "Detected faces rejected by the quality filter",
		}, []string{"reason"}),

		Comparisons: f.NewCounterVec(prometheus.CounterOpts{
			Name: "face_verifier_comparisons_total",
			Help: "Comparison document decisions",
		}, []string{"result"}), // result: "match", "no_match"

		Distance: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "face_verifier_match_distance",
			Help:    "Cosine distance of the closest face pair per comparison document",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 1, 1.5, 2},
		}),

		BackendErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "face_verifier_backend_errors_total",
			Help: "Failed face backend calls by backend",
		}, []string{"backend"}), // backend: "detection", "embedding"

		Applicants: f.NewCounterVec(prometheus.CounterOpts{
			Name: "face_verifier_applicants_total",
			Help: "Applicant verifications by status",
		}, []string{"status"}),

		ApplicantDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "face_verifier_applicant_duration_seconds",
			Help:    "Duration of one applicant's verification",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "face_verifier_http_requests_total",
			Help: "HTTP API requests by method and status code",
		}, []string{"method", "code"}),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument counts the requests served by next. A nil *Metrics returns next
// unchanged.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return promhttp.InstrumentHandlerCounter(m.HTTPRequests, next)
}

func (m *Metrics) DocumentProcessed(role verification.DocumentRole, outcome string) {
	if m != nil {
		m.Documents.WithLabelValues(string(role), outcome).Inc()
	}
}

func (m *Metrics) FacesRejected(reason string, n int) {
	if m != nil {
		m.Rejections.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *Metrics) ComparisonDecided(matched bool, distance float64) {
	if m == nil {
		return
	}
	result := "no_match"
	if matched {
		result = "match"
	}
	m.Comparisons.WithLabelValues(result).Inc()
	m.Distance.Observe(distance)
}

func (m *Metrics) BackendFailed(kind string) {
	if m != nil && kind != "" {
		m.BackendErrors.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ApplicantVerified(status verification.Status, took time.Duration) {
	if m != nil {
		m.Applicants.WithLabelValues(string(status)).Inc()
		m.ApplicantDuration.Observe(took.Seconds())
	}
}
