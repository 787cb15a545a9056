package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/face-verifier/internal/database"
	"github.com/kozaktomas/face-verifier/internal/input"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

// maxRequestBytes caps the size of a verification request body.
const maxRequestBytes = 1 << 20

// Verifier runs verification for a set of applicants.
type Verifier interface {
	Run(ctx context.Context, applicants []verification.Applicant) *verification.Report
	Config() verification.Config
}

// VerificationsHandler handles verification runs
type VerificationsHandler struct {
	verifier Verifier
	reports  database.ReportWriter
}

// NewVerificationsHandler creates a new verifications handler. reports may be
// nil, in which case runs are not persisted.
func NewVerificationsHandler(verifier Verifier, reports database.ReportWriter) *VerificationsHandler {
	return &VerificationsHandler{verifier: verifier, reports: reports}
}

// Create verifies the applicants in the request body and returns the report.
func (h *VerificationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	applicants, err := input.ParseJSON(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, input.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		}
		return
	}

	report := h.verifier.Run(r.Context(), applicants)

	if h.reports != nil {
		if err := h.reports.SaveReport(r.Context(), report); err != nil {
			// The caller still gets the result; only the stored copy is missing.
			slog.Error("failed to store verification report", "id", report.ID, "error", err)
		}
	}

	slog.Info("verification finished",
		"id", report.ID,
		"status", report.Status,
		"co_applicants", len(report.CoApplicants))
	respondJSON(w, http.StatusOK, report)
}

// Get returns a stored report.
func (h *VerificationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, run.Report)
}

// FaceResponse describes one stored face without its embedding.
type FaceResponse struct {
	ApplicantRole  verification.Role         `json:"applicant_role"`
	ApplicantLabel string                    `json:"applicant_label,omitempty"`
	DocumentRole   verification.DocumentRole `json:"document_role"`
	Document       string                    `json:"document"`
	ImageIndex     int                       `json:"image_index"`
	Angle          int                       `json:"rotation_angle"`
	Confidence     float64                   `json:"confidence"`
	BBox           []float64                 `json:"bbox"`
	Dim            int                       `json:"embedding_dim"`
}

// Faces lists the faces stored for a run.
func (h *VerificationsHandler) Faces(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}

	faces, err := h.reports.GetFaces(r.Context(), run.ID)
	if err != nil {
		slog.Error("failed to load faces", "id", run.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load faces")
		return
	}

	out := make([]FaceResponse, 0, len(faces))
	for _, f := range faces {
		out = append(out, FaceResponse{
			ApplicantRole:  f.ApplicantRole,
			ApplicantLabel: f.ApplicantLabel,
			DocumentRole:   f.DocumentRole,
			Document:       f.Document,
			ImageIndex:     f.ImageIndex,
			Angle:          f.Angle,
			Confidence:     f.Confidence,
			BBox:           f.BBox,
			Dim:            f.Dim,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// lookup resolves the {id} URL parameter to a stored run, writing the error
// response itself when it cannot.
func (h *VerificationsHandler) lookup(w http.ResponseWriter, r *http.Request) (*database.StoredRun, bool) {
	if h.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "report storage is not configured")
		return nil, false
	}

	rawID := chi.URLParam(r, "id")
	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid verification id")
		return nil, false
	}

	run, err := h.reports.GetRun(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "verification not found")
		return nil, false
	}
	if err != nil {
		slog.Error("failed to load verification", "id", sanitizeForLog(rawID), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load verification")
		return nil, false
	}
	return run, true
}
