package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-verifier/internal/verification"
)

// StoredRun is a verification run stored in the database
type StoredRun struct {
	ID          uuid.UUID
	Status      verification.Status
	GeneratedAt time.Time
	Report      *verification.Report
	CreatedAt   time.Time
}

// StoredFace is one embedded face kept for audit and re-matching
type StoredFace struct {
	ID             int64
	RunID          uuid.UUID
	ApplicantRole  verification.Role
	ApplicantLabel string
	DocumentRole   verification.DocumentRole
	Document       string
	ImageIndex     int
	Angle          int
	Confidence     float64
	BBox           []float64 // [x1, y1, x2, y2] in pixels of the rotated image
	Embedding      []float32
	Dim            int
	CreatedAt      time.Time
}

// FacesFromReport flattens every embedded face of a report into rows.
func FacesFromReport(report *verification.Report) []StoredFace {
	var faces []StoredFace
	for _, result := range report.Results() {
		for _, f := range result.Faces {
			faces = append(faces, StoredFace{
				RunID:          report.ID,
				ApplicantRole:  result.Role,
				ApplicantLabel: result.Label,
				DocumentRole:   f.DocumentRole,
				Document:       f.Document,
				ImageIndex:     f.ImageIndex,
				Angle:          f.Angle,
				Confidence:     f.Confidence,
				BBox:           f.Box.Corners(),
				Embedding:      f.Embedding,
				Dim:            len(f.Embedding),
			})
		}
	}
	return faces
}
