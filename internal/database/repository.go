package database

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-verifier/internal/verification"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("verification run not found")

// ReportReader provides read-only access to stored verification runs
type ReportReader interface {
	// GetRun retrieves a run by ID, returns ErrNotFound if it does not exist
	GetRun(ctx context.Context, id uuid.UUID) (*StoredRun, error)
	// GetFaces retrieves every face stored for a run
	GetFaces(ctx context.Context, runID uuid.UUID) ([]StoredFace, error)
	// Count returns the number of stored runs
	Count(ctx context.Context) (int, error)
}

// ReportWriter provides write access to verification runs
type ReportWriter interface {
	ReportReader

	// SaveReport stores the report and its embedded faces in one transaction.
	// Saving a report with an existing ID replaces it.
	SaveReport(ctx context.Context, report *verification.Report) error
}
