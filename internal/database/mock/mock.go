// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-verifier/internal/database"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

// MockReportRepository is an in-memory implementation of database.ReportWriter
type MockReportRepository struct {
	mu     sync.RWMutex
	runs   map[uuid.UUID]*database.StoredRun
	faces  map[uuid.UUID][]database.StoredFace
	nextID int64

	// Error injection
	SaveError     error
	GetRunError   error
	GetFacesError error
	CountError    error
}

var _ database.ReportWriter = (*MockReportRepository)(nil)

// NewMockReportRepository creates a new empty mock repository
func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{
		runs:  make(map[uuid.UUID]*database.StoredRun),
		faces: make(map[uuid.UUID][]database.StoredFace),
	}
}

// SaveReport stores a deep copy of the report and its faces
func (m *MockReportRepository) SaveReport(ctx context.Context, report *verification.Report) error {
	if m.SaveError != nil {
		return m.SaveError
	}

	// Round-trip through JSON so the stored copy matches what a database returns.
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	var stored verification.Report
	if err := json.Unmarshal(payload, &stored); err != nil {
		return fmt.Errorf("unmarshal report: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs[report.ID] = &database.StoredRun{
		ID:          report.ID,
		Status:      report.Status,
		GeneratedAt: report.GeneratedAt,
		Report:      &stored,
		CreatedAt:   time.Now(),
	}

	faces := database.FacesFromReport(report)
	for i := range faces {
		m.nextID++
		faces[i].ID = m.nextID
	}
	m.faces[report.ID] = faces
	return nil
}

// GetRun retrieves a run by ID
func (m *MockReportRepository) GetRun(ctx context.Context, id uuid.UUID) (*database.StoredRun, error) {
	if m.GetRunError != nil {
		return nil, m.GetRunError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return run, nil
}

// GetFaces retrieves the faces stored for a run
func (m *MockReportRepository) GetFaces(ctx context.Context, runID uuid.UUID) ([]database.StoredFace, error) {
	if m.GetFacesError != nil {
		return nil, m.GetFacesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]database.StoredFace(nil), m.faces[runID]...), nil
}

// Count returns the number of stored runs
func (m *MockReportRepository) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs), nil
}
