package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/face-verifier/internal/database"
	"github.com/kozaktomas/face-verifier/internal/facematch"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

func TestMockReportRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMockReportRepository()

	report := &verification.Report{
		ID:     uuid.New(),
		Status: verification.StatusSuccess,
		Applicant: &verification.ApplicantResult{
			Role:   verification.RoleApplicant,
			Status: verification.StatusSuccess,
			Faces: []verification.EmbeddedFace{
				{Embedding: facematch.Embedding{1, 0}, DocumentRole: verification.RolePrimary, Document: "id.jpg"},
				{Embedding: facematch.Embedding{0, 1}, DocumentRole: verification.RoleComparison, Document: "selfie.jpg"},
			},
		},
		CoApplicants: []verification.ApplicantResult{},
	}
	require.NoError(t, repo.SaveReport(ctx, report))

	run, err := repo.GetRun(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusSuccess, run.Status)
	assert.Equal(t, verification.RoleApplicant, run.Report.Applicant.Role)
	assert.Empty(t, run.Report.Applicant.Faces, "faces are not part of the serialized report")

	faces, err := repo.GetFaces(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, faces, 2)
	assert.Equal(t, int64(1), faces[0].ID)
	assert.Equal(t, int64(2), faces[1].ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = repo.GetRun(ctx, uuid.New())
	assert.ErrorIs(t, err, database.ErrNotFound)

	repo.SaveError = errors.New("disk full")
	assert.Error(t, repo.SaveReport(ctx, report))
}
