package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-verifier/internal/database"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

// ReportRepository stores verification runs and their faces.
type ReportRepository struct {
	pool *Pool
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(pool *Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

var _ database.ReportWriter = (*ReportRepository)(nil)

// SaveReport stores the report and replaces any faces previously stored for it.
func (r *ReportRepository) SaveReport(ctx context.Context, report *verification.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verification_runs (id, status, generated_at, report)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			generated_at = EXCLUDED.generated_at,
			report = EXCLUDED.report
	`, report.ID, string(report.Status), report.GeneratedAt, payload)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", report.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM verification_faces WHERE run_id = $1", report.ID); err != nil {
		return fmt.Errorf("delete faces of run %s: %w", report.ID, err)
	}

	if err := insertFaces(ctx, tx, database.FacesFromReport(report)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertFaces(ctx context.Context, tx *sql.Tx, faces []database.StoredFace) error {
	for i := range faces {
		face := &faces[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO verification_faces (run_id, applicant_role, applicant_label, document_role, document,
			                                image_index, angle, confidence, bbox, embedding, dim)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::vector, $11)
		`,
			face.RunID,
			string(face.ApplicantRole),
			face.ApplicantLabel,
			string(face.DocumentRole),
			face.Document,
			face.ImageIndex,
			face.Angle,
			face.Confidence,
			pq.Array(face.BBox),
			pgvector.NewVector(face.Embedding),
			face.Dim,
		)
		if err != nil {
			return fmt.Errorf("insert face %d of %s: %w", i, face.Document, err)
		}
	}
	return nil
}

// GetRun retrieves a run by ID.
func (r *ReportRepository) GetRun(ctx context.Context, id uuid.UUID) (*database.StoredRun, error) {
	var run database.StoredRun
	var status string
	var payload []byte

	err := r.pool.QueryRow(ctx, `
		SELECT id, status, generated_at, report, created_at
		FROM verification_runs
		WHERE id = $1
	`, id).Scan(&run.ID, &status, &run.GeneratedAt, &payload, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}

	run.Status = verification.Status(status)
	run.Report = &verification.Report{}
	if err := json.Unmarshal(payload, run.Report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &run, nil
}

// GetFaces retrieves every face stored for a run in insertion order.
func (r *ReportRepository) GetFaces(ctx context.Context, runID uuid.UUID) ([]database.StoredFace, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, run_id, applicant_role, applicant_label, document_role, document,
		       image_index, angle, confidence, bbox, embedding, dim, created_at
		FROM verification_faces
		WHERE run_id = $1
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faces []database.StoredFace
	for rows.Next() {
		var f database.StoredFace
		var applicantRole, documentRole string
		var vec pgvector.Vector
		if err := rows.Scan(
			&f.ID,
			&f.RunID,
			&applicantRole,
			&f.ApplicantLabel,
			&documentRole,
			&f.Document,
			&f.ImageIndex,
			&f.Angle,
			&f.Confidence,
			pq.Array(&f.BBox),
			&vec,
			&f.Dim,
			&f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		f.ApplicantRole = verification.Role(applicantRole)
		f.DocumentRole = verification.DocumentRole(documentRole)
		f.Embedding = vec.Slice()
		faces = append(faces, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}
	return faces, nil
}

// Count returns the number of stored runs.
func (r *ReportRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM verification_runs").Scan(&count); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}
