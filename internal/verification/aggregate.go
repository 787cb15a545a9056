package verification

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate assembles applicant results into a report. The first result with
// the applicant role becomes the report's applicant, every other result a
// co-applicant, in input order. The report status is the applicant's status,
// or error when no applicant is present.
func Aggregate(id uuid.UUID, generatedAt time.Time, results []ApplicantResult) *Report {
	report := &Report{
		ID:           id,
		Status:       StatusError,
		GeneratedAt:  generatedAt,
		CoApplicants: make([]ApplicantResult, 0, len(results)),
	}

	for i := range results {
		r := results[i]
		if report.Applicant == nil && r.Role == RoleApplicant {
			report.Applicant = &r
			report.Status = r.Status
			continue
		}
		report.CoApplicants = append(report.CoApplicants, r)
	}
	return report
}
