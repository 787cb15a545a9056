// Package verification runs the face verification pipeline: it extracts
// faces from each applicant's documents, matches comparison faces against
// the primary face pool and aggregates the outcome into a report.
package verification

import (
	"image"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-verifier/internal/facematch"
)

// DocumentRole says how a document takes part in verification.
type DocumentRole string

const (
	RolePrimary    DocumentRole = "primary"
	RoleComparison DocumentRole = "comparison"
)

// Role is an applicant's role in the application.
type Role string

const (
	RoleApplicant   Role = "applicant"
	RoleCoApplicant Role = "co_applicant"
)

// Status is the terminal state of one applicant's verification.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusNoPrimaryFace Status = "no_primary_face"
	StatusError         Status = "error"
)

// Details attached to comparison results.
const (
	DetailsComplete      = "comparison complete"
	DetailsNoFace        = "no face detected"
	DetailsNoPrimaryFace = "no primary face available for comparison"
	detailsErrorPrefix   = "error processing document: "
)

// RawImage is one decoded raster image taken out of a document.
type RawImage struct {
	Image  image.Image
	Source string // path of the document the image came from
	Index  int    // position within the document (page, embedded picture)
}

// Size returns the image width and height.
func (r RawImage) Size() (int, int) {
	b := r.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Document is one file submitted for verification.
type Document struct {
	Role      DocumentRole
	Class     string // free-form, e.g. "id", "selfie", "aadhaar"
	Path      string // local path or s3:// URL
	Filename  string // original filename, optional
	MIMEType  string // declared type, optional
	SourceURL string // where the document was fetched from, optional
}

// DisplayName is the name the document is reported under.
func (d Document) DisplayName() string {
	if d.Filename != "" {
		return d.Filename
	}
	return filepath.Base(d.Path)
}

// Applicant is a person whose documents are verified together.
type Applicant struct {
	Role       Role
	Label      string // label used in the input, e.g. "CoApplicant1"
	Primary    []Document
	Comparison []Document
}

// EmbeddedFace is a qualified face with its embedding and origin.
type EmbeddedFace struct {
	facematch.QualifiedFace
	Embedding    facematch.Embedding
	DocumentRole DocumentRole
	Document     string // display name of the source document
	ImageIndex   int
}

// MatchResult is the outcome for one comparison document.
type MatchResult struct {
	DocumentClass string   `json:"document_class"`
	Filename      string   `json:"filename"`
	FacesFound    int      `json:"faces_found"`
	IsMatch       bool     `json:"is_match"`
	Confidence    *float64 `json:"confidence,omitempty"`
	Distance      *float64 `json:"distance,omitempty"`
	RotationAngle int      `json:"rotation_angle"`
	Details       string   `json:"details"`
}

// ApplicantResult is the outcome of one applicant's verification.
type ApplicantResult struct {
	Role                 Role          `json:"role"`
	Label                string        `json:"label,omitempty"`
	Status               Status        `json:"status"`
	Error                string        `json:"error,omitempty"`
	PrimaryFacesDetected int           `json:"primary_faces_detected"`
	Comparisons          []MatchResult `json:"comparisons"`

	// Faces holds every embedded face, primary and comparison, for persistence.
	Faces []EmbeddedFace `json:"-"`
}

// Report is the final verification output.
type Report struct {
	ID           uuid.UUID         `json:"id"`
	Status       Status            `json:"status"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Applicant    *ApplicantResult  `json:"applicant"`
	CoApplicants []ApplicantResult `json:"co_applicants"`
}

// Results returns the applicant followed by every co-applicant.
func (r *Report) Results() []ApplicantResult {
	out := make([]ApplicantResult, 0, len(r.CoApplicants)+1)
	if r.Applicant != nil {
		out = append(out, *r.Applicant)
	}
	return append(out, r.CoApplicants...)
}
