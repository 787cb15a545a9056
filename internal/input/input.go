// Package input reads verification requests from JSON documents and from
// folder trees and turns them into applicants.
package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-verifier/internal/facematch"
	"github.com/kozaktomas/face-verifier/internal/storage"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

// ErrInvalidInput is returned when a request cannot be turned into applicants.
var ErrInvalidInput = errors.New("invalid input")

// Request is the JSON request body.
type Request struct {
	Applicants []ApplicantInput `json:"applicants"`
}

// ApplicantInput is one applicant in a request.
type ApplicantInput struct {
	Role                string          `json:"role"`
	PrimaryDocuments    []DocumentInput `json:"primary_documents"`
	ComparisonDocuments []DocumentInput `json:"comparison_documents"`
}

// DocumentInput is one document reference in a request.
type DocumentInput struct {
	FilePath         string `json:"file_path"`
	DocClass         string `json:"doc_class"`
	OriginalFilename string `json:"original_filename,omitempty"`
	MIMEType         string `json:"mime_type,omitempty"`
}

type matrixRequest struct {
	ComparisonMatrix []matrixRule      `json:"comparison_matrix"`
	Applicants       []matrixApplicant `json:"applicants"`
}

type matrixRule struct {
	Role        string   `json:"role"`
	Primary     string   `json:"primary"`
	CompareWith []string `json:"compare_with"`
}

type matrixApplicant struct {
	Key       string           `json:"key"`
	Documents []matrixDocument `json:"documents"`
}

type matrixDocument struct {
	DocumentClass    string `json:"document_class"`
	FilePath         string `json:"file_path"`
	OriginalFilename string `json:"original_filename"`
	MIMEType         string `json:"mime_type"`
}

// LoadJSON reads and parses a request file.
func LoadJSON(path string) ([]verification.Applicant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return ParseJSON(bytes.NewReader(data))
}

// ParseJSON parses a request in either the applicant list format or the
// comparison matrix format.
func ParseJSON(r io.Reader) ([]verification.Applicant, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var applicants []verification.Applicant
	if _, ok := probe["comparison_matrix"]; ok {
		var req matrixRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		applicants = req.applicants()
	} else {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		applicants, err = req.Applicants()
		if err != nil {
			return nil, err
		}
	}

	if err := Validate(applicants); err != nil {
		return nil, err
	}
	return applicants, nil
}

// Applicants converts the request into applicants.
func (r Request) Applicants() ([]verification.Applicant, error) {
	out := make([]verification.Applicant, 0, len(r.Applicants))
	for i, a := range r.Applicants {
		role, err := verification.ParseRole(a.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: applicants[%d]: %v", ErrInvalidInput, i, err)
		}
		out = append(out, verification.Applicant{
			Role:       role,
			Label:      a.Role,
			Primary:    convertDocuments(a.PrimaryDocuments, verification.RolePrimary),
			Comparison: convertDocuments(a.ComparisonDocuments, verification.RoleComparison),
		})
	}
	return out, nil
}

func convertDocuments(in []DocumentInput, role verification.DocumentRole) []verification.Document {
	out := make([]verification.Document, 0, len(in))
	for _, d := range in {
		out = append(out, newDocument(role, d.DocClass, d.FilePath, d.OriginalFilename, d.MIMEType))
	}
	return out
}

func newDocument(role verification.DocumentRole, class, path, filename, mimeType string) verification.Document {
	doc := verification.Document{
		Role:     role,
		Class:    class,
		Path:     path,
		Filename: filename,
		MIMEType: mimeType,
	}
	if storage.IsS3URL(path) {
		doc.SourceURL = path
	}
	return doc
}

func (r matrixRequest) applicants() []verification.Applicant {
	rules := make(map[string]matrixRule, len(r.ComparisonMatrix))
	for _, rule := range r.ComparisonMatrix {
		rules[labelKey(rule.Role)] = rule
	}

	var out []verification.Applicant
	for _, person := range r.Applicants {
		label := matrixLabel(person.Key)
		rule, ok := rules[labelKey(label)]
		if label == "" || !ok {
			slog.Warn("skipping applicant without comparison rule", "key", person.Key)
			continue
		}
		role, err := verification.ParseRole(label)
		if err != nil {
			slog.Warn("skipping applicant with unknown role", "key", person.Key, "error", err)
			continue
		}

		applicant := verification.Applicant{Role: role, Label: label}
		for _, d := range person.Documents {
			switch {
			case d.DocumentClass == rule.Primary:
				applicant.Primary = append(applicant.Primary,
					newDocument(verification.RolePrimary, d.DocumentClass, d.FilePath, d.OriginalFilename, d.MIMEType))
			case slices.Contains(rule.CompareWith, d.DocumentClass):
				applicant.Comparison = append(applicant.Comparison,
					newDocument(verification.RoleComparison, d.DocumentClass, d.FilePath, d.OriginalFilename, d.MIMEType))
			}
		}
		out = append(out, applicant)
	}
	return out
}

// matrixLabel maps a person key such as "applicant" or "co_applicant_1_name"
// to its matrix role label. It returns "" for keys it does not recognise.
func matrixLabel(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "applicant" {
		return "Applicant"
	}
	parts := strings.Split(key, "_")
	if len(parts) >= 3 && parts[0] == "co" && parts[1] == "applicant" {
		if _, err := strconv.Atoi(parts[2]); err == nil {
			return "CoApplicant" + parts[2]
		}
	}
	return ""
}

func labelKey(label string) string {
	return strings.ReplaceAll(facematch.NormalizeLabel(label), " ", "")
}

// Validate checks that there is exactly one applicant and that every
// document has a path.
func Validate(applicants []verification.Applicant) error {
	primary := 0
	for _, a := range applicants {
		if a.Role == verification.RoleApplicant {
			primary++
		}
		for _, docs := range [][]verification.Document{a.Primary, a.Comparison} {
			for _, d := range docs {
				if strings.TrimSpace(d.Path) == "" {
					return fmt.Errorf("%w: %s has a %s document without file_path", ErrInvalidInput, displayLabel(a), d.Role)
				}
			}
		}
	}
	if primary != 1 {
		return fmt.Errorf("%w: expected exactly one applicant, got %d", ErrInvalidInput, primary)
	}
	return nil
}

func displayLabel(a verification.Applicant) string {
	if a.Label != "" {
		return a.Label
	}
	return string(a.Role)
}
