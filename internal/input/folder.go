package input

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/kozaktomas/face-verifier/internal/verification"
)

// Folder layout: <root>/<role>/primary/* and <root>/<role>/compare_with/*.
const (
	primaryDir     = "primary"
	compareWithDir = "compare_with"
)

// LoadFolder builds applicants from a folder tree. Role directories are
// visited in name order and directories with an unrecognised name are skipped.
func LoadFolder(root string) ([]verification.Applicant, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: reading input folder: %v", ErrInvalidInput, err)
	}

	var applicants []verification.Applicant
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		role, err := verification.ParseRole(name)
		if err != nil {
			slog.Warn("skipping folder with unknown role", "dir", name)
			continue
		}

		rolePath := filepath.Join(root, name)
		primary, err := folderDocuments(filepath.Join(rolePath, primaryDir), verification.RolePrimary, primaryDir)
		if err != nil {
			return nil, err
		}
		comparison, err := folderDocuments(filepath.Join(rolePath, compareWithDir), verification.RoleComparison, compareWithDir)
		if err != nil {
			return nil, err
		}

		applicants = append(applicants, verification.Applicant{
			Role:       role,
			Label:      name,
			Primary:    primary,
			Comparison: comparison,
		})
	}

	if err := Validate(applicants); err != nil {
		return nil, err
	}
	return applicants, nil
}

// folderDocuments lists regular files in dir sorted by name. A missing
// directory yields no documents.
func folderDocuments(dir string, role verification.DocumentRole, class string) ([]verification.Document, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]verification.Document, 0, len(names))
	for _, name := range names {
		docs = append(docs, verification.Document{
			Role:     role,
			Class:    class,
			Path:     filepath.Join(dir, name),
			Filename: name,
		})
	}
	return docs, nil
}
