package verification

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kozaktomas/face-verifier/internal/facematch"
)

// ParseRole maps an input label such as "Applicant", "co_applicant_2" or
// "CoApplicant1" to its role.
func ParseRole(label string) (Role, error) {
	n := strings.ReplaceAll(facematch.NormalizeLabel(label), " ", "")
	n = strings.TrimRightFunc(n, unicode.IsDigit)

	switch {
	case n == "applicant":
		return RoleApplicant, nil
	case strings.HasPrefix(n, "co") && strings.Contains(n, "applicant"):
		return RoleCoApplicant, nil
	default:
		return "", fmt.Errorf("unknown applicant role %q", label)
	}
}
