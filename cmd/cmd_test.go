package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/face-verifier/internal/config"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

func TestVerificationConfig(t *testing.T) {
	cfg := config.Defaults()
	vc := verificationConfig(cfg)

	require.NoError(t, vc.Validate())
	assert.InDelta(t, 0.5, vc.Filter.MinConfidence, 0)
	assert.InDelta(t, 30, vc.Filter.MinSize, 0)
	assert.InDelta(t, 0.60, vc.MatchThreshold, 0)
	assert.Equal(t, []int{0, 90, 180, 270}, vc.Angles())
	assert.Equal(t, 4, vc.Concurrency)
}

func TestApplyVerifyFlags(t *testing.T) {
	cfg := config.Defaults()
	c := &cobra.Command{Use: "verify"}
	c.Flags().String("dataset-dir", "", "")
	c.Flags().Int("concurrency", 0, "")
	c.Flags().Bool("no-rotation", false, "")
	c.Flags().Float64("match-threshold", 0, "")
	c.Flags().Float64("min-confidence", 0, "")
	c.Flags().Int("min-face-size", 0, "")
	require.NoError(t, c.Flags().Parse([]string{
		"--dataset-dir", "/tmp/ds", "--no-rotation", "--match-threshold", "0.4", "--min-face-size", "48",
	}))

	applyVerifyFlags(c, cfg)

	assert.Equal(t, "/tmp/ds", cfg.Extraction.DatasetDir)
	assert.False(t, cfg.Verification.EnableRotation)
	assert.InDelta(t, 0.4, cfg.Verification.MatchThreshold, 0)
	assert.Equal(t, 48, cfg.Verification.MinFaceSize)
	assert.Equal(t, 4, cfg.Verification.Concurrency, "unset flags keep the configured value")
	assert.InDelta(t, 0.5, cfg.Verification.MinFaceConfidence, 0)
}

func TestResolveServeHostPort(t *testing.T) {
	cfg := config.Defaults()

	c := &cobra.Command{Use: "serve"}
	c.Flags().Int("port", 0, "")
	c.Flags().String("host", "", "")
	require.NoError(t, c.Flags().Parse(nil))
	port, host := resolveServeHostPort(c, cfg)
	assert.Equal(t, 8085, port)
	assert.Equal(t, "0.0.0.0", host)

	require.NoError(t, c.Flags().Parse([]string{"--port", "9000"}))
	port, _ = resolveServeHostPort(c, cfg)
	assert.Equal(t, 9000, port)
}

func TestLoadApplicants(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "request.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"applicants":[
		{"role":"applicant","primary_documents":[{"file_path":"id.jpg","doc_class":"id"}],
		 "comparison_documents":[{"file_path":"a.jpg","doc_class":"selfie"},{"file_path":"b.jpg","doc_class":"selfie"}]}]}`), 0o644))

	applicants, err := loadApplicants("json", path)
	require.NoError(t, err)
	assert.Equal(t, 3, countDocuments(applicants))

	_, err = loadApplicants("csv", path)
	assert.ErrorContains(t, err, "invalid --mode")
}

func TestPrintSummary(t *testing.T) {
	d, c := 0.12, 0.88
	report := &verification.Report{
		Status: verification.StatusSuccess,
		Applicant: &verification.ApplicantResult{
			Role:   verification.RoleApplicant,
			Status: verification.StatusSuccess,
			Comparisons: []verification.MatchResult{
				{Filename: "selfie.jpg", IsMatch: true, Distance: &d, Confidence: &c},
				{Filename: "blank.pdf", Details: verification.DetailsNoFace},
			},
		},
	}
	assert.NotPanics(t, func() { printSummary(report) })
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.True(t, strings.HasPrefix(out.String(), "face-verifier dev"))
}
