package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-verifier/internal/config"
	"github.com/kozaktomas/face-verifier/internal/database"
	"github.com/kozaktomas/face-verifier/internal/database/postgres"
	"github.com/kozaktomas/face-verifier/internal/input"
	"github.com/kozaktomas/face-verifier/internal/storage"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify applicant faces across their documents",
	Long: `Verify that the faces on each applicant's comparison documents belong to
the same person as the face on their primary identity documents.

Input is either a JSON request (--mode json) or a folder laid out as
<root>/<role>/primary/* and <root>/<role>/compare_with/* (--mode folder).
Documents may be local paths or s3:// URLs; S3 objects are downloaded into
the dataset directory first.

Examples:
  face-verifier verify --input request.json
  face-verifier verify --mode folder --input ./cases/42 --output report.json
  face-verifier verify --input request.json --upload s3://reports/42.json --save`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("mode", "json", "Input mode: json or folder")
	verifyCmd.Flags().String("input", "", "Path to the input JSON file or folder")
	verifyCmd.Flags().String("output", "output.json", "Where to write the JSON report")
	verifyCmd.Flags().String("upload", "", "Also upload the report to this s3:// URL")
	verifyCmd.Flags().String("dataset-dir", "", "Directory for downloaded S3 documents (overrides DATASET_DIR)")
	verifyCmd.Flags().Int("concurrency", 0, "Applicants and documents processed at once (overrides VERIFY_CONCURRENCY)")
	verifyCmd.Flags().Bool("no-rotation", false, "Only look for faces in the upright image")
	verifyCmd.Flags().Float64("match-threshold", 0, "Maximum cosine distance for a match (overrides FACE_MATCH_THRESHOLD)")
	verifyCmd.Flags().Float64("min-confidence", 0, "Minimum detector confidence (overrides FACE_MIN_CONFIDENCE)")
	verifyCmd.Flags().Int("min-face-size", 0, "Minimum face size in pixels (overrides FACE_MIN_SIZE)")
	verifyCmd.Flags().Bool("save", false, "Store the report in PostgreSQL (requires DATABASE_URL)")

	_ = verifyCmd.MarkFlagRequired("input")
}

// applyVerifyFlags overrides configuration with the flags the user set.
func applyVerifyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("dataset-dir") {
		cfg.Extraction.DatasetDir = mustGetString(cmd, "dataset-dir")
	}
	if flags.Changed("concurrency") {
		cfg.Verification.Concurrency = mustGetInt(cmd, "concurrency")
	}
	if mustGetBool(cmd, "no-rotation") {
		cfg.Verification.EnableRotation = false
	}
	if flags.Changed("match-threshold") {
		cfg.Verification.MatchThreshold = mustGetFloat64(cmd, "match-threshold")
	}
	if flags.Changed("min-confidence") {
		cfg.Verification.MinFaceConfidence = mustGetFloat64(cmd, "min-confidence")
	}
	if flags.Changed("min-face-size") {
		cfg.Verification.MinFaceSize = mustGetInt(cmd, "min-face-size")
	}
}

func loadApplicants(mode, path string) ([]verification.Applicant, error) {
	switch mode {
	case "json":
		return input.LoadJSON(path)
	case "folder":
		return input.LoadFolder(path)
	default:
		return nil, fmt.Errorf("invalid --mode %q: expected json or folder", mode)
	}
}

func countDocuments(applicants []verification.Applicant) int {
	n := 0
	for _, a := range applicants {
		n += len(a.Primary) + len(a.Comparison)
	}
	return n
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	applyVerifyFlags(cmd, cfg)

	applicants, err := loadApplicants(mustGetString(cmd, "mode"), mustGetString(cmd, "input"))
	if err != nil {
		return err
	}

	uploadURL := mustGetString(cmd, "upload")
	if uploadURL != "" {
		if _, _, err := storage.ParseS3URL(uploadURL); err != nil {
			return fmt.Errorf("invalid --upload: %w", err)
		}
	}

	total := countDocuments(applicants)
	fmt.Printf("Verifying %d applicant(s) with %d document(s)\n", len(applicants), total)

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Processing documents"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	p, err := buildPipeline(ctx, cfg, verification.WithProgress(func(verification.Role, verification.Document) {
		_ = bar.Add(1)
	}))
	if err != nil {
		return err
	}

	report := p.verifier.Run(ctx, applicants)
	_ = bar.Finish()
	fmt.Println()

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	output := mustGetString(cmd, "output")
	if err := os.WriteFile(output, payload, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	printSummary(report)
	fmt.Printf("\nReport written to %s\n", output)

	if uploadURL != "" {
		if err := uploadReport(ctx, p.objects, uploadURL, payload); err != nil {
			return err
		}
		fmt.Printf("Report uploaded to %s\n", uploadURL)
	}

	if mustGetBool(cmd, "save") {
		if err := saveReport(ctx, cfg, report); err != nil {
			return err
		}
		fmt.Printf("Report stored as %s\n", report.ID)
	}
	return nil
}

func printSummary(report *verification.Report) {
	fmt.Printf("\nOverall status: %s\n", report.Status)
	for _, res := range report.Results() {
		name := res.Label
		if name == "" {
			name = string(res.Role)
		}
		fmt.Printf("\n%s: %s (%d primary face(s))\n", name, res.Status, res.PrimaryFacesDetected)
		if res.Error != "" {
			fmt.Printf("  Error: %s\n", res.Error)
		}
		for _, c := range res.Comparisons {
			verdict := "NO MATCH"
			if c.IsMatch {
				verdict = "MATCH"
			}
			if c.Distance != nil {
				fmt.Printf("  %-30s %-8s distance=%.4f confidence=%.2f rotation=%d\n",
					c.Filename, verdict, *c.Distance, *c.Confidence, c.RotationAngle)
			} else {
				fmt.Printf("  %-30s %-8s %s\n", c.Filename, verdict, c.Details)
			}
		}
	}
}

func uploadReport(ctx context.Context, objects storage.ObjectStorage, url string, payload []byte) error {
	if objects == nil {
		return errors.New("cannot upload report: S3 storage is not configured")
	}
	bucket, key, err := storage.ParseS3URL(url)
	if err != nil {
		return fmt.Errorf("invalid --upload: %w", err)
	}
	if _, err := objects.Upload(ctx, storage.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        bytes.NewReader(payload),
		ContentType: "application/json",
	}); err != nil {
		return fmt.Errorf("uploading report: %w", err)
	}
	return nil
}

func saveReport(ctx context.Context, cfg *config.Config, report *verification.Report) error {
	if cfg.Database.URL == "" {
		return errors.New("--save requires DATABASE_URL")
	}

	pool, err := postgres.Initialize(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	reports, err := database.GetReportWriter(ctx)
	if err != nil {
		return err
	}
	if err := reports.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("storing report: %w", err)
	}
	return nil
}
