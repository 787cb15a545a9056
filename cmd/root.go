package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-verifier/internal/config"
	"github.com/kozaktomas/face-verifier/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "face-verifier",
	Short: "Verify applicant identity by matching faces across documents",
	Long: `Face Verifier checks that the person on an applicant's identity documents
is the same person who appears on their other documents (selfies, application
forms, scanned PDFs and spreadsheets).

Faces are detected and embedded by an external face service; documents can
be local files or objects in S3.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	level := logLevel
	if level == "" {
		level = config.Load().Log.Level
	}
	logging.InitLogger(level)
}
