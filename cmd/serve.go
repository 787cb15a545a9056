package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-verifier/internal/config"
	"github.com/kozaktomas/face-verifier/internal/database"
	"github.com/kozaktomas/face-verifier/internal/database/postgres"
	"github.com/kozaktomas/face-verifier/internal/metrics"
	"github.com/kozaktomas/face-verifier/internal/verification"
	"github.com/kozaktomas/face-verifier/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification API server",
	Long: `Start the face verification HTTP API.

POST /api/v1/verifications runs a verification for the applicants in the
request body. When DATABASE_URL is set, reports are stored and can be fetched
again with GET /api/v1/verifications/{id}. Prometheus metrics are served on
/metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT or 8085)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST or 0.0.0.0)")
}

// resolveServeHostPort returns the listen address, flags taking precedence
// over the environment.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) (int, string) {
	port, host := cfg.Web.Port, cfg.Web.Host
	if cmd.Flags().Changed("port") {
		port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		host = mustGetString(cmd, "host")
	}
	return port, host
}

// openReportStore connects to PostgreSQL when configured. It returns a nil
// writer and a no-op closer when persistence is disabled.
func openReportStore(ctx context.Context, cfg *config.Config) (database.ReportWriter, func(), error) {
	if cfg.Database.URL == "" {
		slog.Info("DATABASE_URL not set, reports will not be stored")
		return nil, func() {}, nil
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	reports, err := database.GetReportWriter(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	fmt.Printf("Report storage enabled (PostgreSQL)\n")
	return reports, func() { pool.Close() }, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	reports, closeStore, err := openReportStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New()
	p, err := buildPipeline(ctx, cfg, verification.WithRecorder(m))
	if err != nil {
		return err
	}

	port, host := resolveServeHostPort(cmd, cfg)
	server := web.NewServer(cfg, port, host, web.Dependencies{
		Verifier:    p.verifier,
		Reports:     reports,
		FaceService: p.faceAPI,
		Metrics:     m,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting face verification API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
