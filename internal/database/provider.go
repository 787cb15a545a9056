package database

import (
	"context"
	"errors"
	"sync"
)

var (
	postgresReportWriter func() ReportWriter
	postgresInitialized  bool
	providerMu           sync.RWMutex
)

// RegisterPostgresBackend registers the PostgreSQL repository constructor.
// This is called by the postgres package to avoid import cycles.
func RegisterPostgresBackend(writer func() ReportWriter) {
	providerMu.Lock()
	defer providerMu.Unlock()
	postgresReportWriter = writer
	postgresInitialized = writer != nil
}

// IsInitialized returns whether the PostgreSQL backend has been initialized.
func IsInitialized() bool {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return postgresInitialized
}

// GetReportWriter returns a ReportWriter from the PostgreSQL backend
func GetReportWriter(ctx context.Context) (ReportWriter, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if !postgresInitialized {
		return nil, errors.New("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	return postgresReportWriter(), nil
}
