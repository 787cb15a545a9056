// Package document turns submitted document files (images, PDFs, spreadsheets)
// into the raster images the verification pipeline inspects.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kozaktomas/face-verifier/internal/imaging"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

// ErrUnsupportedDocument is returned for document types that cannot be read.
var ErrUnsupportedDocument = errors.New("unsupported document type")

const (
	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeXLSM = "application/vnd.ms-excel.sheet.macroenabled.12"
	mimeZip  = "application/zip"

	defaultDPI      = 300
	defaultPDFToPPM = "pdftoppm"
)

type kind int

const (
	kindUnsupported kind = iota
	kindImage
	kindPDF
	kindSpreadsheet
)

// Localizer resolves a document reference (for example an s3:// URL) to a
// local file path.
type Localizer interface {
	Localize(ctx context.Context, path string) (string, error)
}

// Config configures an Extractor.
type Config struct {
	PDFToPPM string // pdftoppm binary
	DPI      int    // PDF rasterization resolution
	TempDir  string // where rasterized pages are written, "" for the OS default
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithRunner replaces the command runner used for PDF rasterization.
func WithRunner(r CommandRunner) Option {
	return func(e *Extractor) { e.runner = r }
}

// WithLocalizer resolves non-local document paths before extraction.
func WithLocalizer(l Localizer) Option {
	return func(e *Extractor) { e.localizer = l }
}

// Extractor implements verification.DocumentExtractor.
type Extractor struct {
	cfg       Config
	runner    CommandRunner
	localizer Localizer
}

// NewExtractor creates an extractor.
func NewExtractor(cfg Config, opts ...Option) *Extractor {
	if cfg.PDFToPPM == "" {
		cfg.PDFToPPM = defaultPDFToPPM
	}
	if cfg.DPI <= 0 {
		cfg.DPI = defaultDPI
	}
	e := &Extractor{cfg: cfg, runner: execRunner{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the images of the document at path, in document order.
// declaredMIME is trusted when set; otherwise the type is sniffed from the file.
func (e *Extractor) Extract(ctx context.Context, path, declaredMIME string) ([]verification.RawImage, error) {
	if e.localizer != nil {
		local, err := e.localizer.Localize(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("fetching document: %w", err)
		}
		path = local
	}

	mime, err := resolveMIME(path, declaredMIME)
	if err != nil {
		return nil, err
	}

	switch classify(path, mime) {
	case kindImage:
		img, format, err := imaging.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		slog.Debug("decoded image document", "path", path, "format", format)
		return []verification.RawImage{{Image: img, Source: path}}, nil
	case kindPDF:
		return e.rasterizePDF(ctx, path)
	case kindSpreadsheet:
		return extractSpreadsheetImages(path)
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedDocument, filepath.Base(path), mime)
	}
}

func resolveMIME(path, declared string) (string, error) {
	declared, _, _ = strings.Cut(strings.ToLower(strings.TrimSpace(declared)), ";")
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect document type: %w", err)
	}
	mime, _, _ := strings.Cut(strings.ToLower(m.String()), ";")
	return mime, nil
}

func classify(path, mime string) kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case strings.HasPrefix(mime, "image/"):
		return kindImage
	case mime == mimePDF:
		return kindPDF
	case mime == mimeXLSX || mime == mimeXLSM:
		return kindSpreadsheet
	case mime == mimeZip && (ext == ".xlsx" || ext == ".xlsm"):
		return kindSpreadsheet
	default:
		return kindUnsupported
	}
}
