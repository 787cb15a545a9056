package document

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-verifier/internal/imaging"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// rasterizePDF renders every page of the PDF to PNG with pdftoppm and decodes
// the pages in page order.
func (e *Extractor) rasterizePDF(ctx context.Context, path string) ([]verification.RawImage, error) {
	dir, err := os.MkdirTemp(e.cfg.TempDir, "pdfpages-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	out, err := e.runner.Run(ctx, e.cfg.PDFToPPM, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages for %s", filepath.Base(path))
	}
	slices.SortFunc(pages, func(a, b string) int {
		return pageNumber(a) - pageNumber(b)
	})

	images := make([]verification.RawImage, 0, len(pages))
	for i, page := range pages {
		img, _, err := imaging.DecodeFile(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		images = append(images, verification.RawImage{Image: img, Source: path, Index: i})
	}
	return images, nil
}

// pageNumber parses N from "<prefix>-N.png"; pdftoppm zero-pads N.
func pageNumber(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), ".png")
	i := strings.LastIndex(base, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return 0
	}
	return n
}
