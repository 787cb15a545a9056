package document

import (
	"cmp"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kozaktomas/face-verifier/internal/imaging"
	"github.com/kozaktomas/face-verifier/internal/verification"
)

// Vector formats excelize can embed but no decoder here can rasterize.
var skippedPictureExtensions = []string{".emf", ".wmf", ".svg"}

const mediaPrefix = "xl/media/"

// extractSpreadsheetImages returns the pictures embedded in an XLSX/XLSM
// workbook, sheet by sheet, row-major within a sheet. Workbooks whose media
// is not anchored to any cell fall back to the raw xl/media parts.
func extractSpreadsheetImages(path string) ([]verification.RawImage, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var images []verification.RawImage
	anchored := 0
	for _, sheet := range f.GetSheetList() {
		cells, err := f.GetPictureCells(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		slices.SortFunc(cells, compareCells)

		for _, cell := range cells {
			pictures, err := f.GetPictures(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("sheet %s cell %s: %w", sheet, cell, err)
			}
			anchored += len(pictures)
			for _, pic := range pictures {
				ext := strings.ToLower(pic.Extension)
				if slices.Contains(skippedPictureExtensions, ext) {
					slog.Debug("skipping vector picture", "sheet", sheet, "cell", cell, "extension", ext)
					continue
				}
				img, _, err := imaging.Decode(pic.File)
				if err != nil {
					slog.Warn("skipping undecodable picture", "sheet", sheet, "cell", cell, "error", err)
					continue
				}
				images = append(images, verification.RawImage{Image: img, Source: path, Index: len(images)})
			}
		}
	}
	if anchored == 0 {
		images = extractMediaParts(f, path)
	}
	return images, nil
}

// extractMediaParts decodes every xl/media part of the workbook in name
// order (image1, image2, ..., image10).
func extractMediaParts(f *excelize.File, source string) []verification.RawImage {
	var names []string
	f.Pkg.Range(func(k, _ any) bool {
		if name, ok := k.(string); ok && strings.HasPrefix(name, mediaPrefix) {
			names = append(names, name)
		}
		return true
	})
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(a), len(b)), strings.Compare(a, b))
	})

	var images []verification.RawImage
	for _, name := range names {
		ext := strings.ToLower(path.Ext(name))
		if slices.Contains(skippedPictureExtensions, ext) {
			slog.Debug("skipping vector media", "part", name)
			continue
		}
		v, _ := f.Pkg.Load(name)
		data, ok := v.([]byte)
		if !ok || len(data) == 0 {
			continue
		}
		img, _, err := imaging.Decode(data)
		if err != nil {
			slog.Warn("skipping undecodable media", "part", name, "error", err)
			continue
		}
		images = append(images, verification.RawImage{Image: img, Source: source, Index: len(images)})
	}
	if len(images) > 0 {
		slog.Debug("read unanchored workbook media", "path", source, "images", len(images))
	}
	return images
}

func compareCells(a, b string) int {
	ac, ar, errA := excelize.CellNameToCoordinates(a)
	bc, br, errB := excelize.CellNameToCoordinates(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return cmp.Or(cmp.Compare(ar, br), cmp.Compare(ac, bc))
}
