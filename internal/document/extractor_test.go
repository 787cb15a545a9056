package document

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// pageRunner imitates pdftoppm by writing one PNG per configured page width.
type pageRunner struct {
	pages map[string]int // file suffix -> image width
	out   []byte
	err   error
	args  []string
}

func (r *pageRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.args = append([]string{name}, args...)
	if r.err != nil {
		return r.out, r.err
	}
	prefix := args[len(args)-1]
	for suffix, w := range r.pages {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, 10))); err != nil {
			return nil, err
		}
		if err := os.WriteFile(prefix+"-"+suffix+".png", buf.Bytes(), 0o600); err != nil {
			return nil, err
		}
	}
	return r.out, nil
}

type mapLocalizer map[string]string

func (m mapLocalizer) Localize(_ context.Context, path string) (string, error) {
	local, ok := m[path]
	if !ok {
		return "", errors.New("object not found")
	}
	return local, nil
}

func TestExtractImage(t *testing.T) {
	path := writeFile(t, "selfie.png", pngBytes(t, 40, 30))
	e := NewExtractor(Config{})

	for _, declared := range []string{"", "image/png", "image/png; charset=binary", "application/octet-stream"} {
		t.Run(declared, func(t *testing.T) {
			images, err := e.Extract(context.Background(), path, declared)
			require.NoError(t, err)
			require.Len(t, images, 1)
			assert.Equal(t, path, images[0].Source)
			assert.Equal(t, 0, images[0].Index)
			w, h := images[0].Size()
			assert.Equal(t, 40, w)
			assert.Equal(t, 30, h)
		})
	}
}

func TestExtractPDF(t *testing.T) {
	path := writeFile(t, "scan.pdf", []byte("%PDF-1.4\n%fake\n"))
	runner := &pageRunner{pages: map[string]int{"2": 20, "10": 100, "1": 10}}
	e := NewExtractor(Config{DPI: 150, TempDir: t.TempDir()}, WithRunner(runner))

	images, err := e.Extract(context.Background(), path, "")
	require.NoError(t, err)
	require.Len(t, images, 3)

	for i, want := range []int{10, 20, 100} {
		w, _ := images[i].Size()
		assert.Equal(t, want, w, "page %d out of order", i)
		assert.Equal(t, i, images[i].Index)
	}
	assert.Equal(t, []string{"pdftoppm", "-r", "150", "-png", path}, runner.args[:5])
}

func TestExtractPDFErrors(t *testing.T) {
	path := writeFile(t, "scan.pdf", []byte("%PDF-1.4\n"))

	t.Run("runner fails", func(t *testing.T) {
		runner := &pageRunner{out: []byte("Syntax Error: broken xref"), err: errors.New("exit status 1")}
		_, err := NewExtractor(Config{}, WithRunner(runner)).Extract(context.Background(), path, "application/pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pdftoppm failed")
		assert.Contains(t, err.Error(), "broken xref")
	})

	t.Run("no pages", func(t *testing.T) {
		_, err := NewExtractor(Config{}, WithRunner(&pageRunner{})).Extract(context.Background(), path, "application/pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no pages")
	})
}

func TestExtractSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.AddPictureFromBytes("Sheet1", "B3", &excelize.Picture{
		Extension: ".png", File: pngBytes(t, 30, 30), Format: &excelize.GraphicOptions{},
	}))
	require.NoError(t, f.AddPictureFromBytes("Sheet1", "A1", &excelize.Picture{
		Extension: ".png", File: pngBytes(t, 10, 10), Format: &excelize.GraphicOptions{},
	}))
	_, err := f.NewSheet("Photos")
	require.NoError(t, err)
	require.NoError(t, f.AddPictureFromBytes("Photos", "C1", &excelize.Picture{
		Extension: ".png", File: pngBytes(t, 50, 50), Format: &excelize.GraphicOptions{},
	}))
	path := filepath.Join(t.TempDir(), "kyc.xlsx")
	require.NoError(t, f.SaveAs(path))

	images, err := NewExtractor(Config{}).Extract(context.Background(), path, "")
	require.NoError(t, err)
	require.Len(t, images, 3)
	for i, want := range []int{10, 30, 50} {
		w, _ := images[i].Size()
		assert.Equal(t, want, w)
		assert.Equal(t, i, images[i].Index)
	}
}

func TestExtractSpreadsheetUnanchoredMedia(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.Pkg.Store("xl/media/image10.png", pngBytes(t, 40, 40))
	f.Pkg.Store("xl/media/image2.png", pngBytes(t, 20, 20))
	f.Pkg.Store("xl/media/image1.png", pngBytes(t, 10, 10))
	f.Pkg.Store("xl/media/image3.emf", []byte("not a raster"))
	path := filepath.Join(t.TempDir(), "scans.xlsx")
	require.NoError(t, f.SaveAs(path))

	images, err := NewExtractor(Config{}).Extract(context.Background(), path, "")
	require.NoError(t, err)
	require.Len(t, images, 3)
	for i, want := range []int{10, 20, 40} {
		w, _ := images[i].Size()
		assert.Equal(t, want, w)
		assert.Equal(t, i, images[i].Index)
		assert.Equal(t, path, images[i].Source)
	}
}

func TestExtractUnsupported(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     []byte
		declared string
	}{
		{"plain text", "notes.txt", []byte("just some notes\n"), ""},
		{"legacy excel", "old.xls", []byte{0xD0, 0xCF, 0x11, 0xE0}, "application/vnd.ms-excel"},
		{"word document", "letter.docx", []byte("PK"), "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			_, err := NewExtractor(Config{}).Extract(context.Background(), path, tt.declared)
			assert.ErrorIs(t, err, ErrUnsupportedDocument)
		})
	}
}

func TestExtractCorruptImage(t *testing.T) {
	path := writeFile(t, "broken.jpg", []byte("definitely not a jpeg"))
	_, err := NewExtractor(Config{}).Extract(context.Background(), path, "image/jpeg")
	assert.Error(t, err)
}

func TestExtractWithLocalizer(t *testing.T) {
	local := writeFile(t, "id.png", pngBytes(t, 12, 12))
	e := NewExtractor(Config{}, WithLocalizer(mapLocalizer{"s3://kyc/id.png": local}))

	images, err := e.Extract(context.Background(), "s3://kyc/id.png", "")
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, local, images[0].Source)

	_, err = e.Extract(context.Background(), "s3://kyc/missing.png", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching document")
}

func TestPageNumber(t *testing.T) {
	assert.Equal(t, 1, pageNumber("/tmp/x/page-01.png"))
	assert.Equal(t, 12, pageNumber("page-12.png"))
	assert.Equal(t, 0, pageNumber("page.png"))
}
