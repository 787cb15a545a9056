// Package imaging decodes, rotates and encodes document images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"pault.ag/go/cbeff/jpeg2000"
)

// ErrUnsupportedFormat is returned when no decoder recognises the data.
var ErrUnsupportedFormat = errors.New("unsupported or invalid image format")

// Decode decodes an image from bytes and reports the format it was read as.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data: %w", ErrUnsupportedFormat)
	}

	if img, format, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, format, nil
	}

	// JPEG 2000 is not registered with the image package.
	if img, err := jpeg2000.Parse(data); err == nil {
		return img, "jpeg2000", nil
	}

	return nil, "", ErrUnsupportedFormat
}

// DecodeFile reads and decodes an image file.
func DecodeFile(path string) (image.Image, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	img, format, err := Decode(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, format, nil
}

// EncodeJPEG encodes img as JPEG with the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
