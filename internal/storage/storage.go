// Package storage defines object storage access and resolves s3:// document
// references to local files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned for malformed s3:// URLs.
var ErrInvalidURL = errors.New("invalid s3 url")

// UploadInput describes an object to upload.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
}

// UploadOutput is returned after a successful upload.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts cloud object storage operations.
type ObjectStorage interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
}

// IsS3URL reports whether s is an s3:// reference.
func IsS3URL(s string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "s3://")
}

// ParseS3URL splits s3://bucket/key into bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidURL, raw)
	}
	return u.Host, key, nil
}
