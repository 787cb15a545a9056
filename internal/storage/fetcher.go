package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher downloads s3:// documents into a local dataset directory, laid out
// as <dir>/<bucket>/<key>. Files already present are reused.
type Fetcher struct {
	storage ObjectStorage
	dir     string
}

// NewFetcher creates a fetcher. storage may be nil when only local paths are used.
func NewFetcher(storage ObjectStorage, dir string) *Fetcher {
	return &Fetcher{storage: storage, dir: dir}
}

// Localize returns a local path for ref, downloading it first when ref is an
// s3:// URL. Local paths are returned unchanged.
func (f *Fetcher) Localize(ctx context.Context, ref string) (string, error) {
	if !IsS3URL(ref) {
		return ref, nil
	}

	bucket, key, err := ParseS3URL(ref)
	if err != nil {
		return "", err
	}
	local, err := f.localPath(bucket, key)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(local); err == nil && info.Size() > 0 {
		slog.Debug("reusing downloaded document", "url", ref, "path", local)
		return local, nil
	}

	if f.storage == nil {
		return "", fmt.Errorf("no object storage configured for %s", ref)
	}
	data, err := f.storage.Download(ctx, bucket, key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(local), 0o750); err != nil {
		return "", fmt.Errorf("failed to create dataset dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(local), ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", local, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", local, err)
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", local, err)
	}

	slog.Info("downloaded document", "url", ref, "path", local, "bytes", len(data))
	return local, nil
}

func (f *Fetcher) localPath(bucket, key string) (string, error) {
	dir := f.dir
	if dir == "" {
		dir = "dataset"
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve dataset dir: %w", err)
	}
	local := filepath.Join(root, bucket, filepath.FromSlash(key))
	if !strings.HasPrefix(local, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: key %q escapes the dataset dir", ErrInvalidURL, key)
	}
	return local, nil
}
