package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store uploads opaque blobs and returns a URL for them. The engine never
// inspects the stored contents.
type Store interface {
	Upload(ctx context.Context, data []byte, path string) (string, error)
}

// DiskStore is a filesystem-backed Store. Files land under BaseDir and are
// addressed as BaseURL/<path>.
type DiskStore struct {
	BaseDir string
	BaseURL string
}

// NewDiskStore creates a DiskStore rooted at baseDir.
func NewDiskStore(baseDir, baseURL string) *DiskStore {
	return &DiskStore{
		BaseDir: baseDir,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Upload writes the blob to disk and returns its URL.
func (s *DiskStore) Upload(ctx context.Context, data []byte, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean("/" + path)
	target := filepath.Join(s.BaseDir, clean)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return s.BaseURL + filepath.ToSlash(clean), nil
}
