package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader copies artifacts into a public directory under the data
// root and serves them by relative URL. Used when no bucket is configured.
type LocalUploader struct {
	root    string
	baseURL string
}

// NewLocalUploader stores files under root/public. baseURL prefixes the
// returned URLs (e.g. the app host); empty yields root-relative URLs.
func NewLocalUploader(root, baseURL string) *LocalUploader {
	return &LocalUploader{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Provider identifies the backend in asset records.
func (u *LocalUploader) Provider() string { return "local" }

// Upload copies localPath under the public directory and returns its URL.
func (u *LocalUploader) Upload(_ context.Context, localPath, key string) (string, error) {
	dst := filepath.Join(u.root, "public", filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create public dir: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("failed to copy to %s: %w", dst, err)
	}

	return u.baseURL + "/public/" + key, nil
}
