// Package storage uploads pipeline artifacts to object storage. The GCS
// uploader is used when a bucket is configured; the local uploader keeps
// artifacts on disk and serves them by relative URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const uploadTimeout = 2 * time.Minute

// GCSUploader pushes files to a Google Cloud Storage bucket.
type GCSUploader struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

// NewGCSUploader creates an uploader for bucket. cdnDomain, when set,
// replaces the storage host in public URLs.
func NewGCSUploader(ctx context.Context, bucket, cdnDomain string, opts ...option.ClientOption) (*GCSUploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket, cdnDomain: cdnDomain}, nil
}

// Provider identifies the backend in asset records.
func (u *GCSUploader) Provider() string { return "gcs" }

// Upload writes localPath to the bucket under key and returns the public
// URL.
func (u *GCSUploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	if ct := ContentTypeForPath(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write %s to bucket: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close bucket writer for %s: %w", key, err)
	}

	return u.PublicURL(key), nil
}

// PublicURL builds the externally served URL for key.
func (u *GCSUploader) PublicURL(key string) string {
	if u.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", u.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, key)
}

// Close releases the storage client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// ContentTypeForPath maps a file extension to its MIME type.
func ContentTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".json":
		return "application/json"
	default:
		return ""
	}
}
