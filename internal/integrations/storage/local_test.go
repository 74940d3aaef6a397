package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalUploaderCopiesAndBuildsURL(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "avatar.png")
	if err := os.WriteFile(src, []byte("image bytes"), 0o644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	u := NewLocalUploader(root, "http://localhost:3000/")
	url, err := u.Upload(context.Background(), src, "avatars/octocat.png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if url != "http://localhost:3000/public/avatars/octocat.png" {
		t.Errorf("Unexpected URL %q", url)
	}

	copied, err := os.ReadFile(filepath.Join(root, "public", "avatars", "octocat.png"))
	if err != nil {
		t.Fatalf("Copied file missing: %v", err)
	}
	if string(copied) != "image bytes" {
		t.Error("Copied content mismatch")
	}
}

func TestLocalUploaderMissingSource(t *testing.T) {
	u := NewLocalUploader(t.TempDir(), "")
	if _, err := u.Upload(context.Background(), "/no/such/file.png", "k.png"); err == nil {
		t.Error("Expected error for missing source file")
	}
}

func TestContentTypeForPath(t *testing.T) {
	if got := ContentTypeForPath("captures/og.PNG"); got != "image/png" {
		t.Errorf("Expected image/png, got %q", got)
	}
	if got := ContentTypeForPath("captures/og.jpg"); got != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %q", got)
	}
	if got := ContentTypeForPath("report.bin"); got != "" {
		t.Errorf("Expected empty for unknown extension, got %q", got)
	}
}
