package stages

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
}

func TestOptimizeNativeEncode(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "captures", "octocat", "og.png")
	writeTestPNG(t, pngPath)

	stage := NewOptimizeCardImages(&pipeline.Dependencies{Config: testConfig(dir)})

	rc := testContext(nil)
	rc.Captures["og"] = profile.Capture{Variant: "og", LocalPath: pngPath, MimeType: "image/png"}

	res := stage.Run(rc)
	if !res.OK() || res.IsDegraded() {
		t.Fatalf("Expected success, got %s", res.Status())
	}

	opt, ok := rc.Optimizations["og"]
	if !ok {
		t.Fatal("Expected optimization recorded")
	}
	if !strings.HasSuffix(opt.Path, ".jpg") {
		t.Errorf("Expected .jpg output, got %s", opt.Path)
	}
	if opt.Encoder != "native" || opt.MimeType != "image/jpeg" || !opt.Reencoded {
		t.Errorf("Unexpected optimization record: %+v", opt)
	}
	if _, err := os.Stat(opt.Path); err != nil {
		t.Errorf("Optimized file missing: %v", err)
	}
	if opt.BytesIn == 0 || opt.BytesOut == 0 {
		t.Errorf("Expected byte counts, got in=%d out=%d", opt.BytesIn, opt.BytesOut)
	}
}

func TestOptimizeSkipsWithoutCaptures(t *testing.T) {
	stage := NewOptimizeCardImages(&pipeline.Dependencies{Config: testConfig(t.TempDir())})
	res := stage.Run(testContext(nil))
	if !res.OK() || res.IsDegraded() {
		t.Errorf("Expected clean skip, got %s", res.Status())
	}
}

func TestOptimizeDegradesOnMissingFile(t *testing.T) {
	stage := NewOptimizeCardImages(&pipeline.Dependencies{Config: testConfig(t.TempDir())})

	rc := testContext(nil)
	rc.Captures["og"] = profile.Capture{Variant: "og", LocalPath: "/does/not/exist.png"}

	res := stage.Run(rc)
	if !res.IsDegraded() {
		t.Errorf("Expected degraded on missing capture, got %s", res.Status())
	}
	if _, ok := res.Metadata()["failed_variants"]; !ok {
		t.Errorf("Expected failed_variants metadata, got %v", res.Metadata())
	}
}

func TestOptimizeCLIFallsBackToNative(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "captures", "octocat", "og.png")
	writeTestPNG(t, pngPath)

	cfg := testConfig(dir)
	cfg.Optimize.Native = false
	cfg.Optimize.ToolPath = filepath.Join(dir, "no-such-convert")

	stage := NewOptimizeCardImages(&pipeline.Dependencies{Config: cfg})

	rc := testContext(nil)
	rc.Captures["og"] = profile.Capture{Variant: "og", LocalPath: pngPath}

	res := stage.Run(rc)
	if !res.OK() || res.IsDegraded() {
		t.Fatalf("Expected native fallback success, got %s", res.Status())
	}
	if rc.Optimizations["og"].Encoder != "native" {
		t.Errorf("Expected native encoder after CLI failure, got %q", rc.Optimizations["og"].Encoder)
	}
}
