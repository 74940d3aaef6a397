package screenshot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// captureTimeout bounds one browser invocation. Enforced here, per call, not
// centrally: a hung browser surfaces as this variant's failure.
const captureTimeout = 45 * time.Second

// BrowserCapturer shells out to a headless-browser binary (Chromium-style
// flags) to screenshot a rendered card preview page.
type BrowserCapturer struct {
	toolPath string
}

// NewBrowserCapturer wraps the given headless-browser binary.
func NewBrowserCapturer(toolPath string) *BrowserCapturer {
	return &BrowserCapturer{toolPath: toolPath}
}

// Name identifies the backend in asset records.
func (b *BrowserCapturer) Name() string { return "browser" }

// Capture screenshots url at exactly width x height into outPath.
func (b *BrowserCapturer) Capture(ctx context.Context, url string, width, height int, outPath string) error {
	if b.toolPath == "" {
		return fmt.Errorf("no screenshot tool configured")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create capture dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.toolPath,
		"--headless",
		"--disable-gpu",
		"--hide-scrollbars",
		fmt.Sprintf("--window-size=%d,%d", width, height),
		fmt.Sprintf("--screenshot=%s", outPath),
		url,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("screenshot tool failed: %w (output: %s)", err, truncate(string(out), 200))
	}

	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("screenshot tool produced no file: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
