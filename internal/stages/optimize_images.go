package stages

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "image/png"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
)

const optimizeTimeout = 60 * time.Second

// OptimizeCardImages re-encodes the captured PNGs to JPEG for delivery.
// Encoder selection follows config: the in-process encoder by default, a
// CLI tool (ImageMagick-style) when configured, with a silent fall back to
// native when the tool is missing or fails. Per-file failures degrade the
// run.
type OptimizeCardImages struct {
	native   bool
	toolPath string
	quality  int
}

// NewOptimizeCardImages creates the optimization stage.
func NewOptimizeCardImages(deps *pipeline.Dependencies) *OptimizeCardImages {
	s := &OptimizeCardImages{native: true, quality: 85}
	if deps.Config != nil {
		s.native = deps.Config.Optimize.Native || deps.Config.Optimize.ToolPath == ""
		s.toolPath = deps.Config.Optimize.ToolPath
		s.quality = deps.Config.Optimize.Quality
	}
	return s
}

// ID returns the stage identifier.
func (s *OptimizeCardImages) ID() string { return "optimize_card_images" }

// Label returns the human-readable stage name.
func (s *OptimizeCardImages) Label() string { return "Optimize card images" }

// Run re-encodes every capture and records the results on the context.
func (s *OptimizeCardImages) Run(rc *pipeline.Context) *pipeline.Result {
	if len(rc.Captures) == 0 {
		return pipeline.Success(nil, map[string]any{"skipped": "no captures to optimize"})
	}

	failed := map[string]string{}
	for name, capture := range rc.Captures {
		opt, err := s.optimizeOne(rc, capture)
		if err != nil {
			failed[name] = err.Error()
			log.Printf("[optimize_card_images] %s/%s failed: %v", rc.Login, name, err)
			continue
		}
		rc.Optimizations[name] = *opt
	}

	md := map[string]any{"optimized": len(rc.Optimizations)}
	if len(failed) > 0 {
		md["failed_variants"] = failed
		return pipeline.Degraded(rc.Optimizations, md)
	}
	return pipeline.Success(rc.Optimizations, md)
}

func (s *OptimizeCardImages) optimizeOne(rc *pipeline.Context, capture profile.Capture) (*profile.Optimization, error) {
	in, err := os.Stat(capture.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("capture file missing: %w", err)
	}

	outPath := strings.TrimSuffix(capture.LocalPath, filepath.Ext(capture.LocalPath)) + ".jpg"
	encoder := "native"

	if !s.native && s.toolPath != "" {
		if err := s.encodeCLI(rc, capture.LocalPath, outPath); err != nil {
			// Tool missing or broken: fall back without failing the variant.
			log.Printf("[optimize_card_images] CLI encoder unavailable, using native: %v", err)
			if err := s.encodeNative(capture.LocalPath, outPath); err != nil {
				return nil, err
			}
		} else {
			encoder = "cli"
		}
	} else {
		if err := s.encodeNative(capture.LocalPath, outPath); err != nil {
			return nil, err
		}
	}

	out, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("optimized file missing: %w", err)
	}

	return &profile.Optimization{
		Variant:   capture.Variant,
		Path:      outPath,
		BytesIn:   in.Size(),
		BytesOut:  out.Size(),
		Encoder:   encoder,
		MimeType:  "image/jpeg",
		Reencoded: true,
	}, nil
}

// encodeNative decodes the capture and re-encodes it as JPEG in-process.
func (s *OptimizeCardImages) encodeNative(inPath, outPath string) error {
	f, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", inPath, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", inPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", outPath, err)
	}
	return nil
}

func timeoutCtx(rc *pipeline.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(rc.Ctx, d)
}

// encodeCLI shells out to the configured converter.
func (s *OptimizeCardImages) encodeCLI(rc *pipeline.Context, inPath, outPath string) error {
	ctx, cancel := timeoutCtx(rc, optimizeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.toolPath, inPath, "-quality", strconv.Itoa(s.quality), outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("convert failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}
