package stages

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
	"github.com/techub/techub/internal/integrations/screenshot"
)

// CaptureCardScreenshots renders the requested variants at their exact
// pixel sizes. Each variant goes through the browser capturer first, then
// the native renderer; a capture whose output file is near-empty counts as
// failed (screenshot_empty). The stage degrades when some variants fail and
// fails hard only when none succeed.
type CaptureCardScreenshots struct {
	capturer pipeline.Capturer
	renderer pipeline.CardRenderer
	store    pipeline.ProfileStore

	dataDir  string
	host     string
	defaults []string
	minBytes int64
}

// NewCaptureCardScreenshots creates the capture stage.
func NewCaptureCardScreenshots(deps *pipeline.Dependencies) *CaptureCardScreenshots {
	s := &CaptureCardScreenshots{
		capturer: deps.Capturer,
		renderer: deps.Renderer,
		store:    deps.Store,
		dataDir:  "data",
		minBytes: 1024,
	}
	if deps.Config != nil {
		s.dataDir = deps.Config.Storage.DataDir
		s.host = deps.Config.Screenshot.Host
		s.defaults = deps.Config.Screenshot.Variants
		s.minBytes = deps.Config.Screenshot.MinBytes
	}
	return s
}

// ID returns the stage identifier.
func (s *CaptureCardScreenshots) ID() string { return "capture_card_screenshots" }

// Label returns the human-readable stage name.
func (s *CaptureCardScreenshots) Label() string { return "Capture card screenshots" }

// Run captures every requested variant and records them on the context.
func (s *CaptureCardScreenshots) Run(rc *pipeline.Context) *pipeline.Result {
	card := s.cardFor(rc)
	if card == nil {
		return pipeline.Failure(fmt.Errorf("no card to capture; generate a card first"), nil)
	}

	names := rc.Variants(s.defaults)
	if len(names) == 0 {
		return pipeline.Failure(fmt.Errorf("no screenshot variants requested"), nil)
	}

	failed := map[string]string{}
	for _, name := range names {
		variant, err := screenshot.LookupVariant(name)
		if err != nil {
			failed[name] = err.Error()
			continue
		}

		outPath := filepath.Join(s.dataDir, "captures", rc.Login, variant.Name+".png")
		renderer, err := s.captureOne(rc, card, variant, outPath)
		if err != nil {
			failed[name] = err.Error()
			log.Printf("[capture_card_screenshots] %s/%s failed: %v", rc.Login, name, err)
			continue
		}

		rc.Captures[variant.Name] = profile.Capture{
			Variant:   variant.Name,
			LocalPath: outPath,
			Width:     variant.Width,
			Height:    variant.Height,
			MimeType:  "image/png",
			Renderer:  renderer,
		}
	}

	md := map[string]any{"captured": len(rc.Captures), "requested": len(names)}
	if len(failed) > 0 {
		md["failed_variants"] = failed
	}

	switch {
	case len(rc.Captures) == 0:
		return pipeline.Failure(fmt.Errorf("all %d screenshot variants failed", len(names)), md)
	case len(failed) > 0:
		return pipeline.Degraded(rc.Captures, md)
	default:
		return pipeline.Success(rc.Captures, md)
	}
}

// captureOne tries the browser backend, then the native renderer, and
// validates the output file size. Returns the backend name used.
func (s *CaptureCardScreenshots) captureOne(rc *pipeline.Context, card *profile.Card, v screenshot.Variant, outPath string) (string, error) {
	var browserErr error
	if s.capturer != nil {
		if err := s.capturer.Capture(rc.Ctx, s.previewURL(rc, v.Name), v.Width, v.Height, outPath); err == nil {
			if err := s.validate(outPath); err == nil {
				return s.capturer.Name(), nil
			} else {
				browserErr = err
			}
		} else {
			browserErr = err
		}
	}

	if s.renderer == nil {
		if browserErr != nil {
			return "", browserErr
		}
		return "", fmt.Errorf("no capture backend configured")
	}

	if err := s.renderer.Render(card, rc.AvatarLocalPath, v.Width, v.Height, outPath); err != nil {
		if browserErr != nil {
			return "", fmt.Errorf("browser: %v; native: %w", browserErr, err)
		}
		return "", err
	}
	if err := s.validate(outPath); err != nil {
		return "", err
	}
	return s.renderer.Name(), nil
}

// validate rejects near-empty output files as screenshot_empty.
func (s *CaptureCardScreenshots) validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("capture produced no file: %w", err)
	}
	if info.Size() < s.minBytes {
		return fmt.Errorf("screenshot_empty: %d bytes < %d", info.Size(), s.minBytes)
	}
	return nil
}

// previewURL builds the card preview address the browser renders. A host on
// the run context overrides the configured one.
func (s *CaptureCardScreenshots) previewURL(rc *pipeline.Context, variant string) string {
	host := s.host
	if rc.Host != "" {
		host = rc.Host
	}
	return fmt.Sprintf("%s/cards/%s?variant=%s", host, url.PathEscape(rc.Login), url.QueryEscape(variant))
}

// cardFor returns the in-context card or loads the stored one so a
// screenshot-only refresh works without regeneration.
func (s *CaptureCardScreenshots) cardFor(rc *pipeline.Context) *profile.Card {
	if rc.Card != nil {
		return rc.Card
	}
	if s.store != nil {
		if p, err := s.store.GetProfile(rc.Login); err == nil && p != nil && p.Card != nil {
			rc.Card = p.Card
			return p.Card
		}
	}
	return nil
}
