package stages

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
)

// scrapeBodyLimit caps how much of a personal site is read; the title and
// meta description live in the head.
const scrapeBodyLimit = 256 * 1024

var (
	titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	descRe  = regexp.MustCompile(`(?is)<meta[^>]+name=["']description["'][^>]+content=["']([^"']*)["']`)
)

// ScrapeProfileSite fetches the profile's blog/site URL and extracts its
// title and meta description as extra card flavor input. Entirely optional:
// a missing URL skips cleanly, a fetch failure degrades.
type ScrapeProfileSite struct {
	client *http.Client
}

// NewScrapeProfileSite creates the site scrape stage.
func NewScrapeProfileSite(_ *pipeline.Dependencies) *ScrapeProfileSite {
	return &ScrapeProfileSite{client: &http.Client{Timeout: 20 * time.Second}}
}

// ID returns the stage identifier.
func (s *ScrapeProfileSite) ID() string { return "scrape_profile_site" }

// Label returns the human-readable stage name.
func (s *ScrapeProfileSite) Label() string { return "Scrape personal site" }

// Run scrapes the site and records the result on the context.
func (s *ScrapeProfileSite) Run(rc *pipeline.Context) *pipeline.Result {
	url := s.siteURL(rc)
	if url == "" {
		return pipeline.Success(nil, map[string]any{"skipped": "no site URL on profile"})
	}

	scrape, err := s.scrape(rc, url)
	if err != nil {
		return pipeline.Degraded(nil, map[string]any{"reason": err.Error(), "url": url})
	}

	rc.Scrape = scrape
	return pipeline.Success(scrape, map[string]any{"url": url, "title": scrape.Title})
}

func (s *ScrapeProfileSite) siteURL(rc *pipeline.Context) string {
	var raw string
	if rc.GithubPayload != nil {
		raw = rc.GithubPayload.Blog
	}
	if raw == "" && rc.Profile != nil {
		raw = rc.Profile.Blog
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

func (s *ScrapeProfileSite) scrape(rc *pipeline.Context, url string) (*profile.Scrape, error) {
	req, err := http.NewRequestWithContext(rc.Ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("bad site URL: %w", err)
	}
	req.Header.Set("User-Agent", "techub-pipeline")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("site fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("site fetch returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, scrapeBodyLimit))
	if err != nil {
		return nil, fmt.Errorf("site read failed: %w", err)
	}

	scrape := &profile.Scrape{URL: url}
	if m := titleRe.FindSubmatch(body); m != nil {
		scrape.Title = collapseSpace(string(m[1]))
	}
	if m := descRe.FindSubmatch(body); m != nil {
		scrape.Description = collapseSpace(string(m[1]))
	}
	return scrape, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
