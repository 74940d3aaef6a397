package pipeline

import (
	"context"

	"github.com/techub/techub/internal/core/config"
	"github.com/techub/techub/internal/core/profile"
)

// ProfileFetcher retrieves the raw GitHub payload for a login.
type ProfileFetcher interface {
	FetchProfileSummary(ctx context.Context, login string) (*profile.GithubPayload, error)
}

// CardSynthesizer produces a stat card from factual profile signals. An
// error means the structured-output call failed; the generate stage then
// engages its deterministic fallback.
type CardSynthesizer interface {
	SynthesizeCard(ctx context.Context, payload *profile.GithubPayload, scrape *profile.Scrape) (*profile.Card, error)
}

// Capturer renders a card preview URL to an image file at exact pixel
// dimensions.
type Capturer interface {
	// Name identifies the backend ("browser", "native") for asset records.
	Name() string

	// Capture writes the rendered image to outPath.
	Capture(ctx context.Context, url string, width, height int, outPath string) error
}

// CardRenderer draws a card image natively, without a preview page. The
// capture stage falls back to it per-variant when the browser backend fails
// or is absent.
type CardRenderer interface {
	// Name identifies the backend ("native") for asset records.
	Name() string

	// Render draws card at exact dimensions into outPath.
	Render(card *profile.Card, avatarPath string, width, height int, outPath string) error
}

// Uploader pushes a local file to object storage and returns its public URL.
type Uploader interface {
	// Provider identifies the storage backend ("gcs", "local").
	Provider() string

	Upload(ctx context.Context, localPath, key string) (publicURL string, err error)
}

// ProfileStore is the persistence contract the pipeline consumes. The store
// behind it (ORM, files) is an external concern.
type ProfileStore interface {
	StatusRecorder

	// GetProfile returns the stored profile, nil when absent.
	GetProfile(login string) (*profile.Profile, error)

	// SaveProfile upserts the whole profile record.
	SaveProfile(p *profile.Profile) error

	// UpsertAsset replaces the asset stored under (login, kind).
	UpsertAsset(login string, asset profile.Asset) error

	// UserToken returns a stored per-user access token and whether it is
	// fresh enough to use. Empty token means none stored.
	UserToken(login string) (token string, fresh bool, err error)
}

// Dependencies holds the collaborators injected into stages.
type Dependencies struct {
	Fetcher     ProfileFetcher
	Synthesizer CardSynthesizer

	// Capturer is the primary screenshot backend; Renderer is tried
	// per-variant when the capturer fails or is absent.
	Capturer Capturer
	Renderer CardRenderer

	Uploader Uploader
	Store    ProfileStore
	Config   *config.Config

	// DryRun suppresses external side effects where stages support it.
	DryRun bool
}
