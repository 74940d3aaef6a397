package stages

import (
	"github.com/techub/techub/internal/core/pipeline"
)

// RegisterAll registers every stage with the registry. Registration order is
// the declared pipeline order, so this list is the canonical run sequence.
func RegisterAll(r *pipeline.Registry) {
	r.Register("fetch_github_profile", func(deps *pipeline.Dependencies) (pipeline.Stage, error) {
		return NewFetchGithubProfile(deps), nil
	})
	r.Register("download_avatar", func(deps *pipeline.Dependencies) (pipeline.Stage, error) {
		return NewDownloadAvatar(deps), nil
	})
	r.Register("upload_avatar", func(deps *pipeline.Dependencies) (pipeline.Stage, error) {
		return NewUploadAvatar(deps), nil
	})
	r.Register("persist_github_profile", func(deps *pipeline.Dependencies) (pipeline.Stage, error) {
		return NewPersistGithubProfile(deps), nil
	})
	r.Register("scrape_profile_site", func(deps *pipeline.Dependencies) (pipeline.Stage, error) {
		return NewScrapeProfileSite(deps), nil
	})
	r.Register("generate_card", func(deps *pipeline.Dependencies) (pipeline.Stage, error) {
		return NewGenerateCard(deps), nil
	})
	r.Register("capture_card_screenshots", func(deps *pipeline.Dependencies) (pipeline.Stage, error) {
		return NewCaptureCardScreenshots(deps), nil
	})
	r.Register("optimize_card_images", func(deps *pipeline.Dependencies) (pipeline.Stage, error) {
		return NewOptimizeCardImages(deps), nil
	})
	r.Register("record_assets", func(deps *pipeline.Dependencies) (pipeline.Stage, error) {
		return NewRecordAssets(deps), nil
	})
	r.Register("score_eligibility", func(deps *pipeline.Dependencies) (pipeline.Stage, error) {
		return NewScoreEligibility(deps), nil
	})
}

// NewRegistry returns a registry with all stages registered.
func NewRegistry() *pipeline.Registry {
	r := pipeline.NewRegistry()
	RegisterAll(r)
	return r
}
