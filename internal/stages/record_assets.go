package stages

import (
	"fmt"
	"time"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
	"github.com/techub/techub/internal/integrations/storage"
)

// RecordAssets upserts one logical asset record per (profile, kind): the
// avatar plus each captured variant. Upsert, not append: re-running the
// stage leaves exactly one record per kind with the latest paths. Fatal: a
// run whose artifacts cannot be recorded never happened as far as the site
// is concerned.
type RecordAssets struct {
	store    pipeline.ProfileStore
	uploader pipeline.Uploader
}

// NewRecordAssets creates the asset recording stage.
func NewRecordAssets(deps *pipeline.Dependencies) *RecordAssets {
	return &RecordAssets{store: deps.Store, uploader: deps.Uploader}
}

// ID returns the stage identifier.
func (s *RecordAssets) ID() string { return "record_assets" }

// Label returns the human-readable stage name.
func (s *RecordAssets) Label() string { return "Record assets" }

// Run upserts the run's artifacts into the store.
func (s *RecordAssets) Run(rc *pipeline.Context) *pipeline.Result {
	if s.store == nil {
		return pipeline.Failure(fmt.Errorf("no profile store configured"), nil)
	}

	now := time.Now().UTC()
	recorded := 0

	if rc.AvatarLocalPath != "" || rc.AvatarPublicURL != "" {
		asset := profile.Asset{
			Kind:        "avatar",
			LocalPath:   rc.AvatarLocalPath,
			PublicURL:   rc.AvatarPublicURL,
			MimeType:    storage.ContentTypeForPath(rc.AvatarLocalPath),
			Provider:    s.providerName(),
			GeneratedAt: now,
		}
		if err := s.store.UpsertAsset(rc.Login, asset); err != nil {
			return pipeline.Failure(fmt.Errorf("failed to record avatar asset: %w", err), nil)
		}
		recorded++
	}

	for name, capture := range rc.Captures {
		asset := profile.Asset{
			Kind:        "capture_" + name,
			LocalPath:   capture.LocalPath,
			PublicURL:   capture.PublicURL,
			MimeType:    capture.MimeType,
			Width:       capture.Width,
			Height:      capture.Height,
			Provider:    capture.Renderer,
			GeneratedAt: now,
		}
		// Prefer the optimized encoding when one exists.
		if opt, ok := rc.Optimizations[name]; ok {
			asset.LocalPath = opt.Path
			asset.MimeType = opt.MimeType
		}
		if err := s.store.UpsertAsset(rc.Login, asset); err != nil {
			return pipeline.Failure(fmt.Errorf("failed to record asset %s: %w", asset.Kind, err), nil)
		}
		recorded++
	}

	return pipeline.Success(recorded, map[string]any{"recorded": recorded})
}

func (s *RecordAssets) providerName() string {
	if s.uploader != nil {
		return s.uploader.Provider()
	}
	return "local"
}
