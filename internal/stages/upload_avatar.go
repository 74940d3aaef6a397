package stages

import (
	"log"
	"time"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/integrations/storage"
)

// UploadAvatar pushes the downloaded avatar to object storage when an
// uploader is configured; otherwise the local copy stands. Upload failure
// degrades the run: a local avatar still renders.
type UploadAvatar struct {
	uploader pipeline.Uploader
	dryRun   bool
}

// NewUploadAvatar creates the avatar upload stage.
func NewUploadAvatar(deps *pipeline.Dependencies) *UploadAvatar {
	return &UploadAvatar{uploader: deps.Uploader, dryRun: deps.DryRun}
}

// ID returns the stage identifier.
func (s *UploadAvatar) ID() string { return "upload_avatar" }

// Label returns the human-readable stage name.
func (s *UploadAvatar) Label() string { return "Upload avatar" }

// Run uploads the avatar and records its public URL.
func (s *UploadAvatar) Run(rc *pipeline.Context) *pipeline.Result {
	if rc.AvatarLocalPath == "" {
		return pipeline.Success(nil, map[string]any{"skipped": "no avatar downloaded"})
	}
	if s.uploader == nil {
		// No bucket configured: the local file is the artifact.
		return pipeline.Success(rc.AvatarLocalPath, map[string]any{"storage": "local"})
	}
	if s.dryRun {
		log.Printf("[upload_avatar] dry-run: would upload %s", rc.AvatarLocalPath)
		return pipeline.Success(nil, map[string]any{"skipped": "dry-run"})
	}

	key := rc.AvatarRelativePath
	url, err := s.uploader.Upload(rc.Ctx, rc.AvatarLocalPath, key)
	if err != nil {
		log.Printf("[upload_avatar] upload failed for %s: %v", rc.Login, err)
		return pipeline.Degraded(nil, map[string]any{"reason": err.Error()})
	}

	rc.AvatarPublicURL = url
	rc.AvatarUploadMeta = map[string]any{
		"provider":    s.uploader.Provider(),
		"key":         key,
		"mime_type":   storage.ContentTypeForPath(key),
		"uploaded_at": time.Now().UTC(),
	}
	return pipeline.Success(url, map[string]any{"public_url": url, "provider": s.uploader.Provider()})
}
