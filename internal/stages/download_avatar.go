package stages

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/techub/techub/internal/core/pipeline"
)

// avatarMinBytes rejects truncated downloads; real avatars are never this
// small.
const avatarMinBytes = 128

// DownloadAvatar fetches the avatar referenced in the GitHub payload to
// local disk. An avatar is cosmetic, not load-bearing: 404s, timeouts and
// truncated bodies degrade the run instead of aborting it.
type DownloadAvatar struct {
	dataDir string
	client  *http.Client
}

// NewDownloadAvatar creates the avatar download stage.
func NewDownloadAvatar(deps *pipeline.Dependencies) *DownloadAvatar {
	dataDir := "data"
	if deps.Config != nil {
		dataDir = deps.Config.Storage.DataDir
	}
	return &DownloadAvatar{
		dataDir: dataDir,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ID returns the stage identifier.
func (s *DownloadAvatar) ID() string { return "download_avatar" }

// Label returns the human-readable stage name.
func (s *DownloadAvatar) Label() string { return "Download avatar" }

// Run downloads the avatar and records its local paths on the context.
func (s *DownloadAvatar) Run(rc *pipeline.Context) *pipeline.Result {
	if rc.Overrides.PreserveProfileAvatar {
		return pipeline.Success(nil, map[string]any{"skipped": "avatar preserved by override"})
	}
	if rc.GithubPayload == nil || rc.GithubPayload.AvatarURL == "" {
		return pipeline.Degraded(nil, map[string]any{"reason": "no avatar URL in payload"})
	}

	relPath := filepath.Join("avatars", rc.Login+avatarExt(rc.GithubPayload.AvatarURL))
	localPath := filepath.Join(s.dataDir, relPath)

	if err := s.download(rc, rc.GithubPayload.AvatarURL, localPath); err != nil {
		return pipeline.Degraded(nil, map[string]any{"reason": err.Error()})
	}

	rc.AvatarLocalPath = localPath
	rc.AvatarRelativePath = filepath.ToSlash(relPath)
	return pipeline.Success(localPath, map[string]any{"local_path": localPath})
}

func (s *DownloadAvatar) download(rc *pipeline.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(rc.Ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("bad avatar URL: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("avatar fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("avatar fetch returned %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create avatar dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return fmt.Errorf("avatar write failed: %w", err)
	}
	if n < avatarMinBytes {
		return fmt.Errorf("avatar file too small (%d bytes)", n)
	}
	return nil
}

// avatarExt guesses the file extension from the URL, defaulting to .png
// (GitHub serves avatars without a meaningful extension).
func avatarExt(url string) string {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	switch strings.ToLower(filepath.Ext(trimmed)) {
	case ".jpg", ".jpeg":
		return ".jpg"
	case ".gif":
		return ".gif"
	case ".webp":
		return ".webp"
	default:
		return ".png"
	}
}
