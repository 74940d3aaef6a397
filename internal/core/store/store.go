// Package store persists profile records and per-user tokens as JSON files
// under a data directory. It implements the persistence contract the
// pipeline consumes; a database-backed implementation could replace it
// without touching any stage.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/techub/techub/internal/core/profile"
)

const (
	profilesDir = "profiles"
	tokensDir   = "tokens"

	// tokenFreshness bounds how old a stored user token may be before the
	// fetch stage falls back to the app-level client.
	tokenFreshness = 24 * time.Hour
)

// FileStore is a JSON-file-backed profile store.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	for _, sub := range []string{profilesDir, tokensDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store dir: %w", err)
		}
	}
	return &FileStore{root: dir}, nil
}

// Root returns the store's data directory.
func (s *FileStore) Root() string { return s.root }

// GetProfile returns the stored profile for login, nil when absent.
func (s *FileStore) GetProfile(login string) (*profile.Profile, error) {
	data, err := os.ReadFile(s.profilePath(login))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", login, err)
	}

	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", login, err)
	}
	return &p, nil
}

// SaveProfile upserts the whole profile record.
func (s *FileStore) SaveProfile(p *profile.Profile) error {
	if p == nil || strings.TrimSpace(p.Login) == "" {
		return fmt.Errorf("profile login cannot be empty")
	}
	p.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile %s: %w", p.Login, err)
	}
	return writeFileAtomic(s.profilePath(p.Login), data)
}

// UpsertAsset replaces the asset stored under (login, kind). The asset list
// is a keyed set, not an append-only log: re-running a record stage leaves
// exactly one entry per kind.
func (s *FileStore) UpsertAsset(login string, asset profile.Asset) error {
	if strings.TrimSpace(asset.Kind) == "" {
		return fmt.Errorf("asset kind cannot be empty")
	}

	p, err := s.GetProfile(login)
	if err != nil {
		return err
	}
	if p == nil {
		p = &profile.Profile{Login: strings.ToLower(login)}
	}

	replaced := false
	for i := range p.Assets {
		if p.Assets[i].Kind == asset.Kind {
			p.Assets[i] = asset
			replaced = true
			break
		}
	}
	if !replaced {
		p.Assets = append(p.Assets, asset)
	}
	return s.SaveProfile(p)
}

// RecordPipelineStatus persists the terse per-run status marker.
func (s *FileStore) RecordPipelineStatus(login string, status string, errorMessage string) error {
	p, err := s.GetProfile(login)
	if err != nil {
		return err
	}
	if p == nil {
		p = &profile.Profile{Login: strings.ToLower(login)}
	}
	p.PipelineStatus = status
	p.PipelineError = errorMessage
	p.PipelineRunAt = time.Now().UTC()
	return s.SaveProfile(p)
}

// storedToken is the on-disk shape of a per-user access token.
type storedToken struct {
	Login     string    `json:"login"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserToken returns a stored per-user token and whether it is fresh enough
// for the fetch stage to prefer it over the app client.
func (s *FileStore) UserToken(login string) (string, bool, error) {
	data, err := os.ReadFile(s.tokenPath(login))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read token for %s: %w", login, err)
	}

	var t storedToken
	if err := json.Unmarshal(data, &t); err != nil {
		return "", false, fmt.Errorf("failed to parse token for %s: %w", login, err)
	}
	fresh := time.Since(t.UpdatedAt) < tokenFreshness
	return t.Token, fresh, nil
}

// SaveUserToken stores a per-user access token (e.g. after an OAuth grant).
func (s *FileStore) SaveUserToken(login, token string) error {
	t := storedToken{
		Login:     strings.ToLower(login),
		Token:     token,
		UpdatedAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token for %s: %w", login, err)
	}
	return writeFileAtomic(s.tokenPath(login), data)
}

func (s *FileStore) profilePath(login string) string {
	return filepath.Join(s.root, profilesDir, strings.ToLower(login)+".json")
}

func (s *FileStore) tokenPath(login string) string {
	return filepath.Join(s.root, tokensDir, strings.ToLower(login)+".json")
}

// writeFileAtomic writes via a temp file + rename so a crashed run never
// leaves a half-written record.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}
