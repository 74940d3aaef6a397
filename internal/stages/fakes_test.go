package stages

import (
	"context"
	"errors"
	"testing"

	"github.com/techub/techub/internal/core/config"
	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
	"github.com/techub/techub/internal/core/store"
)

// fakeFetcher mocks the GitHub fetch interface.
type fakeFetcher struct {
	payload *profile.GithubPayload
	err     error
	calls   int
}

func (f *fakeFetcher) FetchProfileSummary(ctx context.Context, login string) (*profile.GithubPayload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

// fakeSynthesizer mocks the LLM card synthesis interface.
type fakeSynthesizer struct {
	card  *profile.Card
	err   error
	calls int
}

func (f *fakeSynthesizer) SynthesizeCard(ctx context.Context, payload *profile.GithubPayload, scrape *profile.Scrape) (*profile.Card, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.card, nil
}

// fakeUploader mocks object storage.
type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) Provider() string { return "fake" }

func (f *fakeUploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// brokenStore fails every operation, for fatal-path tests.
type brokenStore struct{}

func (brokenStore) GetProfile(login string) (*profile.Profile, error) {
	return nil, errors.New("store unavailable")
}
func (brokenStore) SaveProfile(p *profile.Profile) error { return errors.New("store unavailable") }
func (brokenStore) UpsertAsset(login string, asset profile.Asset) error {
	return errors.New("store unavailable")
}
func (brokenStore) RecordPipelineStatus(login, status, errorMessage string) error {
	return errors.New("store unavailable")
}
func (brokenStore) UserToken(login string) (string, bool, error) {
	return "", false, errors.New("store unavailable")
}

func newTestStore(t *testing.T) *store.FileStore {
	t.Helper()
	s, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return s
}

func testConfig(dataDir string) *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Storage.DataDir = dataDir
	return cfg
}

func testContext(o *pipeline.Overrides) *pipeline.Context {
	return pipeline.NewContext(context.Background(), "octocat", o)
}

func testPayload() *profile.GithubPayload {
	return &profile.GithubPayload{
		Login:     "octocat",
		Name:      "The Octocat",
		Bio:       "Professional cat",
		Blog:      "octocat.dev",
		AvatarURL: "https://example.com/avatar.png",
		Followers: 120,
		Following: 9,
		Repos: []profile.Repo{
			{Name: "hello-world", Language: "Go", Stars: 42},
			{Name: "spoon-knife", Language: "Ruby", Stars: 7},
		},
		RecentEvents: 12,
		HasReadme:    true,
	}
}
