// Package stages contains the pipeline stages for profile generation. Each
// stage implements the pipeline.Stage interface.
package stages

import (
	"context"
	"fmt"
	"log"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
	"github.com/techub/techub/internal/integrations/github"
)

// FetchGithubProfile retrieves the raw GitHub payload for the run's login.
// When the target user's own access token is stored and fresh, it is tried
// first (higher rate limits, private-field visibility); the shared app-level
// client is the fallback. Fatal: every later stage depends on this payload,
// so the stage fails hard only when both attempts fail.
type FetchGithubProfile struct {
	fetcher pipeline.ProfileFetcher
	store   pipeline.ProfileStore

	// userFetcher builds a fetcher from a stored user token. Swappable in
	// tests.
	userFetcher func(ctx context.Context, token string) pipeline.ProfileFetcher
}

// NewFetchGithubProfile creates the fetch stage.
func NewFetchGithubProfile(deps *pipeline.Dependencies) *FetchGithubProfile {
	maxRepos := 0
	if deps.Config != nil {
		maxRepos = deps.Config.GitHub.MaxRepos
	}
	return &FetchGithubProfile{
		fetcher: deps.Fetcher,
		store:   deps.Store,
		userFetcher: func(ctx context.Context, token string) pipeline.ProfileFetcher {
			return github.NewClient(ctx, token).WithMaxRepos(maxRepos)
		},
	}
}

// ID returns the stage identifier.
func (s *FetchGithubProfile) ID() string { return "fetch_github_profile" }

// Label returns the human-readable stage name.
func (s *FetchGithubProfile) Label() string { return "Fetch GitHub profile" }

// Run fetches the payload and writes it to the context.
func (s *FetchGithubProfile) Run(rc *pipeline.Context) *pipeline.Result {
	var payload *profile.GithubPayload
	var userErr error

	if token, fresh := s.storedUserToken(rc.Login); token != "" && fresh {
		payload, userErr = s.userFetcher(rc.Ctx, token).FetchProfileSummary(rc.Ctx, rc.Login)
		if userErr == nil {
			payload.FetchedWith = "user_token"
		} else {
			log.Printf("[fetch_github_profile] user-token fetch failed for %s, falling back: %v", rc.Login, userErr)
		}
	}

	if payload == nil {
		if s.fetcher == nil {
			return pipeline.Failure(fmt.Errorf("no GitHub client configured"), nil)
		}
		var err error
		payload, err = s.fetcher.FetchProfileSummary(rc.Ctx, rc.Login)
		if err != nil {
			if userErr != nil {
				err = fmt.Errorf("both fetch attempts failed: user client: %v; app client: %w", userErr, err)
			}
			return pipeline.Failure(err, nil)
		}
		if payload.FetchedWith == "" {
			payload.FetchedWith = "app_token"
		}
	}

	rc.GithubPayload = payload
	return pipeline.Success(payload, map[string]any{
		"fetched_with":  payload.FetchedWith,
		"repos":         len(payload.Repos),
		"followers":     payload.Followers,
		"recent_events": payload.RecentEvents,
	})
}

func (s *FetchGithubProfile) storedUserToken(login string) (string, bool) {
	if s.store == nil {
		return "", false
	}
	token, fresh, err := s.store.UserToken(login)
	if err != nil {
		log.Printf("[fetch_github_profile] token lookup failed for %s: %v", login, err)
		return "", false
	}
	return token, fresh
}
