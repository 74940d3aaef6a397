// Package github wraps the GitHub API for profile-summary fetches: user
// fields, owned repositories and recent public activity in one call.
package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v60/github"

	"github.com/techub/techub/internal/core/profile"
)

const (
	defaultMaxRepos = 200
	reposPerPage    = 100
	eventsPerPage   = 100
)

// Client wraps the GitHub API client. Pinned items are not on the REST API,
// so a GraphQL client rides along for them.
type Client struct {
	client   *github.Client
	graphql  *GraphQLClient
	maxRepos int
}

// WithMaxRepos caps how many owned repos a summary fetch pages through.
func (c *Client) WithMaxRepos(n int) *Client {
	if n > 0 {
		c.maxRepos = n
	}
	return c
}

// FetchProfileSummary fetches the user record, owned repos and recent public
// event count for login. Repo and event fetch failures are tolerated (the
// user record alone is enough for a degraded-but-useful payload); only a
// failed user fetch is an error.
func (c *Client) FetchProfileSummary(ctx context.Context, login string) (*profile.GithubPayload, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" {
		return nil, fmt.Errorf("login cannot be empty")
	}

	user, _, err := c.client.Users.Get(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", login, err)
	}

	payload := &profile.GithubPayload{
		Login:     login,
		Name:      user.GetName(),
		Bio:       user.GetBio(),
		Company:   user.GetCompany(),
		Location:  user.GetLocation(),
		Blog:      user.GetBlog(),
		AvatarURL: user.GetAvatarURL(),
		Followers: user.GetFollowers(),
		Following: user.GetFollowing(),
		CreatedAt: user.GetCreatedAt().Time,
	}

	repos, err := c.listOwnedRepos(ctx, login)
	if err == nil {
		payload.Repos = repos
	}

	if count, err := c.countRecentEvents(ctx, login); err == nil {
		payload.RecentEvents = count
	}

	payload.HasReadme = c.hasProfileReadme(ctx, login)

	if c.graphql != nil {
		if count, err := c.graphql.CountPinnedItems(ctx, login); err == nil {
			payload.PinnedRepos = count
		}
	}

	return payload, nil
}

// listOwnedRepos pages through the user's own repositories up to maxRepos.
func (c *Client) listOwnedRepos(ctx context.Context, login string) ([]profile.Repo, error) {
	opts := &github.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "pushed",
		ListOptions: github.ListOptions{PerPage: reposPerPage},
	}

	var out []profile.Repo
	for {
		repos, resp, err := c.client.Repositories.ListByUser(ctx, login, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repos for %s: %w", login, err)
		}
		for _, r := range repos {
			out = append(out, profile.Repo{
				Name:     r.GetName(),
				Language: r.GetLanguage(),
				Stars:    r.GetStargazersCount(),
				Fork:     r.GetFork(),
				Archived: r.GetArchived(),
				PushedAt: r.GetPushedAt().Time,
			})
			if len(out) >= c.maxRepos {
				return out, nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// countRecentEvents returns the number of recent public events for login
// (one page; GitHub only exposes ~90 days anyway).
func (c *Client) countRecentEvents(ctx context.Context, login string) (int, error) {
	events, _, err := c.client.Activity.ListEventsPerformedByUser(ctx, login, true,
		&github.ListOptions{PerPage: eventsPerPage})
	if err != nil {
		return 0, fmt.Errorf("failed to list events for %s: %w", login, err)
	}
	return len(events), nil
}

// hasProfileReadme reports whether the login/login profile repo has a README.
func (c *Client) hasProfileReadme(ctx context.Context, login string) bool {
	readme, _, err := c.client.Repositories.GetReadme(ctx, login, login, nil)
	return err == nil && readme != nil
}
