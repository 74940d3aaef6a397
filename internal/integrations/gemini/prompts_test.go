package gemini

import (
	"strings"
	"testing"

	"github.com/techub/techub/internal/core/profile"
)

func TestBuildCardPromptIncludesFacts(t *testing.T) {
	payload := &profile.GithubPayload{
		Login:     "octocat",
		Name:      "The Octocat",
		Bio:       "Professional cat",
		Followers: 120,
		Repos: []profile.Repo{
			{Name: "small", Language: "Ruby", Stars: 2},
			{Name: "big", Language: "Go", Stars: 500},
		},
		RecentEvents: 12,
	}
	scrape := &profile.Scrape{Title: "Octocat's Corner", Description: "Cats and code"}

	prompt := buildCardPrompt(payload, scrape)

	for _, want := range []string{"octocat", "The Octocat", "Professional cat", "Followers: 120", "Octocat's Corner"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}

	// Top repos are star-ordered.
	if strings.Index(prompt, "big") > strings.Index(prompt, "small") {
		t.Error("Expected repos ordered by stars")
	}
}

func TestBuildCardPromptWithoutScrape(t *testing.T) {
	prompt := buildCardPrompt(&profile.GithubPayload{Login: "octocat"}, nil)
	if strings.Contains(prompt, "Personal site") {
		t.Error("No scrape section expected without scrape data")
	}
}

func TestTopRepos(t *testing.T) {
	repos := []profile.Repo{
		{Name: "a", Stars: 1},
		{Name: "b", Stars: 9},
		{Name: "c", Stars: 5},
	}
	top := topRepos(repos, 2)
	if len(top) != 2 || top[0].Name != "b" || top[1].Name != "c" {
		t.Errorf("Expected [b c], got %v", top)
	}
	// The input slice is untouched.
	if repos[0].Name != "a" {
		t.Error("topRepos must not mutate its input")
	}
}
