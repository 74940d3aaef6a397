package gemini

import (
	"fmt"
	"strings"

	"github.com/techub/techub/internal/core/profile"
)

// buildCardPrompt assembles the synthesis prompt from factual profile
// signals. The model is constrained to the response schema declared on the
// request, so the prompt concentrates on flavor, not format.
func buildCardPrompt(payload *profile.GithubPayload, scrape *profile.Scrape) string {
	var b strings.Builder

	b.WriteString("You are the card designer for TecHub, a site that turns GitHub profiles ")
	b.WriteString("into collectible game-style stat cards.\n\n")
	b.WriteString("Synthesize a card for the developer below. Ground every stat and trait in ")
	b.WriteString("the facts given; do not invent activity that is not there. Stats are ")
	b.WriteString("integers from 0 to 100. Pick a single archetype (e.g. \"Architect\", ")
	b.WriteString("\"Firefighter\", \"Polyglot\", \"Maintainer\") and a spirit animal that fits ")
	b.WriteString("the profile's character. Flavor text is one or two playful sentences.\n\n")

	fmt.Fprintf(&b, "Login: %s\n", payload.Login)
	if payload.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", payload.Name)
	}
	if payload.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", payload.Bio)
	}
	if payload.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", payload.Company)
	}
	if payload.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", payload.Location)
	}
	fmt.Fprintf(&b, "Followers: %d, Following: %d\n", payload.Followers, payload.Following)
	fmt.Fprintf(&b, "Public repos fetched: %d\n", len(payload.Repos))
	fmt.Fprintf(&b, "Recent public events: %d\n", payload.RecentEvents)

	if langs := payload.Languages(); len(langs) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(langs, ", "))
	}

	top := topRepos(payload.Repos, 5)
	if len(top) > 0 {
		b.WriteString("Top repos by stars:\n")
		for _, r := range top {
			fmt.Fprintf(&b, "  - %s (%s, %d stars)\n", r.Name, orNone(r.Language), r.Stars)
		}
	}

	if scrape != nil && (scrape.Title != "" || scrape.Description != "") {
		fmt.Fprintf(&b, "Personal site: %s - %s\n", scrape.Title, scrape.Description)
	}

	return b.String()
}

func topRepos(repos []profile.Repo, n int) []profile.Repo {
	sorted := make([]profile.Repo, len(repos))
	copy(sorted, repos)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Stars > sorted[j-1].Stars; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func orNone(s string) string {
	if s == "" {
		return "no language"
	}
	return s
}
