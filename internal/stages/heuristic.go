package stages

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techub/techub/internal/core/profile"
)

// spiritAnimals is the deterministic fallback pool; the pick hashes the
// login so a user keeps their animal across regenerations.
var spiritAnimals = []string{
	"Owl", "Fox", "Octopus", "Wolf", "Raven", "Beaver",
	"Honey Badger", "Dolphin", "Mantis Shrimp", "Tortoise", "Falcon", "Axolotl",
}

// HeuristicCard derives a stat card from factual signals alone: follower
// count, repo count, language diversity and recent activity. It has no
// external dependency and always succeeds, which is what lets the generate
// stage promise it never hard-fails on LLM trouble.
func HeuristicCard(payload *profile.GithubPayload) *profile.Card {
	langs := payload.Languages()

	attack := clamp100(int(25 * math.Log10(float64(payload.Followers)+1)))
	defense := clamp100(len(payload.Repos) * 2)
	speed := clamp100(payload.RecentEvents*2 + len(langs)*5)

	tags := make([]string, 0, 4)
	for _, l := range langs {
		tags = append(tags, strings.ToLower(l))
		if len(tags) == 4 {
			break
		}
	}

	animal := spiritAnimals[hashLogin(payload.Login)%uint32(len(spiritAnimals))]
	archetype := deriveArchetype(payload, len(langs))

	return &profile.Card{
		ID:           uuid.NewString(),
		Login:        payload.Login,
		Attack:       attack,
		Defense:      defense,
		Speed:        speed,
		Tags:         tags,
		Archetype:    archetype,
		SpiritAnimal: animal,
		FlavorText: fmt.Sprintf("%s ships across %d repos with %d followers cheering along.",
			displayName(payload), len(payload.Repos), payload.Followers),
		Generator:   "heuristic",
		GeneratedAt: time.Now().UTC(),
	}
}

func deriveArchetype(payload *profile.GithubPayload, langCount int) string {
	switch {
	case langCount >= 5:
		return "Polyglot"
	case len(payload.Repos) >= 40:
		return "Maintainer"
	case payload.Followers >= 100:
		return "Beacon"
	case payload.RecentEvents >= 50:
		return "Sprinter"
	default:
		return "Builder"
	}
}

func displayName(payload *profile.GithubPayload) string {
	if payload.Name != "" {
		return payload.Name
	}
	return payload.Login
}

func hashLogin(login string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(login)))
	return h.Sum32()
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
