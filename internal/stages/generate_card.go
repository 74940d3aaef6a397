package stages

import (
	"fmt"
	"log"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
)

// GenerateCard synthesizes the stat card. The structured-output LLM call is
// attempted first; any failure there (transport, malformed JSON, missing
// synthesizer) engages the deterministic heuristic, which cannot fail. The
// only fatal path is the store write that persists the finished card.
type GenerateCard struct {
	synthesizer pipeline.CardSynthesizer
	store       pipeline.ProfileStore
}

// NewGenerateCard creates the card generation stage.
func NewGenerateCard(deps *pipeline.Dependencies) *GenerateCard {
	return &GenerateCard{synthesizer: deps.Synthesizer, store: deps.Store}
}

// ID returns the stage identifier.
func (s *GenerateCard) ID() string { return "generate_card" }

// Label returns the human-readable stage name.
func (s *GenerateCard) Label() string { return "Generate card" }

// Run produces a card and persists it onto the profile.
func (s *GenerateCard) Run(rc *pipeline.Context) *pipeline.Result {
	payload := s.payloadFor(rc)
	if payload == nil {
		return pipeline.Failure(fmt.Errorf("no GitHub payload or stored profile to derive a card from"), nil)
	}

	var card *profile.Card
	generator := "heuristic"
	var llmErr string

	if s.synthesizer != nil {
		synthesized, err := s.synthesizer.SynthesizeCard(rc.Ctx, payload, rc.Scrape)
		if err == nil {
			card = synthesized
			generator = card.Generator
		} else {
			llmErr = err.Error()
			log.Printf("[generate_card] LLM synthesis failed for %s, using heuristic: %v", rc.Login, err)
		}
	}
	if card == nil {
		card = HeuristicCard(payload)
	}

	if s.store != nil {
		p := rc.Profile
		if p == nil {
			stored, err := s.store.GetProfile(rc.Login)
			if err != nil {
				return pipeline.Failure(fmt.Errorf("failed to load profile for card: %w", err), nil)
			}
			p = stored
		}
		if p == nil {
			p = &profile.Profile{Login: rc.Login}
		}
		p.Card = card
		if err := s.store.SaveProfile(p); err != nil {
			return pipeline.Failure(fmt.Errorf("failed to save card: %w", err), nil)
		}
		rc.Profile = p
	}

	rc.Card = card
	md := map[string]any{
		"generator": generator,
		"card_id":   card.ID,
		"archetype": card.Archetype,
	}
	if llmErr != "" {
		md["llm_error"] = llmErr
	}
	return pipeline.Success(card, md)
}

// payloadFor returns the in-context payload, or reconstructs a minimal one
// from the stored profile so a partial run (no fetch stage) can still
// regenerate a card.
func (s *GenerateCard) payloadFor(rc *pipeline.Context) *profile.GithubPayload {
	if rc.GithubPayload != nil {
		return rc.GithubPayload
	}

	p := rc.Profile
	if p == nil && s.store != nil {
		stored, err := s.store.GetProfile(rc.Login)
		if err == nil {
			p = stored
		}
	}
	if p == nil {
		return nil
	}
	return &profile.GithubPayload{
		Login:     p.Login,
		Name:      p.Name,
		Bio:       p.Bio,
		Company:   p.Company,
		Location:  p.Location,
		Blog:      p.Blog,
		AvatarURL: p.AvatarURL,
		Followers: p.Followers,
		Following: p.Following,
		CreatedAt: p.CreatedAt,
	}
}
