package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/techub/techub/internal/core/profile"
)

// Synthesizer produces stat cards via Gemini structured output.
type Synthesizer struct {
	client *genai.Client
	model  string
	retry  RetryConfig
}

// cardResponse is the JSON shape the response schema constrains the model to.
type cardResponse struct {
	Attack       int      `json:"attack"`
	Defense      int      `json:"defense"`
	Speed        int      `json:"speed"`
	Tags         []string `json:"tags"`
	Archetype    string   `json:"archetype"`
	SpiritAnimal string   `json:"spirit_animal"`
	FlavorText   string   `json:"flavor_text"`
}

// cardSchema declares the structured-output contract sent with every
// synthesis request.
var cardSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"attack":        {Type: genai.TypeInteger, Description: "0-100"},
		"defense":       {Type: genai.TypeInteger, Description: "0-100"},
		"speed":         {Type: genai.TypeInteger, Description: "0-100"},
		"tags":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"archetype":     {Type: genai.TypeString},
		"spirit_animal": {Type: genai.TypeString},
		"flavor_text":   {Type: genai.TypeString},
	},
	Required: []string{"attack", "defense", "speed", "archetype", "spirit_animal", "flavor_text"},
}

// NewSynthesizer creates a Gemini card synthesizer.
func NewSynthesizer(apiKey, model string) (*Synthesizer, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-2.0-flash-lite"
	}

	return &Synthesizer{
		client: client,
		model:  model,
		retry:  DefaultRetryConfig(),
	}, nil
}

// Close closes the Gemini client.
func (s *Synthesizer) Close() error {
	return s.client.Close()
}

// SynthesizeCard asks the model for a stat card constrained by the card
// schema. Any failure (transport, empty candidates, malformed JSON,
// out-of-range stats) is returned as an error so the generate stage can
// fall back to the deterministic synthesizer.
func (s *Synthesizer) SynthesizeCard(ctx context.Context, payload *profile.GithubPayload, scrape *profile.Scrape) (*profile.Card, error) {
	prompt := buildCardPrompt(payload, scrape)

	model := s.client.GenerativeModel(s.model)
	model.SetTemperature(0.7)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = cardSchema

	resp, err := withRetry(ctx, s.retry, "synthesize card", func() (*genai.GenerateContentResponse, error) {
		return model.GenerateContent(ctx, genai.Text(prompt))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize card: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from LLM")
	}

	var responseText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText += string(txt)
		}
	}

	var parsed cardResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse card response: %w", err)
	}
	if err := validateStats(parsed); err != nil {
		return nil, err
	}

	if parsed.Tags == nil {
		parsed.Tags = []string{}
	}

	return &profile.Card{
		ID:           uuid.NewString(),
		Login:        payload.Login,
		Attack:       parsed.Attack,
		Defense:      parsed.Defense,
		Speed:        parsed.Speed,
		Tags:         parsed.Tags,
		Archetype:    parsed.Archetype,
		SpiritAnimal: parsed.SpiritAnimal,
		FlavorText:   parsed.FlavorText,
		Generator:    "gemini",
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// validateStats rejects model output that escaped the schema's 0-100 range.
func validateStats(r cardResponse) error {
	for name, v := range map[string]int{"attack": r.Attack, "defense": r.Defense, "speed": r.Speed} {
		if v < 0 || v > 100 {
			return fmt.Errorf("stat %s out of range: %d", name, v)
		}
	}
	if r.Archetype == "" || r.SpiritAnimal == "" {
		return fmt.Errorf("card response missing archetype or spirit animal")
	}
	return nil
}
