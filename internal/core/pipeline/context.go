package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techub/techub/internal/core/profile"
)

// TraceEntry is one append-only trace record. Every entry carries the run id
// so interleaved logs from concurrent runs can be correlated.
type TraceEntry struct {
	RunID     string         `json:"run_id"`
	Stage     string         `json:"stage"`
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Context carries the accumulated state of one pipeline run. It is created
// fresh per invocation, passed by reference to every stage, and discarded
// when the orchestrator returns. Nothing here is shared between runs.
type Context struct {
	// Ctx is the Go context for cancellation and per-call timeouts.
	Ctx context.Context

	// Login is the profile being processed, lower-cased at construction.
	Login string

	// Host is the base URL used to build screenshot capture URLs.
	Host string

	// RunID stamps every trace entry.
	RunID string

	// Overrides is the immutable per-run configuration.
	Overrides *Overrides

	// Slots filled by stages, in pipeline order.
	GithubPayload      *profile.GithubPayload
	Profile            *profile.Profile
	AvatarLocalPath    string
	AvatarRelativePath string
	AvatarPublicURL    string
	AvatarUploadMeta   map[string]any
	Scrape             *profile.Scrape
	Card               *profile.Card
	Captures           map[string]profile.Capture
	Optimizations      map[string]profile.Optimization
	Eligibility        *profile.Eligibility
	DegradedStages     []string

	// Final summary, written by the orchestrator.
	Outcome         string
	OutcomeMetadata map[string]any

	traceLog      []TraceEntry
	stageMetadata map[string]map[string]any
}

// NewContext builds a fresh run context for login.
func NewContext(ctx context.Context, login string, overrides *Overrides) *Context {
	if overrides == nil {
		overrides = &Overrides{}
	}
	return &Context{
		Ctx:           ctx,
		Login:         strings.ToLower(strings.TrimSpace(login)),
		RunID:         uuid.NewString(),
		Overrides:     overrides,
		Captures:      make(map[string]profile.Capture),
		Optimizations: make(map[string]profile.Optimization),
		stageMetadata: make(map[string]map[string]any),
	}
}

// Trace appends a record to the run trace. Nil-valued payload keys are
// dropped and the payload is deep-copied so later mutation cannot rewrite
// history. Trace must never fail: if the payload cannot be serialized, the
// entry is still appended with a trace_error marker instead of the payload.
func (c *Context) Trace(stage, event string, payload map[string]any) {
	entry := TraceEntry{
		RunID:     c.RunID,
		Stage:     stage,
		Event:     event,
		Timestamp: time.Now().UTC(),
	}

	if len(payload) > 0 {
		filtered := make(map[string]any, len(payload))
		for k, v := range payload {
			if v != nil {
				filtered[k] = v
			}
		}
		copied, err := deepCopyMap(filtered)
		if err != nil {
			copied = map[string]any{"trace_error": err.Error()}
		}
		entry.Extra = copied
	}

	c.traceLog = append(c.traceLog, entry)
}

// TraceLog returns a copy of the trace entries recorded so far.
func (c *Context) TraceLog() []TraceEntry {
	out := make([]TraceEntry, len(c.traceLog))
	copy(out, c.traceLog)
	return out
}

// RecordStageMetadata stores a deep copy of data under the stage id. Empty
// data is a no-op. A copy that fails to serialize is recorded as an error
// marker rather than propagated; stage metadata is diagnostic output and
// must not abort a run.
func (c *Context) RecordStageMetadata(stage string, data map[string]any) {
	if len(data) == 0 {
		return
	}
	copied, err := deepCopyMap(data)
	if err != nil {
		copied = map[string]any{"metadata_error": err.Error()}
	}
	c.stageMetadata[stage] = copied
}

// StageMetadata returns a deep copy of the metadata recorded for stage, nil
// if none. Copying on read keeps downstream mutation from leaking between
// stages.
func (c *Context) StageMetadata(stage string) map[string]any {
	data, ok := c.stageMetadata[stage]
	if !ok {
		return nil
	}
	copied, err := deepCopyMap(data)
	if err != nil {
		return map[string]any{"metadata_error": err.Error()}
	}
	return copied
}

// MarkDegraded records that stage completed with a shortfall.
func (c *Context) MarkDegraded(stage string) {
	for _, s := range c.DegradedStages {
		if s == stage {
			return
		}
	}
	c.DegradedStages = append(c.DegradedStages, stage)
}

// Variants resolves the screenshot variant set for this run: the override
// list when present, else defaults.
func (c *Context) Variants(defaults []string) []string {
	if c.Overrides != nil && len(c.Overrides.ScreenshotVariants) > 0 {
		return c.Overrides.ScreenshotVariants
	}
	return defaults
}

// Snapshot produces a plain JSON-serializable projection of the context for
// diagnostics. Profile and card are projected to a fixed field allow-list so
// snapshot files do not accumulate unrelated internal state.
func (c *Context) Snapshot() map[string]any {
	snap := map[string]any{
		"login":  c.Login,
		"run_id": c.RunID,
	}
	if c.Host != "" {
		snap["host"] = c.Host
	}
	if c.Overrides != nil {
		snap["overrides"] = map[string]any{
			"only_stages":             c.Overrides.OnlyStages,
			"skip_stages":             c.Overrides.SkipStages,
			"preserve_profile_avatar": c.Overrides.PreserveProfileAvatar,
			"preserve_profile_fields": c.Overrides.PreserveProfileFields,
			"screenshot_variants":     c.Overrides.ScreenshotVariants,
			"trigger_source":          c.Overrides.TriggerSource,
		}
	}
	if c.GithubPayload != nil {
		snap["github_payload"] = map[string]any{
			"login":         c.GithubPayload.Login,
			"followers":     c.GithubPayload.Followers,
			"repos":         len(c.GithubPayload.Repos),
			"recent_events": c.GithubPayload.RecentEvents,
			"fetched_with":  c.GithubPayload.FetchedWith,
		}
	}
	if c.Profile != nil {
		snap["profile"] = map[string]any{
			"login":      c.Profile.Login,
			"name":       c.Profile.Name,
			"followers":  c.Profile.Followers,
			"updated_at": c.Profile.UpdatedAt,
		}
	}
	if c.Card != nil {
		snap["card"] = map[string]any{
			"id":            c.Card.ID,
			"login":         c.Card.Login,
			"archetype":     c.Card.Archetype,
			"spirit_animal": c.Card.SpiritAnimal,
			"generator":     c.Card.Generator,
		}
	}
	if c.AvatarLocalPath != "" {
		snap["avatar_local_path"] = c.AvatarLocalPath
	}
	if c.AvatarPublicURL != "" {
		snap["avatar_public_url"] = c.AvatarPublicURL
	}
	if c.Scrape != nil {
		snap["scrape"] = c.Scrape
	}
	if len(c.Captures) > 0 {
		snap["captures"] = c.Captures
	}
	if len(c.Optimizations) > 0 {
		snap["optimizations"] = c.Optimizations
	}
	if c.Eligibility != nil {
		snap["eligibility"] = c.Eligibility
	}
	if len(c.DegradedStages) > 0 {
		snap["degraded_stages"] = c.DegradedStages
	}
	if c.Outcome != "" {
		snap["outcome"] = c.Outcome
	}
	if len(c.stageMetadata) > 0 {
		snap["stage_metadata"] = c.stageMetadata
	}
	return snap
}

// deepCopyMap copies m via a JSON round-trip. Values that cannot be
// marshaled (channels, funcs, cycles) surface as an error for the caller to
// swallow.
func deepCopyMap(m map[string]any) (map[string]any, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
