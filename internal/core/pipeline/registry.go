// Stage registration and preset pipeline building.
package pipeline

import (
	"fmt"
	"sync"
)

// StageFactory creates a Stage from the shared dependency set.
type StageFactory func(deps *Dependencies) (Stage, error)

// Registry maps stage ids to factories and records the declared pipeline
// order. Building from ids always yields stages in declared order.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]StageFactory
	order     []string
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]StageFactory)}
}

// Register adds a stage factory. Registration order is the declared pipeline
// order.
func (r *Registry) Register(id string, factory StageFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; !exists {
		r.order = append(r.order, id)
	}
	r.factories[id] = factory
}

// Get retrieves a stage factory by id.
func (r *Registry) Get(id string) (StageFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[id]
	return f, ok
}

// DeclaredOrder returns the registered stage ids in declaration order.
func (r *Registry) DeclaredOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// BuildFromIDs creates a pipeline from stage ids. Ids are re-sorted into
// declared order so a caller-supplied list can never reorder execution.
func (r *Registry) BuildFromIDs(ids []string, deps *Dependencies) (*Pipeline, error) {
	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.Get(id); !ok {
			return nil, fmt.Errorf("unknown stage: %s", id)
		}
		requested[id] = true
	}

	var stages []Stage
	for _, id := range r.DeclaredOrder() {
		if !requested[id] {
			continue
		}
		factory, _ := r.Get(id)
		stage, err := factory(deps)
		if err != nil {
			return nil, fmt.Errorf("failed to create stage '%s': %w", id, err)
		}
		stages = append(stages, stage)
	}
	return New(stages...), nil
}

// BuildAll creates a pipeline with every registered stage in declared order.
func (r *Registry) BuildAll(deps *Dependencies) (*Pipeline, error) {
	return r.BuildFromIDs(r.DeclaredOrder(), deps)
}

// Presets are the built-in stage selections.
var Presets = map[string][]string{
	// full-generate: the complete generation run.
	"full-generate": {
		"fetch_github_profile",
		"download_avatar",
		"upload_avatar",
		"persist_github_profile",
		"scrape_profile_site",
		"generate_card",
		"capture_card_screenshots",
		"optimize_card_images",
		"record_assets",
		"score_eligibility",
	},

	// metadata-resync: refresh GitHub fields without touching images.
	"metadata-resync": {
		"fetch_github_profile",
		"persist_github_profile",
		"score_eligibility",
	},

	// screenshot-refresh: re-render card images for an existing profile.
	"screenshot-refresh": {
		"capture_card_screenshots",
		"optimize_card_images",
	},
}

// GetPreset returns the stage ids for a preset.
func GetPreset(name string) ([]string, bool) {
	ids, ok := Presets[name]
	return ids, ok
}

// ResolveStages determines the stage ids to use.
// Priority: explicit ids > preset > full-generate.
func ResolveStages(explicit []string, preset string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	if preset != "" {
		if ids, ok := GetPreset(preset); ok {
			return ids
		}
	}
	return Presets["full-generate"]
}
