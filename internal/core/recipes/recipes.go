// Package recipes provides named override presets so operators and job
// triggers can say what they mean ("refresh these screenshots") instead of
// hand-assembling override sets.
package recipes

import (
	"strings"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
)

// ScreenshotRefresh builds overrides that re-render only the named capture
// variants for an existing profile. Variant names are trimmed, lower-cased
// and deduped preserving first-seen order. Returns nil when the normalized
// set is empty: nothing to do.
func ScreenshotRefresh(variants []string) *pipeline.Overrides {
	normalized := normalizeList(variants, nil)
	if len(normalized) == 0 {
		return nil
	}
	return &pipeline.Overrides{
		OnlyStages:         []string{"capture_card_screenshots", "optimize_card_images"},
		ScreenshotVariants: normalized,
		TriggerSource:      "recipe:screenshot_refresh",
	}
}

// MetadataResync builds overrides that re-fetch GitHub fields while keeping
// curated content: the avatar when preserveAvatar is set, and any named
// profile fields. Field names are normalized against the canonical
// persistable set; unknown names are dropped.
func MetadataResync(preserveAvatar bool, preserveFields []string) *pipeline.Overrides {
	o := &pipeline.Overrides{
		OnlyStages:            []string{"fetch_github_profile", "persist_github_profile", "score_eligibility"},
		PreserveProfileAvatar: preserveAvatar,
		PreserveProfileFields: normalizeList(preserveFields, profile.PersistableFields),
		TriggerSource:         "recipe:metadata_resync",
	}
	if preserveAvatar {
		o.SkipStages = []string{"download_avatar", "upload_avatar"}
	}
	return o
}

// ForceRegenerate builds overrides for a complete re-run that overwrites
// everything, including a curated avatar. trigger tags the run's provenance;
// empty defaults to "recipe:force_regenerate".
func ForceRegenerate(trigger string) *pipeline.Overrides {
	if strings.TrimSpace(trigger) == "" {
		trigger = "recipe:force_regenerate"
	}
	return &pipeline.Overrides{
		PreserveProfileAvatar: false,
		TriggerSource:         trigger,
	}
}

// normalizeList trims, lower-cases and dedupes names preserving first-seen
// order. When canonical is non-nil, names outside it are dropped.
func normalizeList(names []string, canonical []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		if canonical != nil && !contains(canonical, n) {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
