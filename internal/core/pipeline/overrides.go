package pipeline

import "strings"

// Overrides is the per-run configuration resolved at context construction.
// Zero value means "run everything with defaults". It is treated as immutable
// once the context is built.
type Overrides struct {
	// OnlyStages, when non-empty, restricts the run to these stage ids,
	// executed in declared pipeline order (not override-list order).
	OnlyStages []string

	// SkipStages removes stage ids from the run. Applied after OnlyStages.
	SkipStages []string

	// PreserveProfileAvatar keeps an operator-curated avatar: the persist
	// stage will not overwrite the stored avatar URL.
	PreserveProfileAvatar bool

	// PreserveProfileFields names profile fields the persist stage must not
	// overwrite. Entries are from profile.PersistableFields.
	PreserveProfileFields []string

	// ScreenshotVariants restricts capture to these variant names. Empty
	// means the configured default set.
	ScreenshotVariants []string

	// TriggerSource is a free-text provenance tag ("webhook", "ops", ...).
	TriggerSource string
}

// FieldPreserved reports whether the persist stage must leave name untouched.
func (o *Overrides) FieldPreserved(name string) bool {
	if o == nil {
		return false
	}
	for _, f := range o.PreserveProfileFields {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// stageSelected applies the only/skip lists to one stage id.
func (o *Overrides) stageSelected(id string) bool {
	if o == nil {
		return true
	}
	if len(o.OnlyStages) > 0 {
		found := false
		for _, s := range o.OnlyStages {
			if s == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, s := range o.SkipStages {
		if s == id {
			return false
		}
	}
	return true
}
