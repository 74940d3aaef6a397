package stages

import (
	"fmt"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
)

// PersistGithubProfile writes the fetched payload onto the stored profile
// record, honoring the preserve overrides so operator-curated fields are not
// clobbered by a resync. Fatal: a profile that cannot be persisted makes the
// rest of the run meaningless.
type PersistGithubProfile struct {
	store pipeline.ProfileStore
}

// NewPersistGithubProfile creates the persist stage.
func NewPersistGithubProfile(deps *pipeline.Dependencies) *PersistGithubProfile {
	return &PersistGithubProfile{store: deps.Store}
}

// ID returns the stage identifier.
func (s *PersistGithubProfile) ID() string { return "persist_github_profile" }

// Label returns the human-readable stage name.
func (s *PersistGithubProfile) Label() string { return "Persist profile fields" }

// Run merges the payload into the stored profile.
func (s *PersistGithubProfile) Run(rc *pipeline.Context) *pipeline.Result {
	if rc.GithubPayload == nil {
		return pipeline.Failure(fmt.Errorf("no GitHub payload in context; fetch stage must run first"), nil)
	}
	if s.store == nil {
		return pipeline.Failure(fmt.Errorf("no profile store configured"), nil)
	}

	p, err := s.store.GetProfile(rc.Login)
	if err != nil {
		return pipeline.Failure(fmt.Errorf("failed to load profile: %w", err), nil)
	}
	if p == nil {
		p = &profile.Profile{Login: rc.Login}
	}

	var preserved []string
	set := func(field string, apply func()) {
		if rc.Overrides.FieldPreserved(field) {
			preserved = append(preserved, field)
			return
		}
		apply()
	}

	payload := rc.GithubPayload
	set("name", func() { p.Name = payload.Name })
	set("bio", func() { p.Bio = payload.Bio })
	set("company", func() { p.Company = payload.Company })
	set("location", func() { p.Location = payload.Location })
	set("blog", func() { p.Blog = payload.Blog })
	set("followers", func() { p.Followers = payload.Followers })
	set("following", func() { p.Following = payload.Following })

	if rc.Overrides.PreserveProfileAvatar || rc.Overrides.FieldPreserved("avatar_url") {
		preserved = append(preserved, "avatar_url")
	} else {
		p.AvatarURL = payload.AvatarURL
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = payload.CreatedAt
	}

	if err := s.store.SaveProfile(p); err != nil {
		return pipeline.Failure(fmt.Errorf("failed to save profile: %w", err), nil)
	}

	rc.Profile = p
	md := map[string]any{}
	if len(preserved) > 0 {
		md["preserved_fields"] = preserved
	}
	return pipeline.Success(p, md)
}
