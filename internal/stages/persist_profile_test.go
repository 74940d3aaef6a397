package stages

import (
	"testing"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
)

func TestPersistWritesPayloadFields(t *testing.T) {
	s := newTestStore(t)
	stage := NewPersistGithubProfile(&pipeline.Dependencies{Store: s})

	rc := testContext(nil)
	rc.GithubPayload = testPayload()

	res := stage.Run(rc)
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Err())
	}

	stored, err := s.GetProfile("octocat")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if stored.Name != "The Octocat" || stored.Followers != 120 {
		t.Errorf("Payload fields not persisted: %+v", stored)
	}
	if stored.AvatarURL != "https://example.com/avatar.png" {
		t.Errorf("Avatar URL not persisted: %q", stored.AvatarURL)
	}
	if rc.Profile == nil {
		t.Error("Profile should be set on the context")
	}
}

func TestPersistHonorsPreservedFields(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveProfile(&profile.Profile{
		Login: "octocat",
		Bio:   "Hand-written bio",
		Name:  "Old Name",
	}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	stage := NewPersistGithubProfile(&pipeline.Dependencies{Store: s})
	rc := testContext(&pipeline.Overrides{PreserveProfileFields: []string{"bio"}})
	rc.GithubPayload = testPayload()

	res := stage.Run(rc)
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Err())
	}

	stored, _ := s.GetProfile("octocat")
	if stored.Bio != "Hand-written bio" {
		t.Errorf("Preserved field was overwritten: %q", stored.Bio)
	}
	if stored.Name != "The Octocat" {
		t.Errorf("Non-preserved field should update: %q", stored.Name)
	}

	preserved, ok := res.Metadata()["preserved_fields"].([]string)
	if !ok || len(preserved) != 1 || preserved[0] != "bio" {
		t.Errorf("Expected preserved_fields metadata, got %v", res.Metadata())
	}
}

func TestPersistPreservesAvatar(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveProfile(&profile.Profile{
		Login:     "octocat",
		AvatarURL: "https://cdn.example.com/curated.png",
	}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	stage := NewPersistGithubProfile(&pipeline.Dependencies{Store: s})
	rc := testContext(&pipeline.Overrides{PreserveProfileAvatar: true})
	rc.GithubPayload = testPayload()

	if res := stage.Run(rc); !res.OK() {
		t.Fatalf("Expected success, got %v", res.Err())
	}

	stored, _ := s.GetProfile("octocat")
	if stored.AvatarURL != "https://cdn.example.com/curated.png" {
		t.Errorf("Curated avatar was overwritten: %q", stored.AvatarURL)
	}
}

func TestPersistFailsWithoutPayload(t *testing.T) {
	stage := NewPersistGithubProfile(&pipeline.Dependencies{Store: newTestStore(t)})
	res := stage.Run(testContext(nil))
	if !res.Failed() {
		t.Errorf("Expected failure without payload, got %s", res.Status())
	}
}

func TestPersistFailsOnStoreError(t *testing.T) {
	stage := NewPersistGithubProfile(&pipeline.Dependencies{Store: brokenStore{}})
	rc := testContext(nil)
	rc.GithubPayload = testPayload()

	res := stage.Run(rc)
	if !res.Failed() {
		t.Errorf("Expected failure on store error, got %s", res.Status())
	}
}
