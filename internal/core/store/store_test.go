package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/techub/techub/internal/core/profile"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return s
}

func TestGetProfileAbsent(t *testing.T) {
	s := newTestStore(t)
	p, err := s.GetProfile("nobody")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p != nil {
		t.Errorf("Expected nil for absent profile, got %+v", p)
	}
}

func TestSaveAndGetProfile(t *testing.T) {
	s := newTestStore(t)

	in := &profile.Profile{Login: "octocat", Name: "The Octocat", Followers: 42}
	if err := s.SaveProfile(in); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	if in.UpdatedAt.IsZero() {
		t.Error("SaveProfile should stamp UpdatedAt")
	}

	out, err := s.GetProfile("octocat")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if out == nil || out.Name != "The Octocat" || out.Followers != 42 {
		t.Errorf("Round trip mismatch: %+v", out)
	}
}

func TestSaveProfileRejectsEmptyLogin(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveProfile(&profile.Profile{}); err == nil {
		t.Error("Expected error for empty login")
	}
	if err := s.SaveProfile(nil); err == nil {
		t.Error("Expected error for nil profile")
	}
}

func TestUpsertAssetReplacesByKind(t *testing.T) {
	s := newTestStore(t)

	first := profile.Asset{Kind: "avatar", LocalPath: "a.png", GeneratedAt: time.Now()}
	if err := s.UpsertAsset("octocat", first); err != nil {
		t.Fatalf("UpsertAsset failed: %v", err)
	}
	second := profile.Asset{Kind: "avatar", LocalPath: "b.png", GeneratedAt: time.Now()}
	if err := s.UpsertAsset("octocat", second); err != nil {
		t.Fatalf("UpsertAsset failed: %v", err)
	}
	other := profile.Asset{Kind: "capture_og", LocalPath: "og.png", GeneratedAt: time.Now()}
	if err := s.UpsertAsset("octocat", other); err != nil {
		t.Fatalf("UpsertAsset failed: %v", err)
	}

	p, err := s.GetProfile("octocat")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if len(p.Assets) != 2 {
		t.Fatalf("Expected one asset per kind, got %d", len(p.Assets))
	}
	for _, a := range p.Assets {
		if a.Kind == "avatar" && a.LocalPath != "b.png" {
			t.Errorf("Upsert should replace, got %s", a.LocalPath)
		}
	}
}

func TestUpsertAssetRejectsEmptyKind(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertAsset("octocat", profile.Asset{}); err == nil {
		t.Error("Expected error for empty asset kind")
	}
}

func TestRecordPipelineStatus(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordPipelineStatus("octocat", "partial_success", ""); err != nil {
		t.Fatalf("RecordPipelineStatus failed: %v", err)
	}

	p, err := s.GetProfile("octocat")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.PipelineStatus != "partial_success" {
		t.Errorf("Expected status marker, got %q", p.PipelineStatus)
	}
	if p.PipelineRunAt.IsZero() {
		t.Error("Expected run timestamp")
	}
}

func TestUserTokenFreshness(t *testing.T) {
	s := newTestStore(t)

	// Absent token: empty, not fresh, no error.
	token, fresh, err := s.UserToken("octocat")
	if err != nil || token != "" || fresh {
		t.Errorf("Expected empty token, got %q fresh=%v err=%v", token, fresh, err)
	}

	if err := s.SaveUserToken("octocat", "gho_abc"); err != nil {
		t.Fatalf("SaveUserToken failed: %v", err)
	}
	token, fresh, err = s.UserToken("octocat")
	if err != nil {
		t.Fatalf("UserToken failed: %v", err)
	}
	if token != "gho_abc" || !fresh {
		t.Errorf("Expected fresh token, got %q fresh=%v", token, fresh)
	}

	// Age the stored token past the freshness window.
	stale := storedToken{Login: "octocat", Token: "gho_abc", UpdatedAt: time.Now().Add(-48 * time.Hour)}
	data, _ := json.Marshal(stale)
	if err := os.WriteFile(s.tokenPath("octocat"), data, 0o644); err != nil {
		t.Fatalf("Failed to write stale token: %v", err)
	}

	token, fresh, err = s.UserToken("octocat")
	if err != nil {
		t.Fatalf("UserToken failed: %v", err)
	}
	if token != "gho_abc" || fresh {
		t.Errorf("Expected stale token, got %q fresh=%v", token, fresh)
	}
}

func TestProfilePathLowercasesLogin(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveProfile(&profile.Profile{Login: "octocat"}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "profiles", "octocat.json")); err != nil {
		t.Errorf("Expected profile file on disk: %v", err)
	}
}
