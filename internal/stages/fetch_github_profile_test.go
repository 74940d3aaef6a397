package stages

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
)

func TestFetchUsesAppClient(t *testing.T) {
	fetcher := &fakeFetcher{payload: testPayload()}
	stage := NewFetchGithubProfile(&pipeline.Dependencies{Fetcher: fetcher, Store: newTestStore(t)})

	rc := testContext(nil)
	res := stage.Run(rc)

	if !res.OK() || res.IsDegraded() {
		t.Fatalf("Expected success, got %s: %v", res.Status(), res.Err())
	}
	if rc.GithubPayload == nil {
		t.Fatal("Payload should be set on the context")
	}
	if rc.GithubPayload.FetchedWith != "app_token" {
		t.Errorf("Expected app_token, got %q", rc.GithubPayload.FetchedWith)
	}
}

func TestFetchPrefersFreshUserToken(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveUserToken("octocat", "gho_user"); err != nil {
		t.Fatalf("SaveUserToken failed: %v", err)
	}

	appFetcher := &fakeFetcher{payload: testPayload()}
	userFetcher := &fakeFetcher{payload: testPayload()}

	stage := NewFetchGithubProfile(&pipeline.Dependencies{Fetcher: appFetcher, Store: s})
	stage.userFetcher = func(ctx context.Context, token string) pipeline.ProfileFetcher {
		if token != "gho_user" {
			t.Errorf("Expected stored token, got %q", token)
		}
		return userFetcher
	}

	rc := testContext(nil)
	res := stage.Run(rc)

	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Err())
	}
	if userFetcher.calls != 1 || appFetcher.calls != 0 {
		t.Errorf("Expected user client only, got user=%d app=%d", userFetcher.calls, appFetcher.calls)
	}
	if rc.GithubPayload.FetchedWith != "user_token" {
		t.Errorf("Expected user_token, got %q", rc.GithubPayload.FetchedWith)
	}
}

func TestFetchFallsBackWhenUserClientFails(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveUserToken("octocat", "gho_user"); err != nil {
		t.Fatalf("SaveUserToken failed: %v", err)
	}

	appFetcher := &fakeFetcher{payload: testPayload()}
	stage := NewFetchGithubProfile(&pipeline.Dependencies{Fetcher: appFetcher, Store: s})
	stage.userFetcher = func(ctx context.Context, token string) pipeline.ProfileFetcher {
		return &fakeFetcher{err: errors.New("token revoked")}
	}

	rc := testContext(nil)
	res := stage.Run(rc)

	if !res.OK() {
		t.Fatalf("Expected fallback success, got %v", res.Err())
	}
	if appFetcher.calls != 1 {
		t.Errorf("Expected app client fallback, got %d calls", appFetcher.calls)
	}
	if rc.GithubPayload.FetchedWith != "app_token" {
		t.Errorf("Expected app_token after fallback, got %q", rc.GithubPayload.FetchedWith)
	}
}

func TestFetchFailsWhenBothClientsFail(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveUserToken("octocat", "gho_user"); err != nil {
		t.Fatalf("SaveUserToken failed: %v", err)
	}

	stage := NewFetchGithubProfile(&pipeline.Dependencies{
		Fetcher: &fakeFetcher{err: errors.New("rate limited")},
		Store:   s,
	})
	stage.userFetcher = func(ctx context.Context, token string) pipeline.ProfileFetcher {
		return &fakeFetcher{err: errors.New("token revoked")}
	}

	res := stage.Run(testContext(nil))
	if !res.Failed() {
		t.Fatalf("Expected failure, got %s", res.Status())
	}
	msg := res.Err().Error()
	if !strings.Contains(msg, "token revoked") || !strings.Contains(msg, "rate limited") {
		t.Errorf("Expected both errors in message, got %q", msg)
	}
}

func TestFetchFailsWithoutClient(t *testing.T) {
	stage := NewFetchGithubProfile(&pipeline.Dependencies{Store: newTestStore(t)})
	res := stage.Run(testContext(nil))
	if !res.Failed() {
		t.Errorf("Expected failure without a client, got %s", res.Status())
	}
}

func TestFetchMetadata(t *testing.T) {
	payload := testPayload()
	payload.Repos = append(payload.Repos, profile.Repo{Name: "third"})
	stage := NewFetchGithubProfile(&pipeline.Dependencies{Fetcher: &fakeFetcher{payload: payload}})

	res := stage.Run(testContext(nil))
	if res.Metadata()["repos"] != 3 {
		t.Errorf("Expected repo count in metadata, got %v", res.Metadata()["repos"])
	}
}
