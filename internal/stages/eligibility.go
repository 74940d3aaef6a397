package stages

import (
	"fmt"
	"log"
	"time"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/profile"
)

const (
	minAccountAgeDays  = 60
	minActiveRepos     = 3
	minSocialCount     = 3
	minRecentEvents    = 5
	repoActivityWindow = 365 * 24 * time.Hour
)

// ScoreEligibility gates automatic publication: five independent boolean
// signals, each with a human-readable rationale, summed into a 0-5 score
// judged against the configured threshold. Operators need the per-signal
// detail to understand a score, not just the number. The stage degrades
// (never aborts) when no signal source is available.
type ScoreEligibility struct {
	store     pipeline.ProfileStore
	threshold int
}

// NewScoreEligibility creates the eligibility stage.
func NewScoreEligibility(deps *pipeline.Dependencies) *ScoreEligibility {
	threshold := 3
	if deps.Config != nil {
		threshold = deps.Config.Eligibility.Threshold
	}
	return &ScoreEligibility{store: deps.Store, threshold: threshold}
}

// ID returns the stage identifier.
func (s *ScoreEligibility) ID() string { return "score_eligibility" }

// Label returns the human-readable stage name.
func (s *ScoreEligibility) Label() string { return "Score eligibility" }

// Run evaluates the signals and persists the report.
func (s *ScoreEligibility) Run(rc *pipeline.Context) *pipeline.Result {
	if rc.GithubPayload == nil {
		return pipeline.Degraded(nil, map[string]any{"reason": "no GitHub payload; eligibility needs a fetch"})
	}

	report := EvaluateEligibility(rc.GithubPayload, s.threshold, time.Now().UTC())
	rc.Eligibility = report

	if s.store != nil {
		p := rc.Profile
		if p == nil {
			stored, err := s.store.GetProfile(rc.Login)
			if err == nil {
				p = stored
			}
		}
		if p == nil {
			p = &profile.Profile{Login: rc.Login}
		}
		p.Eligibility = report
		if err := s.store.SaveProfile(p); err != nil {
			log.Printf("[score_eligibility] failed to persist report for %s: %v", rc.Login, err)
			return pipeline.Degraded(report, map[string]any{
				"score":  report.Score,
				"reason": "report computed but not persisted: " + err.Error(),
			})
		}
		rc.Profile = p
	}

	return pipeline.Success(report, map[string]any{
		"score":    report.Score,
		"eligible": report.Eligible,
	})
}

// EvaluateEligibility computes the five-signal report at the given instant.
// Pure: exported for direct use by ops tooling and tests.
func EvaluateEligibility(payload *profile.GithubPayload, threshold int, now time.Time) *profile.Eligibility {
	var signals []profile.Signal

	ageDays := 0
	if !payload.CreatedAt.IsZero() {
		ageDays = int(now.Sub(payload.CreatedAt).Hours() / 24)
	}
	signals = append(signals, profile.Signal{
		Name:   "account_age",
		Met:    ageDays >= minAccountAgeDays,
		Detail: fmt.Sprintf("account is %d days old (need >= %d)", ageDays, minAccountAgeDays),
	})

	active := 0
	cutoff := now.Add(-repoActivityWindow)
	for _, r := range payload.Repos {
		if !r.Fork && !r.Archived && r.PushedAt.After(cutoff) {
			active++
		}
	}
	signals = append(signals, profile.Signal{
		Name:   "active_repos",
		Met:    active >= minActiveRepos,
		Detail: fmt.Sprintf("%d owned, non-archived repos pushed within 12 months (need >= %d)", active, minActiveRepos),
	})

	social := payload.Followers
	if payload.Following > social {
		social = payload.Following
	}
	signals = append(signals, profile.Signal{
		Name:   "social_graph",
		Met:    social >= minSocialCount,
		Detail: fmt.Sprintf("%d followers / %d following (need >= %d either way)", payload.Followers, payload.Following, minSocialCount),
	})

	hasPresence := payload.Bio != "" || payload.HasReadme || payload.PinnedRepos > 0
	detail := "no bio, profile README or pinned repos found"
	switch {
	case payload.Bio != "":
		detail = "bio present"
	case payload.HasReadme:
		detail = "profile README present"
	case payload.PinnedRepos > 0:
		detail = fmt.Sprintf("%d pinned repos", payload.PinnedRepos)
	}
	signals = append(signals, profile.Signal{
		Name:   "profile_presence",
		Met:    hasPresence,
		Detail: detail,
	})

	signals = append(signals, profile.Signal{
		Name:   "recent_activity",
		Met:    payload.RecentEvents >= minRecentEvents,
		Detail: fmt.Sprintf("%d recent public events (need >= %d)", payload.RecentEvents, minRecentEvents),
	})

	score := 0
	for _, sig := range signals {
		if sig.Met {
			score++
		}
	}

	return &profile.Eligibility{
		Score:     score,
		Threshold: threshold,
		Eligible:  score >= threshold,
		Signals:   signals,
		ScoredAt:  now,
	}
}
