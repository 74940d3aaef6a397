package pipeline

import (
	"log"

	"github.com/techub/techub/internal/core/profile"
)

// Stage is one named unit of pipeline work. Stages mutate the shared Context
// and report their outcome through a Result; they must be safe to re-run
// given the same context state, because the surrounding job layer retries
// whole runs.
type Stage interface {
	// ID returns the unique stage identifier used in overrides and traces.
	ID() string

	// Label returns the human-readable stage name.
	Label() string

	// Run executes the stage against the shared run context.
	Run(rc *Context) *Result
}

// Outcome is the coarse status persisted after a run.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeFailure        Outcome = "failure"
)

// RunResult is the stable public surface returned to callers, independent of
// which stages ran.
type RunResult struct {
	Status         Outcome                         `json:"status"`
	Login          string                          `json:"login"`
	CardID         string                          `json:"card_id,omitempty"`
	Screenshots    map[string]profile.Capture      `json:"screenshots"`
	Optimizations  map[string]profile.Optimization `json:"optimizations"`
	Scraped        bool                            `json:"scraped"`
	DegradedStages []string                        `json:"degraded_stages,omitempty"`
	FailedStage    string                          `json:"failed_stage,omitempty"`
	ErrorMessage   string                          `json:"error_message,omitempty"`
}

// StatusRecorder persists the terse per-run status marker onto the profile
// record. The orchestrator treats marker persistence as best-effort: a
// recorder error is logged, not surfaced.
type StatusRecorder interface {
	RecordPipelineStatus(login string, status string, errorMessage string) error
}

// StatusFunc records callbacks during a run ("started", "success",
// "degraded", "error", "skipped") for progress UIs.
type StatusFunc func(stageID, status, message string)

// Pipeline walks a fixed, ordered stage list exactly once. Retries belong to
// the caller; the pipeline itself never loops.
type Pipeline struct {
	stages   []Stage
	recorder StatusRecorder
	onStatus StatusFunc
}

// New creates a pipeline over the given stages, in execution order.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// WithRecorder sets the status-marker recorder.
func (p *Pipeline) WithRecorder(r StatusRecorder) *Pipeline {
	p.recorder = r
	return p
}

// WithStatusFunc sets the per-stage progress callback.
func (p *Pipeline) WithStatusFunc(fn StatusFunc) *Pipeline {
	p.onStatus = fn
	return p
}

// Stages returns the declared stage list (for introspection).
func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// EffectiveStages applies the run's only/skip overrides, preserving declared
// order.
func (p *Pipeline) EffectiveStages(o *Overrides) []Stage {
	var out []Stage
	for _, s := range p.stages {
		if o.stageSelected(s.ID()) {
			out = append(out, s)
		}
	}
	return out
}

// Run executes the effective stage list. The first hard failure wins and
// short-circuits; degraded outcomes accumulate and downgrade the final
// status to partial_success.
func (p *Pipeline) Run(rc *Context) *RunResult {
	effective := p.EffectiveStages(rc.Overrides)
	rc.Trace("pipeline", "started", map[string]any{
		"stages":  stageIDs(effective),
		"trigger": rc.Overrides.TriggerSource,
	})

	for _, stage := range effective {
		id := stage.ID()
		p.notify(id, "started", "")
		rc.Trace(id, "started", nil)

		res := stage.Run(rc)
		if len(res.Metadata()) > 0 {
			rc.RecordStageMetadata(id, res.Metadata())
		}

		switch {
		case res.Failed():
			err := res.Err()
			msg := "stage failed"
			if err != nil {
				msg = err.Error()
			}
			log.Printf("[pipeline] stage %s failed for %s: %s", id, rc.Login, msg)
			rc.Trace(id, "failed", map[string]any{"error": msg})
			p.notify(id, "error", msg)
			return p.finish(rc, OutcomeFailure, id, msg)

		case res.IsDegraded():
			rc.MarkDegraded(id)
			rc.Trace(id, "degraded", res.Metadata())
			p.notify(id, "degraded", "")

		default:
			rc.Trace(id, "completed", nil)
			p.notify(id, "success", "")
		}
	}

	if len(rc.DegradedStages) > 0 {
		return p.finish(rc, OutcomePartialSuccess, "", "")
	}
	return p.finish(rc, OutcomeSuccess, "", "")
}

// finish assembles the run result, stamps the context summary and persists
// the status marker.
func (p *Pipeline) finish(rc *Context, status Outcome, failedStage, errMsg string) *RunResult {
	res := &RunResult{
		Status:         status,
		Login:          rc.Login,
		Screenshots:    rc.Captures,
		Optimizations:  rc.Optimizations,
		Scraped:        rc.Scrape != nil,
		DegradedStages: rc.DegradedStages,
		FailedStage:    failedStage,
		ErrorMessage:   errMsg,
	}
	if rc.Card != nil {
		res.CardID = rc.Card.ID
	}

	rc.Outcome = string(status)
	rc.OutcomeMetadata = map[string]any{
		"degraded_stages": rc.DegradedStages,
		"failed_stage":    failedStage,
	}
	rc.Trace("pipeline", "finished", map[string]any{"status": string(status)})

	if p.recorder != nil {
		if err := p.recorder.RecordPipelineStatus(rc.Login, string(status), errMsg); err != nil {
			log.Printf("[pipeline] failed to record status for %s: %v", rc.Login, err)
		}
	}
	return res
}

func (p *Pipeline) notify(stageID, status, message string) {
	if p.onStatus != nil {
		p.onStatus(stageID, status, message)
	}
}

func stageIDs(stages []Stage) []string {
	ids := make([]string, len(stages))
	for i, s := range stages {
		ids[i] = s.ID()
	}
	return ids
}
