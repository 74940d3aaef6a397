// Package pipeline provides the core engine for the profile-generation
// pipeline: the Stage interface, the per-run Context, the tri-state stage
// Result and the orchestrator that walks the stage list.
package pipeline

import "fmt"

// Status is the outcome class of a stage run.
type Status string

const (
	// StatusOK is a full success.
	StatusOK Status = "ok"
	// StatusDegraded is a success with a known partial shortfall (e.g. the
	// avatar could not be downloaded but the rest of the stage's work held).
	StatusDegraded Status = "degraded"
	// StatusFailed aborts the remaining pipeline.
	StatusFailed Status = "failed"
)

// Result is the outcome of one stage invocation. Degraded implies success:
// the pipeline continues past a degraded stage and only the final run status
// is downgraded to partial_success.
type Result struct {
	status   Status
	value    any
	err      error
	metadata map[string]any
}

// Success returns an ok result carrying value.
func Success(value any, metadata map[string]any) *Result {
	return &Result{status: StatusOK, value: value, metadata: cloneMeta(metadata)}
}

// Degraded returns a degraded-success result carrying value.
func Degraded(value any, metadata map[string]any) *Result {
	return &Result{status: StatusDegraded, value: value, metadata: cloneMeta(metadata)}
}

// Failure returns a failed result carrying err. Callers are expected to pass
// a non-nil error; the type does not enforce it.
func Failure(err error, metadata map[string]any) *Result {
	return &Result{status: StatusFailed, err: err, metadata: cloneMeta(metadata)}
}

// Status returns the outcome class.
func (r *Result) Status() Status { return r.status }

// OK reports whether the stage succeeded, fully or degraded.
func (r *Result) OK() bool { return r.status != StatusFailed }

// Failed reports whether the stage hard-failed.
func (r *Result) Failed() bool { return r.status == StatusFailed }

// IsDegraded reports whether the stage succeeded with a shortfall.
func (r *Result) IsDegraded() bool { return r.status == StatusDegraded }

// Value returns the raw payload, nil for failures.
func (r *Result) Value() any { return r.value }

// Err returns the raw error, nil unless failed.
func (r *Result) Err() error { return r.err }

// Metadata returns the metadata bag. Never nil.
func (r *Result) Metadata() map[string]any { return r.metadata }

// MustValue returns the payload and panics on a failed result. It exists to
// catch programmer error early, not for normal control flow.
func (r *Result) MustValue() any {
	if r.Failed() {
		panic(fmt.Sprintf("pipeline: MustValue called on failed result: %v", r.err))
	}
	return r.value
}

// MustErr returns the error and panics unless the result is failed.
func (r *Result) MustErr() error {
	if !r.Failed() {
		panic("pipeline: MustErr called on non-failed result")
	}
	return r.err
}

// WithMetadata returns a new result with extra merged in. Existing keys are
// kept; only new keys are added. Status, value and error are unchanged.
func (r *Result) WithMetadata(extra map[string]any) *Result {
	merged := cloneMeta(r.metadata)
	for k, v := range extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return &Result{status: r.status, value: r.value, err: r.err, metadata: merged}
}

// cloneMeta shallow-copies m, mapping nil to an empty map so callers never
// need a nil check before indexing.
func cloneMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
