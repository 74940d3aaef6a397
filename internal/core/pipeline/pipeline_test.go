package pipeline

import (
	"context"
	"errors"
	"testing"
)

// fakeStage is a scripted stage for orchestrator tests.
type fakeStage struct {
	id     string
	result *Result
	onRun  func(rc *Context)
	runs   *[]string
}

func (f *fakeStage) ID() string    { return f.id }
func (f *fakeStage) Label() string { return f.id }

func (f *fakeStage) Run(rc *Context) *Result {
	if f.runs != nil {
		*f.runs = append(*f.runs, f.id)
	}
	if f.onRun != nil {
		f.onRun(rc)
	}
	if f.result != nil {
		return f.result
	}
	return Success(nil, nil)
}

// fakeRecorder captures the persisted status marker.
type fakeRecorder struct {
	login  string
	status string
	errMsg string
	err    error
}

func (r *fakeRecorder) RecordPipelineStatus(login, status, errorMessage string) error {
	r.login = login
	r.status = status
	r.errMsg = errorMessage
	return r.err
}

func newRunContext(o *Overrides) *Context {
	return NewContext(context.Background(), "octocat", o)
}

func TestRunExecutesInOrder(t *testing.T) {
	var runs []string
	p := New(
		&fakeStage{id: "a", runs: &runs},
		&fakeStage{id: "b", runs: &runs},
		&fakeStage{id: "c", runs: &runs},
	)

	res := p.Run(newRunContext(nil))
	if res.Status != OutcomeSuccess {
		t.Fatalf("Expected success, got %s", res.Status)
	}
	if len(runs) != 3 || runs[0] != "a" || runs[1] != "b" || runs[2] != "c" {
		t.Errorf("Stages ran out of order: %v", runs)
	}
}

func TestRunFailFast(t *testing.T) {
	var runs []string
	p := New(
		&fakeStage{id: "a", runs: &runs},
		&fakeStage{id: "b", runs: &runs, result: Failure(errors.New("fetch exploded"), nil)},
		&fakeStage{id: "c", runs: &runs},
	)

	res := p.Run(newRunContext(nil))
	if res.Status != OutcomeFailure {
		t.Fatalf("Expected failure, got %s", res.Status)
	}
	if res.FailedStage != "b" {
		t.Errorf("Expected failed stage 'b', got %q", res.FailedStage)
	}
	if res.ErrorMessage != "fetch exploded" {
		t.Errorf("Expected error message, got %q", res.ErrorMessage)
	}
	if len(runs) != 2 {
		t.Errorf("Stage c must not run after a hard failure, got %v", runs)
	}
}

func TestRunDegradeAndContinue(t *testing.T) {
	var runs []string
	p := New(
		&fakeStage{id: "a", runs: &runs},
		&fakeStage{id: "b", runs: &runs, result: Degraded(nil, map[string]any{"reason": "no avatar"})},
		&fakeStage{id: "c", runs: &runs},
	)

	res := p.Run(newRunContext(nil))
	if res.Status != OutcomePartialSuccess {
		t.Fatalf("Expected partial_success, got %s", res.Status)
	}
	if len(runs) != 3 {
		t.Errorf("All stages should run past a degraded one, got %v", runs)
	}
	if len(res.DegradedStages) != 1 || res.DegradedStages[0] != "b" {
		t.Errorf("Expected degraded stage 'b', got %v", res.DegradedStages)
	}
}

func TestRunOnlyStagesKeepDeclaredOrder(t *testing.T) {
	var runs []string
	p := New(
		&fakeStage{id: "a", runs: &runs},
		&fakeStage{id: "b", runs: &runs},
		&fakeStage{id: "c", runs: &runs},
	)

	// Override order is c-then-a; execution must stay a-then-c.
	rc := newRunContext(&Overrides{OnlyStages: []string{"c", "a"}})
	res := p.Run(rc)

	if res.Status != OutcomeSuccess {
		t.Fatalf("Expected success, got %s", res.Status)
	}
	if len(runs) != 2 || runs[0] != "a" || runs[1] != "c" {
		t.Errorf("Expected declared order [a c], got %v", runs)
	}
}

func TestRunSkipStages(t *testing.T) {
	var runs []string
	p := New(
		&fakeStage{id: "a", runs: &runs},
		&fakeStage{id: "b", runs: &runs},
		&fakeStage{id: "c", runs: &runs},
	)

	rc := newRunContext(&Overrides{OnlyStages: []string{"a", "b"}, SkipStages: []string{"b"}})
	p.Run(rc)

	if len(runs) != 1 || runs[0] != "a" {
		t.Errorf("Skip must apply after only, got %v", runs)
	}
}

func TestRunRecordsStatusMarker(t *testing.T) {
	rec := &fakeRecorder{}
	p := New(&fakeStage{id: "a"}).WithRecorder(rec)

	p.Run(newRunContext(nil))
	if rec.login != "octocat" || rec.status != "success" {
		t.Errorf("Expected success marker for octocat, got %s/%s", rec.login, rec.status)
	}

	p = New(&fakeStage{id: "a", result: Failure(errors.New("boom"), nil)}).WithRecorder(rec)
	p.Run(newRunContext(nil))
	if rec.status != "failure" || rec.errMsg != "boom" {
		t.Errorf("Expected failure marker with message, got %s/%s", rec.status, rec.errMsg)
	}
}

func TestRunSurvivesRecorderError(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	p := New(&fakeStage{id: "a"}).WithRecorder(rec)

	res := p.Run(newRunContext(nil))
	if res.Status != OutcomeSuccess {
		t.Errorf("Recorder errors are best-effort, got %s", res.Status)
	}
}

func TestRunStampsContext(t *testing.T) {
	p := New(&fakeStage{id: "a", result: Degraded(nil, nil)})
	rc := newRunContext(nil)
	p.Run(rc)

	if rc.Outcome != string(OutcomePartialSuccess) {
		t.Errorf("Expected outcome stamped on context, got %q", rc.Outcome)
	}
	log := rc.TraceLog()
	if len(log) < 3 {
		t.Fatalf("Expected pipeline start/stage/finish entries, got %d", len(log))
	}
	last := log[len(log)-1]
	if last.Stage != "pipeline" || last.Event != "finished" {
		t.Errorf("Expected final trace entry pipeline/finished, got %s/%s", last.Stage, last.Event)
	}
}

func TestRunRecordsStageMetadata(t *testing.T) {
	p := New(&fakeStage{id: "a", result: Success(nil, map[string]any{"count": 2})})
	rc := newRunContext(nil)
	p.Run(rc)

	md := rc.StageMetadata("a")
	if md == nil || md["count"] != float64(2) {
		t.Errorf("Expected stage metadata recorded, got %v", md)
	}
}

func TestStatusCallbacks(t *testing.T) {
	var events []string
	p := New(
		&fakeStage{id: "a"},
		&fakeStage{id: "b", result: Degraded(nil, nil)},
	).WithStatusFunc(func(stageID, status, message string) {
		events = append(events, stageID+":"+status)
	})

	p.Run(newRunContext(nil))

	want := []string{"a:started", "a:success", "b:started", "b:degraded"}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}
