// Package verifier dumps numbered before/after context snapshots around
// every stage of a run, plus a final run report. Dev tooling for diffing
// what each stage actually changed; never used in production runs.
package verifier

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/techub/techub/internal/core/pipeline"
)

// Verifier writes snapshot files into a run-scoped output directory.
type Verifier struct {
	dir string
	seq int
}

// New creates a verifier writing into dir, creating it if needed.
func New(dir string) (*Verifier, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	return &Verifier{dir: dir}, nil
}

// Dir returns the snapshot output directory.
func (v *Verifier) Dir() string { return v.dir }

// Wrap returns the stage list with each stage wrapped to snapshot the
// context before and after it runs.
func (v *Verifier) Wrap(stages []pipeline.Stage) []pipeline.Stage {
	out := make([]pipeline.Stage, len(stages))
	for i, s := range stages {
		out[i] = &snapshottingStage{inner: s, verifier: v}
	}
	return out
}

// WriteReport writes the final run report: the public result, the outcome
// summary and the full trace log.
func (v *Verifier) WriteReport(rc *pipeline.Context, res *pipeline.RunResult) error {
	report := map[string]any{
		"result":    res,
		"outcome":   rc.Outcome,
		"trace_log": rc.TraceLog(),
		"snapshot":  rc.Snapshot(),
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	path := filepath.Join(v.dir, "run_report.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}

// write dumps one snapshot file. Snapshots are diagnostics: a write failure
// is logged, never propagated into the run.
func (v *Verifier) write(stageID, phase string, snap map[string]any) {
	v.seq++
	name := fmt.Sprintf("%03d_%s_%s.json", v.seq, stageID, phase)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Printf("[verifier] failed to marshal snapshot %s: %v", name, err)
		return
	}
	if err := os.WriteFile(filepath.Join(v.dir, name), data, 0o644); err != nil {
		log.Printf("[verifier] failed to write snapshot %s: %v", name, err)
	}
}

type snapshottingStage struct {
	inner    pipeline.Stage
	verifier *Verifier
}

func (s *snapshottingStage) ID() string    { return s.inner.ID() }
func (s *snapshottingStage) Label() string { return s.inner.Label() }

func (s *snapshottingStage) Run(rc *pipeline.Context) *pipeline.Result {
	s.verifier.write(s.inner.ID(), "before", rc.Snapshot())
	res := s.inner.Run(rc)
	s.verifier.write(s.inner.ID(), "after", rc.Snapshot())
	return res
}
