// Package workflow implements the multi-step client operations: document
// upload, AI action runs, and admin user management. Each workflow moves
// through explicit states so callers can render progress and failures.
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunID identifies a single workflow execution.
type RunID string

// NewRunID returns a fresh run identifier.
func NewRunID() RunID {
	return RunID(uuid.New().String())
}

// Status is the lifecycle state of a workflow run.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusValidating Status = "validating"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Run records one workflow execution: its state, timing, and outcome
// message. Failed runs keep the error; a new run replaces the previous
// one entirely.
type Run struct {
	ID        RunID
	Status    Status
	Message   string
	Err       error
	StartedAt time.Time
	EndedAt   *time.Time
}

func newRun() *Run {
	return &Run{ID: NewRunID(), Status: StatusValidating, StartedAt: time.Now()}
}

func (r *Run) succeed(message string) {
	now := time.Now()
	r.Status = StatusSucceeded
	r.Message = message
	r.EndedAt = &now
}

func (r *Run) fail(err error) {
	now := time.Now()
	r.Status = StatusFailed
	r.Err = err
	r.Message = err.Error()
	r.EndedAt = &now
}

// RefreshHooks are the view refreshes a workflow triggers after a
// mutating operation succeeds. Nil hooks are skipped. Refresh failures
// are the hook's own concern; the workflow outcome is already decided.
type RefreshHooks struct {
	Documents func(ctx context.Context)
	Folders   func(ctx context.Context)
	Usage     func(ctx context.Context)
}

func (h RefreshHooks) run(ctx context.Context) {
	for _, hook := range []func(context.Context){h.Documents, h.Folders, h.Usage} {
		if hook != nil {
			hook(ctx)
		}
	}
}
