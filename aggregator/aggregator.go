// Package aggregator implements the Result Aggregator of spec §4.6: it
// routes each result event emitted by the executor back to the slot on
// the job that owns it — a job-scoped lifecycle event, a step's own
// script, or one of that step's step-scoped lifecycle events — appends
// it to that slot's result log, and advances the slot's status via the
// status package's transition table.
package aggregator

import (
	"time"

	"github.com/wfgraph/engine/status"
	"github.com/wfgraph/engine/types"
)

// Apply routes event to its owning slot within job, searched in the
// order job-scoped lifecycle events, each step's own script, then each
// step's step-scoped lifecycle events (spec §4.6). It reports whether a
// matching slot was found; a false result means scriptId does not
// belong to job and the caller made a routing mistake.
func Apply(job *types.Job, event types.ResultEvent, now time.Time) bool {
	for _, le := range job.Lifecycle {
		if le.ID == event.ScriptID {
			applyToLifecycle(le, event, now)
			return true
		}
	}
	for _, step := range job.Steps {
		if step.Script.ID == event.ScriptID {
			applyToStep(step, event, now)
			return true
		}
		for _, le := range step.Lifecycle {
			if le.ID == event.ScriptID {
				applyToLifecycle(le, event, now)
				return true
			}
		}
	}
	return false
}

// Start marks the slot owning scriptID as running with startedAt=now,
// before its executor is invoked. Without this, a script that never
// emits a result event ahead of its terminal stepBoundary (a silent
// command, a script with no output) would sit at notStarted in every
// streamed snapshot and jump straight to success, losing its real
// start time (spec §4.4).
func Start(job *types.Job, scriptID string, now time.Time) bool {
	for _, le := range job.Lifecycle {
		if le.ID == scriptID {
			le.Status = types.Running(nil, now, now)
			return true
		}
	}
	for _, step := range job.Steps {
		if step.Script.ID == scriptID {
			step.Status = types.Running(nil, now, now)
			return true
		}
		for _, le := range step.Lifecycle {
			if le.ID == scriptID {
				le.Status = types.Running(nil, now, now)
				return true
			}
		}
	}
	return false
}

// Fail marks the slot owning scriptID as failed without appending a
// result event — an executor failure is reported out-of-band as an
// error, never as a result on the log (spec §4.3, §4.7).
func Fail(job *types.Job, scriptID string, now time.Time) bool {
	for _, le := range job.Lifecycle {
		if le.ID == scriptID {
			le.Status = status.TransitionFailure(le.Status, now)
			return true
		}
	}
	for _, step := range job.Steps {
		if step.Script.ID == scriptID {
			step.Status = status.TransitionFailure(step.Status, now)
			return true
		}
		for _, le := range step.Lifecycle {
			if le.ID == scriptID {
				le.Status = status.TransitionFailure(le.Status, now)
				return true
			}
		}
	}
	return false
}

func applyToStep(step *types.Step, event types.ResultEvent, now time.Time) {
	step.AppendResult(event)
	step.Status = status.Transition(step.Status, event, now)
}

func applyToLifecycle(le *types.LifecycleEvent, event types.ResultEvent, now time.Time) {
	le.AppendResult(event)
	le.Status = status.Transition(le.Status, event, now)
}
