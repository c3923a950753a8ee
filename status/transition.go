// Package status implements the Status Calculator of spec §4.7: the
// per-event transition table for a step or lifecycle event's own
// stored status, and the precedence rules that derive a job's status
// from its parts and a workflow's status from its jobs.
package status

import (
	"time"

	"github.com/wfgraph/engine/types"
)

// Transition applies §4.7's step/lifecycle status transition table for
// a successfully-received event, given the slot's current status and
// the time the event arrived. startedAt is fixed at the first
// transition out of notStarted and carried forward afterward.
func Transition(current types.RunningStatus, event types.ResultEvent, now time.Time) types.RunningStatus {
	startedAt := current.StartedAt
	if startedAt == nil {
		t := now
		startedAt = &t
	}

	switch event.Kind {
	case types.ResultShellOutput, types.ResultFormRequest:
		return types.RunningStatus{Phase: types.PhaseRunning, StartedAt: startedAt, UpdatedAt: &now}
	case types.ResultTemplateProgress:
		pct := event.Fraction
		return types.RunningStatus{Phase: types.PhaseRunning, Percentage: &pct, StartedAt: startedAt, UpdatedAt: &now}
	case types.ResultStepBoundary:
		return types.RunningStatus{Phase: types.PhaseSuccess, StartedAt: startedAt, UpdatedAt: &now, FinishedAt: &now}
	default:
		return current
	}
}

// TransitionFailure applies the "executor failure" row of §4.7's table.
func TransitionFailure(current types.RunningStatus, now time.Time) types.RunningStatus {
	startedAt := current.StartedAt
	if startedAt == nil {
		startedAt = &now
	}
	return types.RunningStatus{Phase: types.PhaseFailure, StartedAt: startedAt, UpdatedAt: &now, FinishedAt: &now}
}
