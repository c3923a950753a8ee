package status

import (
	"time"

	"github.com/wfgraph/engine/types"
)

// Aggregate derives a status from the multiset of its children's
// statuses, per §4.7's precedence rules: any child running dominates;
// else any failure; else all success; else all skipped; else all
// notStarted/skipped collapses to notStarted; otherwise unknown. An
// empty multiset is notStarted.
func Aggregate(children []types.RunningStatus) types.RunningStatus {
	if len(children) == 0 {
		return types.NotStarted()
	}

	var running, failures []types.RunningStatus
	allSuccess, allSkipped, allNotStartedOrSkipped := true, true, true

	for _, c := range children {
		switch c.Phase {
		case types.PhaseRunning:
			running = append(running, c)
		case types.PhaseFailure:
			failures = append(failures, c)
		}
		if c.Phase != types.PhaseSuccess {
			allSuccess = false
		}
		if c.Phase != types.PhaseSkipped {
			allSkipped = false
		}
		if c.Phase != types.PhaseNotStarted && c.Phase != types.PhaseSkipped {
			allNotStartedOrSkipped = false
		}
	}

	switch {
	case len(running) > 0:
		return aggregateRunning(running)
	case len(failures) > 0:
		return aggregateFailure(failures)
	case allSuccess:
		return aggregateSuccess(children)
	case allSkipped:
		return types.Skipped()
	case allNotStartedOrSkipped:
		return types.NotStarted()
	default:
		return types.RunningStatus{Phase: types.PhaseUnknown}
	}
}

// JobStatus derives a job's status from its steps and job-scoped
// lifecycle events (spec §4.7). A job with neither is notStarted.
func JobStatus(job *types.Job) types.RunningStatus {
	var children []types.RunningStatus
	for _, s := range job.Steps {
		children = append(children, s.Status)
	}
	for _, le := range job.Lifecycle {
		children = append(children, le.Status)
	}
	return Aggregate(children)
}

// WorkflowStatus derives the workflow's status from its jobs' derived
// statuses (spec §4.7). An empty job list is notStarted.
func WorkflowStatus(jobs []*types.Job) types.RunningStatus {
	children := make([]types.RunningStatus, len(jobs))
	for i, j := range jobs {
		children[i] = JobStatus(j)
	}
	return Aggregate(children)
}

func aggregateRunning(running []types.RunningStatus) types.RunningStatus {
	var sum float64
	var count int
	for _, r := range running {
		if r.Percentage != nil {
			sum += *r.Percentage
			count++
		}
	}
	var pct *float64
	if count > 0 {
		avg := sum / float64(count)
		pct = &avg
	}
	return types.RunningStatus{
		Phase:      types.PhaseRunning,
		Percentage: pct,
		StartedAt:  minStarted(running),
		UpdatedAt:  maxUpdated(running),
	}
}

func aggregateFailure(failures []types.RunningStatus) types.RunningStatus {
	finished := maxFinished(failures)
	return types.RunningStatus{
		Phase:      types.PhaseFailure,
		StartedAt:  minStarted(failures),
		UpdatedAt:  finished,
		FinishedAt: finished,
	}
}

func aggregateSuccess(children []types.RunningStatus) types.RunningStatus {
	finished := maxFinished(children)
	return types.RunningStatus{
		Phase:      types.PhaseSuccess,
		StartedAt:  minStarted(children),
		UpdatedAt:  finished,
		FinishedAt: finished,
	}
}

func minStarted(statuses []types.RunningStatus) *time.Time {
	var min *time.Time
	for _, s := range statuses {
		if s.StartedAt == nil {
			continue
		}
		if min == nil || s.StartedAt.Before(*min) {
			min = s.StartedAt
		}
	}
	return min
}

func maxUpdated(statuses []types.RunningStatus) *time.Time {
	var max *time.Time
	for _, s := range statuses {
		if s.UpdatedAt == nil {
			continue
		}
		if max == nil || s.UpdatedAt.After(*max) {
			max = s.UpdatedAt
		}
	}
	return max
}

func maxFinished(statuses []types.RunningStatus) *time.Time {
	var max *time.Time
	for _, s := range statuses {
		if s.FinishedAt == nil {
			continue
		}
		if max == nil || s.FinishedAt.After(*max) {
			max = s.FinishedAt
		}
	}
	return max
}
