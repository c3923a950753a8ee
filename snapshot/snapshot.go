// Package snapshot implements the Snapshot Projector of spec §4.6:
// after each scheduler event, the live mutable graph is copied into an
// immutable, workflow-shaped view. Root's steps surface as workflow-level
// setup events, tail's as teardown events; every other node surfaces as
// a job. Callers never receive a pointer into the live graph, mirroring
// the "return a copy, never the live state" discipline the teacher's
// storage layer used for persisted workflows/instances.
package snapshot

import (
	"github.com/wfgraph/engine/dag"
	"github.com/wfgraph/engine/status"
	"github.com/wfgraph/engine/types"
)

// LifecycleSnapshot is an immutable copy of one lifecycle event's
// observable state.
type LifecycleSnapshot struct {
	ID      string
	On      types.LifecyclePhase
	Status  types.RunningStatus
	Results []types.ResultEvent
}

// StepSnapshot is an immutable copy of one step's observable state.
type StepSnapshot struct {
	ID        string
	Name      string
	If        string
	Status    types.RunningStatus
	Results   []types.ResultEvent
	Lifecycle []LifecycleSnapshot
}

// JobSnapshot is an immutable copy of one job's observable state, with
// its status derived rather than stored (spec §3, §4.7).
type JobSnapshot struct {
	ID        string
	Name      string
	Needs     []string
	Status    types.RunningStatus
	Steps     []StepSnapshot
	Lifecycle []LifecycleSnapshot
}

// Snapshot is the whole-workflow view delivered alongside every result
// event from execute() (spec §6).
type Snapshot struct {
	Status   types.RunningStatus
	Setup    []LifecycleSnapshot
	Teardown []LifecycleSnapshot
	Jobs     []JobSnapshot
}

// Project copies g into an immutable Snapshot.
func Project(g *dag.Graph) *Snapshot {
	jobNodes := g.JobNodes()
	jobs := make([]*types.Job, len(jobNodes))
	for i, n := range jobNodes {
		jobs[i] = n.Job
	}

	snap := &Snapshot{
		Status:   status.WorkflowStatus(jobs),
		Setup:    projectPromotedSteps(g.Root.Job.Steps, types.OnSetup),
		Teardown: projectPromotedSteps(g.Tail.Job.Steps, types.OnTeardown),
		Jobs:     make([]JobSnapshot, len(jobNodes)),
	}
	for i, n := range jobNodes {
		snap.Jobs[i] = projectJob(n.Job)
	}
	return snap
}

// projectPromotedSteps turns root/tail's promoted steps back into the
// workflow-level lifecycle events they started life as (spec §4.6).
func projectPromotedSteps(steps []*types.Step, on types.LifecyclePhase) []LifecycleSnapshot {
	out := make([]LifecycleSnapshot, len(steps))
	for i, s := range steps {
		out[i] = LifecycleSnapshot{
			ID:      s.ID,
			On:      on,
			Status:  s.Status,
			Results: copyResults(s.Results),
		}
	}
	return out
}

func projectJob(job *types.Job) JobSnapshot {
	steps := make([]StepSnapshot, len(job.Steps))
	for i, s := range job.Steps {
		steps[i] = projectStep(s)
	}
	lifecycle := make([]LifecycleSnapshot, len(job.Lifecycle))
	for i, le := range job.Lifecycle {
		lifecycle[i] = projectLifecycle(le)
	}
	return JobSnapshot{
		ID:        job.ID,
		Name:      job.Name,
		Needs:     append([]string(nil), job.Needs...),
		Status:    status.JobStatus(job),
		Steps:     steps,
		Lifecycle: lifecycle,
	}
}

func projectStep(s *types.Step) StepSnapshot {
	lifecycle := make([]LifecycleSnapshot, len(s.Lifecycle))
	for i, le := range s.Lifecycle {
		lifecycle[i] = projectLifecycle(le)
	}
	return StepSnapshot{
		ID:        s.ID,
		Name:      s.Name,
		If:        s.If,
		Status:    s.Status,
		Results:   copyResults(s.Results),
		Lifecycle: lifecycle,
	}
}

func projectLifecycle(le *types.LifecycleEvent) LifecycleSnapshot {
	return LifecycleSnapshot{
		ID:      le.ID,
		On:      le.On,
		Status:  le.Status,
		Results: copyResults(le.Results),
	}
}

func copyResults(results []types.ResultEvent) []types.ResultEvent {
	return append([]types.ResultEvent(nil), results...)
}
