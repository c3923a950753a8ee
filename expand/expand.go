// Package expand flattens a job into the ordered script sequence the
// scheduler runs, per spec §4.2: the beforeJob hook, then for each step
// its beforeStep hooks, its main script, and its afterStep hooks, then
// the afterJob hook.
package expand

import "github.com/wfgraph/engine/types"

// OwnerKind names which slot on the job a script's results route back
// to, mirroring the aggregator's search order (spec §4.6).
type OwnerKind string

const (
	OwnerJobLifecycle  OwnerKind = "jobLifecycle"
	OwnerStepMain      OwnerKind = "stepMain"
	OwnerStepLifecycle OwnerKind = "stepLifecycle"
)

// Owner identifies the step and/or lifecycle event a unit's results
// belong to.
type Owner struct {
	Kind        OwnerKind
	StepID      string
	LifecycleID string
}

// Unit is one script in the expanded sequence together with the slot
// its results route back to.
type Unit struct {
	Script types.Script
	Owner  Owner
}

// Job flattens job into its ordered script sequence. Every
// lifecycle-derived script is cloned so its id equals its owning
// lifecycle event's id (spec §3, §9) — this is what makes the
// aggregator's scriptId-based routing unambiguous. The function is
// pure: called again on the same job, it produces an identical
// sequence (spec §8 invariant 7).
func Job(job *types.Job) []Unit {
	var units []Unit

	for _, le := range job.LifecycleOn(types.OnBeforeJob) {
		units = append(units, Unit{
			Script: le.Script.Clone(le.ID),
			Owner:  Owner{Kind: OwnerJobLifecycle, LifecycleID: le.ID},
		})
	}

	for _, step := range job.Steps {
		for _, le := range step.LifecycleOn(types.OnBeforeStep) {
			units = append(units, Unit{
				Script: le.Script.Clone(le.ID),
				Owner:  Owner{Kind: OwnerStepLifecycle, StepID: step.ID, LifecycleID: le.ID},
			})
		}

		units = append(units, Unit{
			Script: step.Script,
			Owner:  Owner{Kind: OwnerStepMain, StepID: step.ID},
		})

		for _, le := range step.LifecycleOn(types.OnAfterStep) {
			units = append(units, Unit{
				Script: le.Script.Clone(le.ID),
				Owner:  Owner{Kind: OwnerStepLifecycle, StepID: step.ID, LifecycleID: le.ID},
			})
		}
	}

	for _, le := range job.LifecycleOn(types.OnAfterJob) {
		units = append(units, Unit{
			Script: le.Script.Clone(le.ID),
			Owner:  Owner{Kind: OwnerJobLifecycle, LifecycleID: le.ID},
		})
	}

	return units
}
