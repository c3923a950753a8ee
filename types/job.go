package types

import "github.com/google/jsonschema-go/jsonschema"

// Job is a unit of the DAG: a stable identifier, an ordered step list,
// a dependency list, and per-job environment and lifecycle hooks
// (spec §3). Its Status is never stored — it is derived from Steps and
// Lifecycle by the status package.
type Job struct {
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name,omitempty" yaml:"name,omitempty"`
	Steps       []*Step            `json:"steps,omitempty" yaml:"steps,omitempty"`
	Needs       []string           `json:"needs,omitempty" yaml:"needs,omitempty"`
	Environment map[string]string  `json:"environment,omitempty" yaml:"environment,omitempty"`
	Lifecycle   []*LifecycleEvent  `json:"lifecycle,omitempty" yaml:"lifecycle,omitempty"`
	Form        *jsonschema.Schema `json:"form,omitempty" yaml:"form,omitempty"`
}

// LifecycleOn returns the job-scoped lifecycle events for a given phase,
// in declaration order.
func (j *Job) LifecycleOn(phase LifecyclePhase) []*LifecycleEvent {
	var out []*LifecycleEvent
	for _, le := range j.Lifecycle {
		if le.On == phase {
			out = append(out, le)
		}
	}
	return out
}

// StepByID returns the step with the given id, or nil.
func (j *Job) StepByID(id string) *Step {
	for _, s := range j.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}
