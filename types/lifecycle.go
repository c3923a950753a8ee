package types

import "gopkg.in/yaml.v3"

// LifecyclePhase names the point in a workflow/job/step's life a
// lifecycle event fires at, in the total order given by spec §3.
type LifecyclePhase string

const (
	OnSetup      LifecyclePhase = "setup"
	OnBeforeJob  LifecyclePhase = "beforeJob"
	OnBeforeStep LifecyclePhase = "beforeStep"
	OnAfterStep  LifecyclePhase = "afterStep"
	OnAfterJob   LifecyclePhase = "afterJob"
	OnTeardown   LifecyclePhase = "teardown"
)

// lifecyclePhaseOrder gives the total order over phases spec §3 defines;
// used only for validation and for deterministic listing, never to
// decide scheduling (the expander already produces the right order).
var lifecyclePhaseOrder = map[LifecyclePhase]int{
	OnSetup:      0,
	OnBeforeJob:  1,
	OnBeforeStep: 2,
	OnAfterStep:  3,
	OnAfterJob:   4,
	OnTeardown:   5,
}

// PhaseRank returns the total-order rank of a lifecycle phase, or -1 if
// unrecognized.
func PhaseRank(p LifecyclePhase) int {
	if r, ok := lifecyclePhaseOrder[p]; ok {
		return r
	}
	return -1
}

// LifecycleEvent is a hook script bound to one of the six phases, with
// its own append-only result log and running status (spec §3).
type LifecycleEvent struct {
	ID     string         `json:"id" yaml:"id"`
	On     LifecyclePhase `json:"on" yaml:"on"`
	Script Script         `json:"script" yaml:"script"`

	Results []ResultEvent `json:"results,omitempty" yaml:"-"`
	Status  RunningStatus `json:"status" yaml:"-"`
}

// NewLifecycleEvent builds a lifecycle event in its initial notStarted
// state.
func NewLifecycleEvent(id string, on LifecyclePhase, script Script) *LifecycleEvent {
	return &LifecycleEvent{ID: id, On: on, Script: script, Status: NotStarted()}
}

// AppendResult appends a result event to the lifecycle event's log.
// Append-only, per spec §3's lifecycle invariant.
func (le *LifecycleEvent) AppendResult(e ResultEvent) {
	le.Results = append(le.Results, e)
}

// lifecycleDocument is the flat record shape spec §6 documents: a
// lifecycle event's own id doubles as its script's id, and the script's
// kind-specific fields sit directly on the event rather than under a
// nested `script` key.
type lifecycleDocument struct {
	ID      string         `yaml:"id"`
	On      LifecyclePhase `yaml:"on"`
	Type    ScriptKind     `yaml:"type"`
	Command string         `yaml:"command,omitempty"`
	File    string         `yaml:"file,omitempty"`
	Files   []TemplateFile `yaml:"files,omitempty"`
}

// UnmarshalYAML decodes a lifecycle event from its flat
// declarative-document form.
func (le *LifecycleEvent) UnmarshalYAML(node *yaml.Node) error {
	var doc lifecycleDocument
	if err := node.Decode(&doc); err != nil {
		return err
	}
	le.ID = doc.ID
	le.On = doc.On
	le.Script = Script{ID: doc.ID, Kind: doc.Type, Command: doc.Command, File: doc.File, Files: doc.Files}
	le.Status = NotStarted()
	return nil
}

// MarshalYAML encodes a lifecycle event back to its flat
// declarative-document form.
func (le LifecycleEvent) MarshalYAML() (interface{}, error) {
	return lifecycleDocument{
		ID:      le.ID,
		On:      le.On,
		Type:    le.Script.Kind,
		Command: le.Script.Command,
		File:    le.Script.File,
		Files:   le.Script.Files,
	}, nil
}
