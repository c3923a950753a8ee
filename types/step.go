package types

import (
	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

// Step is a single script invocation within a job, with optional
// step-scoped lifecycle hooks that run just before and after it (spec §3).
type Step struct {
	ID     string             `json:"id" yaml:"id"`
	Name   string             `json:"name,omitempty" yaml:"name,omitempty"`
	Form   *jsonschema.Schema `json:"form,omitempty" yaml:"form,omitempty"`
	If     string             `json:"if,omitempty" yaml:"if,omitempty"`
	Script Script             `json:"script" yaml:"script"`

	Lifecycle []*LifecycleEvent `json:"lifecycle,omitempty" yaml:"lifecycle,omitempty"`

	Results []ResultEvent `json:"results,omitempty" yaml:"-"`
	Status  RunningStatus `json:"status" yaml:"-"`
}

// NewStep builds a step in its initial notStarted state.
func NewStep(id string, script Script) *Step {
	return &Step{ID: id, Script: script, Status: NotStarted()}
}

// stepDocument is the flat record shape spec §6 documents: a step's own
// id doubles as its script's id, and the script's kind-specific fields
// (command/file/files) sit directly on the step rather than under a
// nested `script` key.
type stepDocument struct {
	ID        string             `yaml:"id"`
	Name      string             `yaml:"name,omitempty"`
	Form      *jsonschema.Schema `yaml:"form,omitempty"`
	If        string             `yaml:"if,omitempty"`
	Type      ScriptKind         `yaml:"type"`
	Command   string             `yaml:"command,omitempty"`
	File      string             `yaml:"file,omitempty"`
	Files     []TemplateFile     `yaml:"files,omitempty"`
	Lifecycle []*LifecycleEvent  `yaml:"lifecycle,omitempty"`
}

// UnmarshalYAML decodes a step from its flat declarative-document form.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var doc stepDocument
	if err := node.Decode(&doc); err != nil {
		return err
	}
	s.ID = doc.ID
	s.Name = doc.Name
	s.Form = doc.Form
	s.If = doc.If
	s.Script = Script{ID: doc.ID, Kind: doc.Type, Command: doc.Command, File: doc.File, Files: doc.Files}
	s.Lifecycle = doc.Lifecycle
	s.Status = NotStarted()
	return nil
}

// MarshalYAML encodes a step back to its flat declarative-document form.
func (s Step) MarshalYAML() (interface{}, error) {
	return stepDocument{
		ID:        s.ID,
		Name:      s.Name,
		Form:      s.Form,
		If:        s.If,
		Type:      s.Script.Kind,
		Command:   s.Script.Command,
		File:      s.Script.File,
		Files:     s.Script.Files,
		Lifecycle: s.Lifecycle,
	}, nil
}

// AppendResult appends a result event to the step's own script log.
func (s *Step) AppendResult(e ResultEvent) {
	s.Results = append(s.Results, e)
}

// LifecycleOn returns the step-scoped lifecycle events for a given
// phase, in declaration order.
func (s *Step) LifecycleOn(phase LifecyclePhase) []*LifecycleEvent {
	var out []*LifecycleEvent
	for _, le := range s.Lifecycle {
		if le.On == phase {
			out = append(out, le)
		}
	}
	return out
}
