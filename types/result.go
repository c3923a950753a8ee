package types

// ResultKind names one of the four result-event variants a script
// executor (or the scheduler itself, for step boundaries) can emit,
// per spec §3.
type ResultKind string

const (
	ResultShellOutput      ResultKind = "shellOutput"
	ResultTemplateProgress ResultKind = "templateProgress"
	ResultStepBoundary     ResultKind = "stepBoundary"
	ResultFormRequest      ResultKind = "formRequest"
)

// ResultEvent is the tagged-variant event every executor and the
// scheduler emit into the outer sequence. Every variant carries the
// originating script's id; templateProgress additionally carries the
// written path and completion fraction, and formRequest additionally
// carries the rendezvous id and requested schema.
type ResultEvent struct {
	Kind     ResultKind `json:"kind"`
	ScriptID string     `json:"scriptId"`

	// shellOutput
	Output string `json:"output,omitempty"`

	// templateProgress
	OutputPath string  `json:"outputPath,omitempty"`
	Completed  int     `json:"completed,omitempty"`
	Total      int     `json:"total,omitempty"`
	Fraction   float64 `json:"fraction,omitempty"`

	// formRequest
	RendezvousID string      `json:"rendezvousId,omitempty"`
	Schema       interface{} `json:"schema,omitempty"`
}

// ShellOutput builds a shellOutput result event.
func ShellOutput(scriptID, output string) ResultEvent {
	return ResultEvent{Kind: ResultShellOutput, ScriptID: scriptID, Output: output}
}

// TemplateProgress builds a templateProgress result event.
func TemplateProgress(scriptID, outputPath string, completed, total int) ResultEvent {
	frac := 0.0
	if total > 0 {
		frac = float64(completed) / float64(total)
	}
	return ResultEvent{
		Kind:       ResultTemplateProgress,
		ScriptID:   scriptID,
		OutputPath: outputPath,
		Completed:  completed,
		Total:      total,
		Fraction:   frac,
	}
}

// StepBoundary builds the synthetic stepBoundary event the scheduler
// emits after a script's terminal event.
func StepBoundary(scriptID string) ResultEvent {
	return ResultEvent{Kind: ResultStepBoundary, ScriptID: scriptID}
}

// FormRequest builds a formRequest event.
func FormRequest(scriptID, rendezvousID string, schema interface{}) ResultEvent {
	return ResultEvent{Kind: ResultFormRequest, ScriptID: scriptID, RendezvousID: rendezvousID, Schema: schema}
}
