// Package trace reconstructs a structured reasoning trace from the raw,
// incrementally growing transcript of an assistant turn.
//
// The transcript is produced token-by-token by the agent backend as
// interleaved Thought / Action / Observation / Final Answer segments, often
// decorated with markdown and status glyphs, and sometimes polluted with raw
// tool-call JSON or repeated action announcements. On every new chunk the
// Reconstructor re-derives the full step list from the cumulative transcript
// (never a delta patch), tags the trailing step as streaming or complete, and
// isolates the final-answer text.
//
// The derivation is best-effort by contract: it never fails, for any input.
package trace

// StepKind identifies the kind of a reasoning step.
type StepKind string

const (
	StepThought     StepKind = "thought"
	StepAction      StepKind = "action"
	StepObservation StepKind = "observation"
	StepError       StepKind = "error"
)

// Step is one discrete unit of the reasoning trace.
type Step struct {
	// Kind of the step.
	Kind StepKind `json:"kind"`

	// Content is the accumulated narrative text of the step. Mutable while
	// the step is streaming, frozen once complete. Empty content on a
	// streaming step means "step just started, no text yet".
	Content string `json:"content"`

	// ToolName is the inferred tool family for Action steps, one of the
	// registry's canonical identifiers. Empty when no family matched.
	ToolName string `json:"tool_name,omitempty"`

	// ToolInput is the best-effort structured payload extracted for an
	// Action step. Nil when no payload could be extracted — consumers must
	// handle absence.
	ToolInput map[string]any `json:"tool_input,omitempty"`

	// ProgressContent collects live sub-progress lines of an Action step
	// ("Searching for: ...", "Found N results") separately from Content.
	ProgressContent string `json:"progress_content,omitempty"`

	// Streaming is true while the step is still being appended to. At most
	// one step in a trace is streaming, and it is always the last one.
	Streaming bool `json:"streaming"`
}

// Trace is the result of one reconstruction pass: the ordered step list and
// the final-answer buffer, which is disjoint from the steps.
type Trace struct {
	Steps       []Step `json:"steps"`
	FinalAnswer string `json:"final_answer"`
}

// StreamingIndex returns the index of the streaming step, or -1 when every
// step is complete.
func (t Trace) StreamingIndex() int {
	for i := len(t.Steps) - 1; i >= 0; i-- {
		if t.Steps[i].Streaming {
			return i
		}
	}
	return -1
}
