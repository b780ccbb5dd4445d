package trace

import "strings"

// Reconstructor owns the per-turn state and re-runs classification,
// aggregation and completion estimation on every incoming chunk.
//
// It consumes the cumulative transcript (never a delta) on each call: the
// design always re-derives from scratch because upstream re-statements and
// corrections are possible, and incremental patching would compound
// classification errors. Re-derivation is idempotent aside from the sticky
// streaming memory, which is keyed to monotonic transcript growth, not call
// count.
//
// A Reconstructor is owned by exactly one turn and is not safe for concurrent
// use; chunk delivery is serialized by the transport.
type Reconstructor struct {
	memory map[int]stepMemory
	ended  bool
}

// NewReconstructor creates the state for one assistant turn. Drop it when the
// turn ends — there are no cleanup obligations.
func NewReconstructor() *Reconstructor {
	return &Reconstructor{memory: make(map[int]stepMemory)}
}

// Apply re-derives the trace from the cumulative transcript so far. It never
// fails: any input, including the empty string, yields a best-effort result.
func (r *Reconstructor) Apply(transcript string) Trace {
	steps, finalAnswer := aggregate(transcript)
	annotated := estimate(steps, finalAnswer, transcript, r.memory, r.ended)
	r.remember(annotated)
	return Trace{Steps: annotated, FinalAnswer: strings.TrimSpace(finalAnswer)}
}

// Finalize runs the last pass for a turn whose stream has ended. The
// final-answer condition is forced so no step is left permanently streaming,
// whatever the transcript tail looks like.
func (r *Reconstructor) Finalize(transcript string) Trace {
	r.ended = true
	return r.Apply(transcript)
}

func (r *Reconstructor) remember(steps []Step) {
	for i, step := range steps {
		r.memory[i] = stepMemory{
			streaming: step.Streaming,
			length:    len(strings.TrimSpace(step.Content)),
		}
	}
}

// Reconstruct is the one-shot form: a single derivation with fresh state.
// Useful when the full transcript is already known (replay, persistence).
func Reconstruct(transcript string) Trace {
	return NewReconstructor().Finalize(transcript)
}
