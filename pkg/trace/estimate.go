package trace

import "strings"

// The underlying text arrives token-by-token with no end-of-step signal other
// than the next marker appearing or the stream ending. The estimator
// approximates "is this sentence finished" from length and punctuation,
// trading a small risk of premature completion for responsiveness. The
// thresholds are tunable constants, not exact contracts.
const (
	// completeMinLen is the length a trailing step must exceed before
	// sentence-final punctuation is trusted as an end-of-step signal.
	completeMinLen = 50

	// shortFloor is the minimum content length below which a trailing
	// Thought or Action step is always considered still being written.
	shortFloor = 3

	// observationShortFloor is the same floor for Observations, larger
	// because tool output arrives in bigger bursts.
	observationShortFloor = 20
)

// stepMemory is the carried-forward estimator state for one step index:
// whether the step was streaming in the previous pass and how much content it
// had then. This is the one piece of true state in an otherwise pure
// pipeline.
type stepMemory struct {
	streaming bool
	length    int
}

// estimate annotates the aggregated step list with streaming flags, comparing
// against the previous pass's memory so a step never oscillates between
// complete and streaming as chunks arrive.
//
// It may append one synthesized placeholder step when the transcript tail is
// a bare marker: the step exists in the display before it has any content.
func estimate(steps []Step, finalAnswer, transcript string, memory map[int]stepMemory, ended bool) []Step {
	annotated := make([]Step, len(steps))
	copy(annotated, steps)

	// Any final-answer text means the turn is done: every step is complete.
	if ended || finalAnswer != "" {
		for i := range annotated {
			annotated[i].Streaming = false
		}
		return annotated
	}

	// A bare marker at the tail means a new step just opened with no content
	// yet. The aggregator produced nothing for it (there is no content to
	// aggregate), so a placeholder is synthesized here — and every real step
	// before it is by definition non-trailing, hence complete.
	if kind, ok := bareMarkerKind(tailLine(transcript)); ok {
		annotated = append(annotated, Step{Kind: kind, Streaming: true})
		return annotated
	}

	if len(annotated) == 0 {
		return annotated
	}

	// Only the trailing step is ever in question; everything before it is
	// complete by construction.
	last := len(annotated) - 1
	prev, seen := memory[last]
	annotated[last].Streaming = trailingStreaming(annotated[last], prev, seen)
	return annotated
}

// trailingStreaming decides whether the trailing real step is still being
// written.
func trailingStreaming(step Step, prev stepMemory, seen bool) bool {
	// Upstream-reported error segments are complete the moment they appear.
	if step.Kind == StepError {
		return false
	}

	content := strings.TrimSpace(step.Content)

	// Sticky decisions. A step marked streaming stays streaming until the
	// completion heuristic is unambiguously met; a step already reported
	// complete holds that verdict while its content is unchanged, so it never
	// flaps back to "running" on chunks that only touch later text.
	if seen {
		if prev.streaming {
			return !looksComplete(content)
		}
		if len(content) == prev.length {
			return false
		}
		return !looksComplete(content)
	}

	floor := shortFloor
	if step.Kind == StepObservation {
		floor = observationShortFloor
	}
	if len(content) < floor {
		return true
	}

	return !looksComplete(content)
}

// looksComplete is the end-of-step heuristic: long enough to be a finished
// statement and ending with sentence-final punctuation.
func looksComplete(content string) bool {
	if len(content) <= completeMinLen {
		return false
	}
	switch content[len(content)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// tailLine returns the transcript content after the last line break.
func tailLine(transcript string) string {
	if i := strings.LastIndexByte(transcript, '\n'); i >= 0 {
		return transcript[i+1:]
	}
	return transcript
}
