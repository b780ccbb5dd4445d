package trace

import (
	"reflect"
	"strings"
	"testing"
)

func TestReconstructor_Idempotence(t *testing.T) {
	transcript := "Thought: Let me look into gold prices for the user.\n" +
		"Action: Searching the web for gold prices"

	r := NewReconstructor()
	first := r.Apply(transcript)
	second := r.Apply(transcript)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-derivation not idempotent:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestReconstructor_PartialMarkerScenario(t *testing.T) {
	r := NewReconstructor()
	trace := r.Apply("Thought: I need to check the weather.\nAction: ")

	if len(trace.Steps) != 2 {
		t.Fatalf("got %d steps, want 2: %+v", len(trace.Steps), trace.Steps)
	}
	if trace.Steps[0].Kind != StepThought || trace.Steps[0].Streaming {
		t.Errorf("step 0 = %+v, want complete thought", trace.Steps[0])
	}
	if trace.Steps[1].Kind != StepAction || !trace.Steps[1].Streaming || trace.Steps[1].Content != "" {
		t.Errorf("step 1 = %+v, want empty streaming action", trace.Steps[1])
	}
}

func TestReconstructor_IncrementalGrowth(t *testing.T) {
	chunks := []string{
		"Thought: ",
		"Thought: Let me se",
		"Thought: Let me search for current gold prices before answering.",
		"Thought: Let me search for current gold prices before answering.\nAction: ",
		"Thought: Let me search for current gold prices before answering.\nAction: Searching the web for gold prices",
		"Thought: Let me search for current gold prices before answering.\nAction: Searching the web for gold prices\nFound 3 results\nObservation: Gold is trading at $2000/oz on major exchanges today.",
		"Thought: Let me search for current gold prices before answering.\nAction: Searching the web for gold prices\nFound 3 results\nObservation: Gold is trading at $2000/oz on major exchanges today.\nBased on my research, gold is at $2000/oz.",
	}

	r := NewReconstructor()
	var prev Trace
	for i, transcript := range chunks {
		trace := r.Apply(transcript)

		// At most one streaming step, always the last.
		if idx := trace.StreamingIndex(); idx != -1 && idx != len(trace.Steps)-1 {
			t.Fatalf("chunk %d: streaming step %d is not last", i, idx)
		}
		streaming := 0
		for _, s := range trace.Steps {
			if s.Streaming {
				streaming++
			}
		}
		if streaming > 1 {
			t.Fatalf("chunk %d: %d streaming steps", i, streaming)
		}

		// The displayed trace never regresses: completed steps from the
		// previous pass keep their kind and content.
		for j, prevStep := range prev.Steps {
			if prevStep.Streaming || j >= len(trace.Steps) {
				continue
			}
			if j == len(prev.Steps)-1 {
				continue // trailing step may still be merged into
			}
			if trace.Steps[j].Kind != prevStep.Kind || trace.Steps[j].Content != prevStep.Content {
				t.Fatalf("chunk %d: finalized step %d changed: %+v -> %+v",
					i, j, prevStep, trace.Steps[j])
			}
		}
		prev = trace
	}

	if prev.FinalAnswer != "Based on my research, gold is at $2000/oz." {
		t.Errorf("final answer = %q", prev.FinalAnswer)
	}
	if idx := prev.StreamingIndex(); idx != -1 {
		t.Errorf("step %d still streaming after final answer", idx)
	}
	if len(prev.Steps) != 3 {
		t.Errorf("got %d steps, want 3: %+v", len(prev.Steps), prev.Steps)
	}
	if prev.Steps[1].ProgressContent != "Found 3 results" {
		t.Errorf("progress = %q", prev.Steps[1].ProgressContent)
	}
}

func TestReconstructor_StickyAcrossChunks(t *testing.T) {
	base := "Thought: This reasoning step runs long enough to pass the floor" // no punctuation

	r := NewReconstructor()
	first := r.Apply(base)
	if !first.Steps[0].Streaming {
		t.Fatal("trailing step should stream while mid-sentence")
	}

	// More text, still mid-sentence: stays streaming.
	second := r.Apply(base + " and keeps going")
	if !second.Steps[0].Streaming {
		t.Error("sticky streaming released too early")
	}

	// Sentence closes: completion condition met, streaming released.
	third := r.Apply(base + " and keeps going until it finally ends.")
	if third.Steps[0].Streaming {
		t.Error("completion condition not honored")
	}

	// Re-deriving the same transcript must not flap it back to streaming.
	fourth := r.Apply(base + " and keeps going until it finally ends.")
	if fourth.Steps[0].Streaming {
		t.Error("completed step flapped back to streaming")
	}
}

func TestReconstructor_FinalizeClearsStreaming(t *testing.T) {
	r := NewReconstructor()
	r.Apply("Thought: unfinished reasoning that never got punctuat")

	trace := r.Finalize("Thought: unfinished reasoning that never got punctuat")
	for i, step := range trace.Steps {
		if step.Streaming {
			t.Errorf("step %d still streaming after Finalize", i)
		}
	}
}

func TestReconstructor_ChunkCoalescing(t *testing.T) {
	full := "Thought: Let me search for the latest gold prices right away.\n" +
		"Action: Searching the web for gold prices\n" +
		"Observation: Gold is trading at $2000/oz on major exchanges today."

	// One big chunk vs many small chunks converge to the same trace.
	coalesced := NewReconstructor().Apply(full)

	r := NewReconstructor()
	var incremental Trace
	for i := 1; i <= len(full); i++ {
		incremental = r.Apply(full[:i])
	}

	if len(coalesced.Steps) != len(incremental.Steps) {
		t.Fatalf("step counts diverge: %d vs %d", len(coalesced.Steps), len(incremental.Steps))
	}
	for i := range coalesced.Steps {
		a, b := coalesced.Steps[i], incremental.Steps[i]
		if a.Kind != b.Kind || a.Content != b.Content || a.ToolName != b.ToolName {
			t.Errorf("step %d diverges: %+v vs %+v", i, a, b)
		}
	}
}

func TestReconstruct_OneShot(t *testing.T) {
	trace := Reconstruct("Hello, how can I help?")
	if len(trace.Steps) != 0 {
		t.Errorf("got %d steps, want 0", len(trace.Steps))
	}
	if trace.FinalAnswer != "Hello, how can I help?" {
		t.Errorf("final answer = %q", trace.FinalAnswer)
	}
}

func TestReconstruct_ErrorStepsSurface(t *testing.T) {
	transcript := "Thought: Trying the tool now with the full query string.\n" +
		"Error: Could not parse or execute action. Details: bad input\n" +
		"Thought: I will retry with a simpler input instead of that one."

	trace := Reconstruct(transcript)
	if len(trace.Steps) != 3 {
		t.Fatalf("got %d steps, want 3: %+v", len(trace.Steps), trace.Steps)
	}
	if trace.Steps[1].Kind != StepError {
		t.Errorf("step 1 kind = %q, want error", trace.Steps[1].Kind)
	}
	if trace.Steps[1].Streaming {
		t.Error("error step must never stream")
	}
	if !strings.Contains(trace.Steps[1].Content, "Could not parse") {
		t.Errorf("error content = %q", trace.Steps[1].Content)
	}
}
