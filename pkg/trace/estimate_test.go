package trace

import "testing"

func TestEstimate_FinalAnswerCompletesEverything(t *testing.T) {
	steps := []Step{
		{Kind: StepThought, Content: "Short."},
		{Kind: StepAction, Content: "Searching the web"},
	}
	annotated := estimate(steps, "Based on my research, done.", "irrelevant", nil, false)
	for i, step := range annotated {
		if step.Streaming {
			t.Errorf("step %d streaming after final answer", i)
		}
	}
}

func TestEstimate_ForcedEndCompletesEverything(t *testing.T) {
	steps := []Step{{Kind: StepThought, Content: "mid-sentence and clearly unfinished"}}
	annotated := estimate(steps, "", "Thought: mid-sentence and clearly unfinished", nil, true)
	if annotated[0].Streaming {
		t.Error("step still streaming after forced end")
	}
}

func TestEstimate_BareMarkerSynthesizesPlaceholder(t *testing.T) {
	tests := []struct {
		name     string
		tail     string
		wantKind StepKind
	}{
		{"thought", "Thought: Previous is done.\nThought: ", StepThought},
		{"action", "Thought: I need to check the weather.\nAction: ", StepAction},
		{"observation", "Action: Searching the web\nObservation:", StepObservation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, finalAnswer := aggregate(tt.tail)
			annotated := estimate(steps, finalAnswer, tt.tail, nil, false)
			if len(annotated) == 0 {
				t.Fatal("no steps")
			}
			last := annotated[len(annotated)-1]
			if last.Kind != tt.wantKind {
				t.Errorf("placeholder kind = %q, want %q", last.Kind, tt.wantKind)
			}
			if !last.Streaming {
				t.Error("placeholder not streaming")
			}
			if last.Content != "" {
				t.Errorf("placeholder content = %q, want empty", last.Content)
			}
			// Every real step before the placeholder is complete.
			for i := 0; i < len(annotated)-1; i++ {
				if annotated[i].Streaming {
					t.Errorf("step %d streaming alongside placeholder", i)
				}
			}
		})
	}
}

func TestTrailingStreaming(t *testing.T) {
	long := "This sentence is comfortably longer than the completion floor."

	tests := []struct {
		name string
		step Step
		prev stepMemory
		seen bool
		want bool
	}{
		{"error steps never stream", Step{Kind: StepError, Content: "x"}, stepMemory{}, false, false},
		{"tiny thought still streams", Step{Kind: StepThought, Content: "so"}, stepMemory{}, false, true},
		{"short observation still streams", Step{Kind: StepObservation, Content: "Found 2 items"}, stepMemory{}, false, true},
		{"long punctuated looks complete", Step{Kind: StepThought, Content: long}, stepMemory{}, false, false},
		{"long but mid-sentence streams", Step{Kind: StepThought, Content: long + " and furthermore"}, stepMemory{}, false, true},
		{"short but punctuated still streams", Step{Kind: StepThought, Content: "Done."}, stepMemory{}, false, true},
		{"sticky streaming holds", Step{Kind: StepThought, Content: "short and unfinished"}, stepMemory{streaming: true}, true, true},
		{"sticky streaming releases on completion", Step{Kind: StepThought, Content: long}, stepMemory{streaming: true}, true, false},
		{"completed step holds while unchanged", Step{Kind: StepThought, Content: long}, stepMemory{length: len(long)}, true, false},
		{"completed step reopens when content grows", Step{Kind: StepThought, Content: long + " and more"}, stepMemory{length: len(long)}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trailingStreaming(tt.step, tt.prev, tt.seen); got != tt.want {
				t.Errorf("trailingStreaming = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEstimate_AtMostOneStreaming(t *testing.T) {
	transcripts := []string{
		"",
		"Thought: working on it",
		"Thought: Done thinking about the problem at hand today.\nAction: Searching",
		"Thought: a\nAction: b\nObservation: c",
		"Thought: I need to check the weather.\nAction: ",
	}

	for _, transcript := range transcripts {
		steps, finalAnswer := aggregate(transcript)
		annotated := estimate(steps, finalAnswer, transcript, nil, false)
		streaming := 0
		for i, step := range annotated {
			if step.Streaming {
				streaming++
				if i != len(annotated)-1 {
					t.Errorf("%q: streaming step %d is not last", transcript, i)
				}
			}
		}
		if streaming > 1 {
			t.Errorf("%q: %d streaming steps", transcript, streaming)
		}
	}
}
