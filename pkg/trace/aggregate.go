package trace

import "strings"

// inputLinePrefixes announce an action's structured input on a continuation
// line ("*Input:* {...}"). The payload is extracted, not rendered as
// narrative.
var inputLinePrefixes = []string{"*Input:*", "**Input:**", "Input:"}

// aggregate converts the full transcript into the ordered step list and the
// final-answer buffer. It is a pure function of the transcript: streaming
// flags are assigned afterwards by the estimator.
//
// Dedup and noise filtering apply to Action steps only, because the model may
// leak raw tool-call JSON or re-announce the same call verbatim. Thought,
// Observation and Error steps aggregate every marker line as-is.
func aggregate(transcript string) ([]Step, string) {
	var (
		steps      []Step
		finalParts []string
		inFinal    bool
		cur        = -1
	)

	for _, raw := range strings.Split(transcript, "\n") {
		// Once the final-answer section opens, everything after it is
		// answer content regardless of further marker-like lines.
		if inFinal {
			finalParts = append(finalParts, raw)
			continue
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if rest, ok := classifyFinalOnset(line); ok {
			inFinal = true
			if rest != "" {
				finalParts = append(finalParts, rest)
			}
			continue
		}

		if kind, rest, ok := classifyMarker(line); ok {
			if kind == StepAction {
				if !admitAction(steps, cur, rest) {
					continue
				}
				steps = append(steps, Step{
					Kind:      StepAction,
					Content:   rest,
					ToolName:  inferToolName(rest),
					ToolInput: extractToolInput(rest),
				})
			} else {
				steps = append(steps, Step{Kind: kind, Content: rest})
			}
			cur = len(steps) - 1
			continue
		}

		// No marker recognized before any step has opened: the transcript
		// is plain prose — degrade to "no steps, one final answer".
		if cur == -1 {
			inFinal = true
			finalParts = append(finalParts, raw)
			continue
		}

		appendContinuation(&steps[cur], line)
	}

	return cleanup(steps), strings.TrimSpace(strings.Join(finalParts, "\n"))
}

// admitAction applies the per-line Action filters: JSON-leak discard,
// exact-duplicate discard, same-tool-family repeat discard.
func admitAction(steps []Step, cur int, candidate string) bool {
	if looksLikeToolPayload(candidate) {
		return false
	}
	if cur < 0 || steps[cur].Kind != StepAction {
		return true
	}
	prev := steps[cur]
	if strings.TrimSpace(prev.Content) == candidate {
		return false
	}
	// The model re-announcing the same call with different words collapses
	// into the existing step.
	if family := inferToolName(candidate); family != "" && family == prev.ToolName {
		return false
	}
	return true
}

// appendContinuation routes a non-marker line into the open step: structured
// input extraction and progress lines for Action steps, space-joined
// narrative for everything else.
func appendContinuation(step *Step, line string) {
	if step.Kind == StepAction {
		for _, prefix := range inputLinePrefixes {
			if strings.HasPrefix(line, prefix) {
				if input := extractToolInput(line[len(prefix):]); input != nil {
					step.ToolInput = input
				}
				return
			}
		}
		if isProgressLine(line) {
			if step.ProgressContent != "" {
				step.ProgressContent += "\n"
			}
			step.ProgressContent += line
			return
		}
	}
	if step.Content == "" {
		step.Content = line
	} else {
		step.Content += " " + line
	}
}

// cleanup is the second safety net after aggregation: steps with no content
// and steps whose content still matches the payload pattern are dropped.
func cleanup(steps []Step) []Step {
	kept := make([]Step, 0, len(steps))
	for _, step := range steps {
		if strings.TrimSpace(step.Content) == "" {
			continue
		}
		if looksLikeToolPayload(step.Content) {
			continue
		}
		kept = append(kept, step)
	}
	return kept
}
