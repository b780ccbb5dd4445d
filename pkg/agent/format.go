package agent

import (
	"encoding/json"
	"fmt"
)

// FormatStep renders a trace step as the markdown block streamed to
// the client. The reconstructor on the consuming side keys off these
// exact decorated markers.
func FormatStep(step Step) string {
	switch step.Type {
	case StepTypeThought:
		return fmt.Sprintf("🤔 **Thinking:**\n%s\n\n", step.Output)
	case StepTypeAction:
		return fmt.Sprintf("🔧 **Action:** Using tool `%s`\n*Input:* %s\n\n",
			step.ToolName, formatInput(step.ToolInput))
	case StepTypeObservation:
		return fmt.Sprintf("📝 **Observation:**\n%s\n\n", step.Output)
	case StepTypeError:
		return fmt.Sprintf("❌ **Error:**\n%s\n\n", step.Output)
	}
	return step.Output
}

// FormatFinalAnswer renders the closing answer block.
func FormatFinalAnswer(answer string) string {
	return "✅ **Final Answer:**\n" + answer
}

func formatInput(input map[string]any) string {
	if len(input) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return string(raw)
}
