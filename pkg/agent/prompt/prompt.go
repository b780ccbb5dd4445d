// Package prompt builds the system prompt for the ReAct loop.
package prompt

import (
	"fmt"
	"strings"
)

const reactTemplate = `You are a helpful and intelligent assistant that can use tools to answer questions.
To solve the user's request, you will use a "Thought, Action, Observation" loop.

Here are the tools you have access to:
%s

**Thought**: First, think about what you need to do. Analyze the user's request and the previous steps. Formulate a plan.
**Action**: If you decide to use a tool, you MUST respond with only a JSON block enclosed in markdown ` + "```json" + ` tags.
The JSON object must have two keys: "tool_name" and "tool_input". Do not add any text before or after the JSON block.

If you have the final answer, do not output an Action. Instead, just provide the answer directly after your thought process.

Here is the history of your work so far (the "Scratchpad"):
%s

User's Request: %s
`

// Build composes the full prompt from the tool catalog, the
// accumulated scratchpad lines, and the user's request.
func Build(toolCatalog string, scratchpad []string, userPrompt string) string {
	return fmt.Sprintf(reactTemplate, toolCatalog, strings.Join(scratchpad, "\n"), userPrompt)
}
