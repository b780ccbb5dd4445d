// Package agent implements the ReAct reasoning loop. The executor
// keeps a scratchpad of Thought / Observation lines, asks the LLM for
// the next step, executes tool calls extracted from ```json blocks,
// and stops when the model produces a final answer or the step bound
// is hit.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/brightpath-labs/concierge/pkg/agent/prompt"
	"github.com/brightpath-labs/concierge/pkg/tools"
)

// DefaultMaxSteps bounds the reasoning loop when the caller does not
// override it.
const DefaultMaxSteps = 20

// maxStepsAnswer is returned when the loop exhausts its step budget
// without a final answer.
const maxStepsAnswer = "Agent stopped after reaching max steps."

// StepType identifies a trace step produced during a run.
type StepType string

const (
	StepTypeThought     StepType = "Thought"
	StepTypeAction      StepType = "Action"
	StepTypeObservation StepType = "Observation"
	StepTypeError       StepType = "Error"
)

// Step is one entry in the agent's reasoning trace.
type Step struct {
	Type      StepType       `json:"step_type"`
	Output    string         `json:"output,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	ToolInput map[string]any `json:"tool_input,omitempty"`
}

// Result is the outcome of a full agent run.
type Result struct {
	FinalAnswer string `json:"final_answer"`
	Trace       []Step `json:"trace"`
}

// StepCallback receives each trace step as it is produced, for
// streaming the run to the client.
type StepCallback func(Step)

// LLM is the completion interface the executor drives. Satisfied by
// the llm package's client.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// actionPattern extracts the JSON tool-call block from a model
// response.
var actionPattern = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")

// Executor orchestrates one ReAct run. Not reusable: create a fresh
// executor per turn.
type Executor struct {
	llm        LLM
	registry   *tools.Registry
	maxSteps   int
	logger     *slog.Logger
	scratchpad []string
	trace      []Step
}

// NewExecutor creates an executor over the given LLM and tool
// registry. maxSteps <= 0 selects DefaultMaxSteps.
func NewExecutor(llm LLM, registry *tools.Registry, maxSteps int) *Executor {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Executor{
		llm:      llm,
		registry: registry,
		maxSteps: maxSteps,
		logger:   slog.Default(),
	}
}

// Run executes the reasoning loop for a user prompt. onStep may be
// nil. Returns an error only when the LLM itself fails; tool failures
// become Error steps the model can recover from.
func (e *Executor) Run(ctx context.Context, userPrompt string, onStep StepCallback) (*Result, error) {
	for i := 0; i < e.maxSteps; i++ {
		e.logger.Info("ReAct step", "step", i+1, "max_steps", e.maxSteps)

		final, err := e.executeStep(ctx, userPrompt, onStep)
		if err != nil {
			return nil, err
		}
		if final != "" {
			e.logger.Info("Final answer found", "steps", i+1)
			return &Result{FinalAnswer: final, Trace: e.trace}, nil
		}
	}
	return &Result{FinalAnswer: maxStepsAnswer, Trace: e.trace}, nil
}

// executeStep performs one Thought → Action → Observation cycle.
// Returns a non-empty string when the model produced the final answer.
func (e *Executor) executeStep(ctx context.Context, userPrompt string, onStep StepCallback) (string, error) {
	p := prompt.Build(e.registry.Describe(), e.scratchpad, userPrompt)

	response, err := e.llm.Complete(ctx, p)
	if err != nil {
		return "", fmt.Errorf("llm completion: %w", err)
	}
	e.scratchpad = append(e.scratchpad, "Thought: "+response)
	e.emit(onStep, Step{Type: StepTypeThought, Output: response})

	match := actionPattern.FindStringSubmatch(response)
	if match == nil {
		// No action block: the response is the final answer.
		return strings.TrimSpace(strings.ReplaceAll(response, "Thought:", "")), nil
	}

	call, err := parseToolCall(match[1])
	if err != nil {
		e.recordError(onStep, fmt.Errorf("parse action: %w", err))
		return "", nil
	}

	tool, ok := e.registry.Get(call.Name)
	if !ok {
		e.recordError(onStep, fmt.Errorf("tool %q not found", call.Name))
		return "", nil
	}

	e.emit(onStep, Step{Type: StepTypeAction, ToolName: call.Name, ToolInput: call.Input})

	observation, err := tool.Run(ctx, call.Input)
	if err != nil {
		e.recordError(onStep, fmt.Errorf("execute %s: %w", call.Name, err))
		return "", nil
	}

	e.scratchpad = append(e.scratchpad, "Observation: "+observation)
	e.emit(onStep, Step{Type: StepTypeObservation, Output: observation})
	return "", nil
}

// toolCall is the decoded ```json action block.
type toolCall struct {
	Name  string
	Input map[string]any
}

// parseToolCall decodes {"tool_name": ..., "tool_input": ...}.
// Non-object tool_input values are wrapped as {"input": value}.
func parseToolCall(raw string) (*toolCall, error) {
	var decoded struct {
		ToolName  string `json:"tool_name"`
		ToolInput any    `json:"tool_input"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("invalid action JSON: %w", err)
	}
	if decoded.ToolName == "" {
		return nil, fmt.Errorf("action JSON missing tool_name")
	}

	input, ok := decoded.ToolInput.(map[string]any)
	if !ok {
		input = map[string]any{}
		if decoded.ToolInput != nil {
			input["input"] = decoded.ToolInput
		}
	}
	return &toolCall{Name: decoded.ToolName, Input: input}, nil
}

// recordError appends an Error observation so the model sees what
// went wrong and can retry on the next step.
func (e *Executor) recordError(onStep StepCallback, cause error) {
	e.logger.Error("Action failed", "error", cause)
	output := "Error: Could not parse or execute action. Details: " + cause.Error()
	e.scratchpad = append(e.scratchpad, output)
	e.emit(onStep, Step{Type: StepTypeError, Output: output})
}

func (e *Executor) emit(onStep StepCallback, step Step) {
	e.trace = append(e.trace, step)
	if onStep != nil {
		onStep(step)
	}
}
