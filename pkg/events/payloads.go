package events

// TurnStatusPayload announces a turn's lifecycle transitions.
type TurnStatusPayload struct {
	Type        string `json:"type"`
	TurnID      string `json:"turn_id"`
	Status      string `json:"status"`
	FinalAnswer string `json:"final_answer,omitempty"`
	Error       string `json:"error,omitempty"`
}

// StepCreatedPayload announces a new reasoning step.
type StepCreatedPayload struct {
	Type      string         `json:"type"`
	TurnID    string         `json:"turn_id"`
	Index     int            `json:"index"`
	StepType  string         `json:"step_type"`
	Content   string         `json:"content"`
	ToolName  string         `json:"tool_name,omitempty"`
	ToolInput map[string]any `json:"tool_input,omitempty"`
}

// StepCompletedPayload marks a previously announced step as finalized.
type StepCompletedPayload struct {
	Type    string `json:"type"`
	TurnID  string `json:"turn_id"`
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// StreamChunkPayload carries one transient model-output fragment. These
// are notify-only: they are never persisted and never replayed.
type StreamChunkPayload struct {
	Type    string `json:"type"`
	TurnID  string `json:"turn_id"`
	Content string `json:"content"`
}
