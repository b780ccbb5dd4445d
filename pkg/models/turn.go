// Package models defines the persistence records and API payloads shared
// across the concierge backend.
package models

import "time"

// Turn status values.
const (
	TurnStatusRunning   = "running"
	TurnStatusCompleted = "completed"
	TurnStatusFailed    = "failed"
)

// Turn modes.
const (
	ModeStandard = "standard"
	ModeAgent    = "agent"
)

// Turn is one assistant invocation: a user prompt and everything the
// backend produced while answering it.
type Turn struct {
	ID          string    `json:"id"`
	UserPrompt  string    `json:"user_prompt"`
	Mode        string    `json:"mode"`
	Status      string    `json:"status"`
	FinalAnswer string    `json:"final_answer,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Step is one persisted entry of a turn's reasoning trace.
type Step struct {
	ID        int64          `json:"id"`
	TurnID    string         `json:"turn_id"`
	Index     int            `json:"index"`
	StepType  string         `json:"step_type"`
	Content   string         `json:"content"`
	ToolName  string         `json:"tool_name,omitempty"`
	ToolInput map[string]any `json:"tool_input,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
