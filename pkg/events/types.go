// Package events implements the persisted-event pipeline: publishing
// through PostgreSQL NOTIFY, listening on a dedicated connection, and
// fanning out to WebSocket subscribers with catchup support.
package events

import "fmt"

// Event type values carried in every payload's "type" field.
const (
	TypeTurnStatus    = "turn.status"
	TypeStepCreated   = "step.created"
	TypeStepCompleted = "step.completed"
	TypeStreamChunk   = "stream.chunk"
)

// TurnChannel returns the notification channel for one turn's events.
func TurnChannel(turnID string) string {
	return fmt.Sprintf("turn:%s", turnID)
}

// ClientMessage is the JSON frame a WebSocket client sends.
type ClientMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel,omitempty"`
	LastID  int64  `json:"last_id,omitempty"`
}

// Client actions.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionCatchup     = "catchup"
	ActionPing        = "ping"
)
