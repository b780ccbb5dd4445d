package models

import "time"

// Event is a persisted WebSocket event, replayable during catchup.
type Event struct {
	ID        int64          `json:"id"`
	TurnID    string         `json:"turn_id"`
	Channel   string         `json:"channel"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
