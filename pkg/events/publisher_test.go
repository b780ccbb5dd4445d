package events

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnChannel(t *testing.T) {
	assert.Equal(t, "turn:abc-123", TurnChannel("abc-123"))
}

func TestInjectEventID(t *testing.T) {
	raw, err := json.Marshal(StepCreatedPayload{
		Type:     TypeStepCreated,
		TurnID:   "t1",
		Index:    2,
		StepType: "thought",
		Content:  "checking inventory",
	})
	require.NoError(t, err)

	wire, err := injectEventID(raw, 42)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(wire, &m))
	assert.Equal(t, float64(42), m["db_event_id"])
	assert.Equal(t, TypeStepCreated, m["type"])
	assert.Equal(t, "t1", m["turn_id"])
	assert.Equal(t, "checking inventory", m["content"])
}

func TestInjectEventID_InvalidJSON(t *testing.T) {
	_, err := injectEventID([]byte("not json"), 1)
	assert.Error(t, err)
}

func TestTruncationEnvelope(t *testing.T) {
	wire := truncationEnvelope("turn:t1", 99)
	require.LessOrEqual(t, len(wire), maxNotifyPayload)

	var m map[string]any
	require.NoError(t, json.Unmarshal(wire, &m))
	assert.Equal(t, "event.truncated", m["type"])
	assert.Equal(t, "turn:t1", m["channel"])
	assert.Equal(t, float64(99), m["db_event_id"])
}

func TestTruncationThreshold(t *testing.T) {
	// A payload that fits the NOTIFY limit passes through untouched.
	small, err := json.Marshal(StreamChunkPayload{Type: TypeStreamChunk, TurnID: "t1", Content: "hi"})
	require.NoError(t, err)
	assert.Less(t, len(small), maxNotifyPayload)

	big, err := json.Marshal(StreamChunkPayload{
		Type:    TypeStreamChunk,
		TurnID:  "t1",
		Content: strings.Repeat("x", maxNotifyPayload),
	})
	require.NoError(t, err)
	assert.Greater(t, len(big), maxNotifyPayload)
}
