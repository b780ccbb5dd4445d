package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-labs/concierge/pkg/models"
	"github.com/brightpath-labs/concierge/test/util"
)

type received struct {
	channel string
	payload string
}

func TestPublishListenRoundtrip(t *testing.T) {
	db := util.SetupTestDatabase(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	inbox := make(chan received, 16)
	listener := NewNotifyListener(util.BaseConnectionString(t), func(channel, payload string) {
		inbox <- received{channel: channel, payload: payload}
	}, logger)
	require.NoError(t, listener.Start(ctx))
	defer listener.Stop()

	turnID := uuid.NewString()
	channel := TurnChannel(turnID)
	require.NoError(t, listener.Listen(ctx, channel))

	// Turn rows satisfy the steps foreign key; events only need the
	// channel, so insert directly.
	_, err := db.ExecContext(ctx,
		`INSERT INTO turns (id, user_prompt, mode) VALUES ($1, 'hi', 'standard')`, turnID)
	require.NoError(t, err)

	publisher := NewPublisher(db, logger)
	require.NoError(t, publisher.PublishStepCreated(ctx, StepCreatedPayload{
		TurnID:   turnID,
		Index:    0,
		StepType: "thought",
		Content:  "working on it",
	}))

	select {
	case got := <-inbox:
		assert.Equal(t, channel, got.channel)
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(got.payload), &payload))
		assert.Equal(t, TypeStepCreated, payload["type"])
		assert.Equal(t, "working on it", payload["content"])
		assert.NotZero(t, payload["db_event_id"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}

	// Transient chunks arrive too, without an event id.
	require.NoError(t, publisher.PublishStreamChunk(ctx, StreamChunkPayload{
		TurnID:  turnID,
		Content: "par",
	}))
	select {
	case got := <-inbox:
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(got.payload), &payload))
		assert.Equal(t, TypeStreamChunk, payload["type"])
		_, hasID := payload["db_event_id"]
		assert.False(t, hasID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for chunk notification")
	}

	// After UNLISTEN nothing is delivered for the channel.
	require.NoError(t, listener.Unlisten(ctx, channel))
	require.NoError(t, publisher.PublishTurnStatus(ctx, TurnStatusPayload{
		TurnID: turnID,
		Status: models.TurnStatusCompleted,
	}))
	select {
	case got := <-inbox:
		t.Fatalf("unexpected notification after unlisten: %+v", got)
	case <-time.After(500 * time.Millisecond):
	}
}
