package cleanup

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-labs/concierge/pkg/config"
	"github.com/brightpath-labs/concierge/pkg/services"
	"github.com/brightpath-labs/concierge/test/util"
)

func TestRetentionPass(t *testing.T) {
	db := util.SetupTestDatabase(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO events (turn_id, channel, payload, created_at) VALUES
		 ('old', 'turn:old', '{"type":"turn.status"}', now() - interval '3 days'),
		 ('new', 'turn:new', '{"type":"turn.status"}', now())`)
	require.NoError(t, err)

	eventSvc := services.NewEventService(db)
	svc := NewService(config.RetentionConfig{
		EventTTL:        24 * time.Hour,
		CleanupInterval: time.Hour,
	}, eventSvc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	svc.RunOnce(ctx)

	remaining, err := eventSvc.GetEventsSince(ctx, "turn:new", 0, 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	gone, err := eventSvc.GetEventsSince(ctx, "turn:old", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, gone)
}
