package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
)

// PostgreSQL caps NOTIFY payloads at 8000 bytes; leave headroom for the
// truncation envelope.
const maxNotifyPayload = 7900

// Publisher writes events to the events table and broadcasts them on the
// turn's notification channel in one transaction, so a notification is
// only ever seen for a committed row.
type Publisher struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPublisher creates an event publisher backed by the shared pool.
func NewPublisher(db *sql.DB, logger *slog.Logger) *Publisher {
	return &Publisher{db: db, logger: logger.With("component", "event_publisher")}
}

// PublishTurnStatus persists and broadcasts a turn lifecycle event.
func (p *Publisher) PublishTurnStatus(ctx context.Context, payload TurnStatusPayload) error {
	payload.Type = TypeTurnStatus
	return p.persistAndNotify(ctx, payload.TurnID, payload)
}

// PublishStepCreated persists and broadcasts a new reasoning step.
func (p *Publisher) PublishStepCreated(ctx context.Context, payload StepCreatedPayload) error {
	payload.Type = TypeStepCreated
	return p.persistAndNotify(ctx, payload.TurnID, payload)
}

// PublishStepCompleted persists and broadcasts a step finalization.
func (p *Publisher) PublishStepCompleted(ctx context.Context, payload StepCompletedPayload) error {
	payload.Type = TypeStepCompleted
	return p.persistAndNotify(ctx, payload.TurnID, payload)
}

// PublishStreamChunk broadcasts a transient chunk without persisting it.
// Chunks are high-volume and worthless after the step finalizes, so a
// client that reconnects recovers via the persisted step events instead.
func (p *Publisher) PublishStreamChunk(ctx context.Context, payload StreamChunkPayload) error {
	payload.Type = TypeStreamChunk
	return p.notifyOnly(ctx, TurnChannel(payload.TurnID), payload)
}

func (p *Publisher) persistAndNotify(ctx context.Context, turnID string, payload any) error {
	channel := TurnChannel(turnID)

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin event transaction: %w", err)
	}
	defer tx.Rollback()

	var eventID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO events (turn_id, channel, payload) VALUES ($1, $2, $3) RETURNING id`,
		turnID, channel, raw,
	).Scan(&eventID)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	wire, err := injectEventID(raw, eventID)
	if err != nil {
		return fmt.Errorf("failed to build notify payload: %w", err)
	}
	if len(wire) > maxNotifyPayload {
		wire = truncationEnvelope(channel, eventID)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, channel, string(wire)); err != nil {
		return fmt.Errorf("failed to notify channel %s: %w", channel, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event: %w", err)
	}

	p.logger.Debug("Event published", "channel", channel, "event_id", eventID)
	return nil
}

func (p *Publisher) notifyOnly(ctx context.Context, channel string, payload any) error {
	wire, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	if len(wire) > maxNotifyPayload {
		// A chunk this large cannot be recovered from the events table;
		// drop it rather than fail the turn.
		p.logger.Warn("Dropping oversized transient event", "channel", channel, "size", len(wire))
		return nil
	}

	if _, err := p.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, channel, string(wire)); err != nil {
		return fmt.Errorf("failed to notify channel %s: %w", channel, err)
	}
	return nil
}

// injectEventID adds the database-assigned id to the payload so clients
// can resume catchup from the last id they saw.
func injectEventID(raw []byte, eventID int64) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["db_event_id"] = eventID
	return json.Marshal(m)
}

// truncationEnvelope replaces an oversized payload with a pointer the
// client follows via a catchup request.
func truncationEnvelope(channel string, eventID int64) []byte {
	wire, _ := json.Marshal(map[string]any{
		"type":        "event.truncated",
		"channel":     channel,
		"db_event_id": eventID,
	})
	return wire
}
