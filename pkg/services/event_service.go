package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brightpath-labs/concierge/pkg/models"
)

// EventService reads and prunes the persisted event log. Writing happens
// in the event publisher so insert and notify share one transaction.
type EventService struct {
	db *sql.DB
}

// NewEventService creates an EventService on the shared pool.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// GetEventsSince returns up to limit events on a channel with id greater
// than sinceID, oldest first. Satisfies the WebSocket catchup querier.
func (s *EventService) GetEventsSince(ctx context.Context, channel string, sinceID int64, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, turn_id, channel, payload, created_at
		 FROM events WHERE channel = $1 AND id > $2
		 ORDER BY id LIMIT $3`,
		channel, sinceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var evt models.Event
		var payload []byte
		if err := rows.Scan(&evt.ID, &evt.TurnID, &evt.Channel, &payload, &evt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal(payload, &evt.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// CleanupOldEvents deletes events older than the TTL and reports how many
// rows were removed.
func (s *EventService) CleanupOldEvents(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup events: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleaned events: %w", err)
	}
	return count, nil
}
