package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/brightpath-labs/concierge/pkg/models"
)

const (
	writeTimeout = 5 * time.Second
	catchupLimit = 200
)

// CatchupQuerier replays persisted events a client missed while
// disconnected.
type CatchupQuerier interface {
	GetEventsSince(ctx context.Context, channel string, sinceID int64, limit int) ([]models.Event, error)
}

type connection struct {
	id     string
	ws     *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

// ConnectionManager accepts WebSocket clients, tracks per-channel
// subscriptions, and bridges PostgreSQL notifications to subscribers.
// The backing NotifyListener LISTENs a channel only while it has at
// least one subscriber.
type ConnectionManager struct {
	listener *NotifyListener
	catchup  CatchupQuerier
	logger   *slog.Logger

	mu          sync.RWMutex
	connections map[string]*connection
	channels    map[string]map[string]struct{}
}

// NewConnectionManager wires the WebSocket fan-out to a running listener.
func NewConnectionManager(listener *NotifyListener, catchup CatchupQuerier, logger *slog.Logger) *ConnectionManager {
	return &ConnectionManager{
		listener:    listener,
		catchup:     catchup,
		logger:      logger.With("component", "connection_manager"),
		connections: make(map[string]*connection),
		channels:    make(map[string]map[string]struct{}),
	}
}

// HandleNotification is the NotificationHandler for the backing listener.
func (m *ConnectionManager) HandleNotification(channel, payload string) {
	m.mu.RLock()
	subscribers := make([]*connection, 0, len(m.channels[channel]))
	for connID := range m.channels[channel] {
		if conn, ok := m.connections[connID]; ok {
			subscribers = append(subscribers, conn)
		}
	}
	m.mu.RUnlock()

	for _, conn := range subscribers {
		m.write(conn, []byte(payload))
	}
}

// HandleConnection upgrades the request and serves the client until it
// disconnects. Blocks for the lifetime of the connection.
func (m *ConnectionManager) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		m.logger.Warn("WebSocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	conn := &connection{
		id:     uuid.NewString(),
		ws:     ws,
		ctx:    ctx,
		cancel: cancel,
	}

	m.mu.Lock()
	m.connections[conn.id] = conn
	m.mu.Unlock()

	m.logger.Info("WebSocket client connected", "conn_id", conn.id)
	defer m.removeConnection(conn)

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			m.logger.Debug("WebSocket client disconnected", "conn_id", conn.id, "error", err)
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			m.writeJSON(conn, map[string]any{"type": "error", "message": "invalid message"})
			continue
		}

		m.handleMessage(conn, msg)
	}
}

func (m *ConnectionManager) handleMessage(conn *connection, msg ClientMessage) {
	switch msg.Action {
	case ActionSubscribe:
		if msg.Channel == "" {
			m.writeJSON(conn, map[string]any{"type": "error", "message": "channel required"})
			return
		}
		if err := m.subscribe(conn, msg.Channel); err != nil {
			m.logger.Error("Subscribe failed", "conn_id", conn.id, "channel", msg.Channel, "error", err)
			m.writeJSON(conn, map[string]any{"type": "error", "message": "subscribe failed"})
			return
		}
		m.writeJSON(conn, map[string]any{"type": "subscribed", "channel": msg.Channel})

	case ActionUnsubscribe:
		m.unsubscribe(conn.id, msg.Channel)
		m.writeJSON(conn, map[string]any{"type": "unsubscribed", "channel": msg.Channel})

	case ActionCatchup:
		m.sendCatchup(conn, msg.Channel, msg.LastID)

	case ActionPing:
		m.writeJSON(conn, map[string]any{"type": "pong"})

	default:
		m.writeJSON(conn, map[string]any{"type": "error", "message": "unknown action"})
	}
}

func (m *ConnectionManager) subscribe(conn *connection, channel string) error {
	m.mu.Lock()
	subs, existed := m.channels[channel]
	if !existed {
		subs = make(map[string]struct{})
		m.channels[channel] = subs
	}
	subs[conn.id] = struct{}{}
	m.mu.Unlock()

	// First subscriber opens the LISTEN; later ones share it.
	if !existed {
		if err := m.listener.Listen(conn.ctx, channel); err != nil {
			m.mu.Lock()
			delete(subs, conn.id)
			if len(subs) == 0 {
				delete(m.channels, channel)
			}
			m.mu.Unlock()
			return err
		}
	}
	return nil
}

func (m *ConnectionManager) unsubscribe(connID, channel string) {
	m.mu.Lock()
	subs, ok := m.channels[channel]
	if ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(m.channels, channel)
		}
	}
	empty := ok && len(subs) == 0
	m.mu.Unlock()

	if !empty {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.listener.Unlisten(ctx, channel); err != nil {
		m.logger.Warn("Unlisten failed", "channel", channel, "error", err)
		return
	}

	// A client may have subscribed between dropping the lock and the
	// UNLISTEN completing; restore the LISTEN for them.
	m.mu.RLock()
	resubscribed := len(m.channels[channel]) > 0
	m.mu.RUnlock()
	if resubscribed {
		if err := m.listener.Listen(ctx, channel); err != nil {
			m.logger.Error("Failed to restore channel listen", "channel", channel, "error", err)
		}
	}
}

func (m *ConnectionManager) sendCatchup(conn *connection, channel string, lastID int64) {
	if channel == "" {
		m.writeJSON(conn, map[string]any{"type": "error", "message": "channel required"})
		return
	}

	ctx, cancel := context.WithTimeout(conn.ctx, 10*time.Second)
	defer cancel()

	evts, err := m.catchup.GetEventsSince(ctx, channel, lastID, catchupLimit)
	if err != nil {
		m.logger.Error("Catchup query failed", "channel", channel, "error", err)
		m.writeJSON(conn, map[string]any{"type": "error", "message": "catchup failed"})
		return
	}

	for _, evt := range evts {
		payload := evt.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		payload["db_event_id"] = evt.ID
		m.writeJSON(conn, payload)
	}
	m.writeJSON(conn, map[string]any{
		"type":    "catchup.complete",
		"channel": channel,
		"count":   len(evts),
	})
}

func (m *ConnectionManager) removeConnection(conn *connection) {
	conn.cancel()

	m.mu.Lock()
	delete(m.connections, conn.id)
	channels := make([]string, 0)
	for channel, subs := range m.channels {
		if _, ok := subs[conn.id]; ok {
			channels = append(channels, channel)
		}
	}
	m.mu.Unlock()

	for _, channel := range channels {
		m.unsubscribe(conn.id, channel)
	}

	conn.ws.Close(websocket.StatusNormalClosure, "")
	m.logger.Info("WebSocket client removed", "conn_id", conn.id)
}

func (m *ConnectionManager) write(conn *connection, data []byte) {
	ctx, cancel := context.WithTimeout(conn.ctx, writeTimeout)
	defer cancel()
	if err := conn.ws.Write(ctx, websocket.MessageText, data); err != nil {
		m.logger.Debug("WebSocket write failed", "conn_id", conn.id, "error", err)
	}
}

func (m *ConnectionManager) writeJSON(conn *connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Error("Failed to marshal outbound message", "error", err)
		return
	}
	m.write(conn, data)
}
