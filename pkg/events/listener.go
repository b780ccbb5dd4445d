package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	// How long each WaitForNotification call blocks before the loop
	// checks for pending LISTEN/UNLISTEN commands or shutdown.
	notifyPollInterval = 100 * time.Millisecond

	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// NotificationHandler receives the raw payload of one notification.
type NotificationHandler func(channel, payload string)

type listenerCommand struct {
	listen  bool
	channel string
	done    chan error
}

// NotifyListener holds a dedicated PostgreSQL connection in LISTEN mode
// and dispatches notifications to a handler. LISTEN/UNLISTEN cannot run
// concurrently with WaitForNotification on the same connection, so all
// channel changes are funneled through the receive loop via cmdCh.
type NotifyListener struct {
	dsn     string
	handler NotificationHandler
	logger  *slog.Logger

	cmdCh  chan listenerCommand
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	channels map[string]struct{}
}

// NewNotifyListener creates a listener; Start must be called before
// Listen or Unlisten.
func NewNotifyListener(dsn string, handler NotificationHandler, logger *slog.Logger) *NotifyListener {
	return &NotifyListener{
		dsn:      dsn,
		handler:  handler,
		logger:   logger.With("component", "notify_listener"),
		cmdCh:    make(chan listenerCommand),
		channels: make(map[string]struct{}),
	}
}

// Start connects and launches the receive loop.
func (l *NotifyListener) Start(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect listener: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	l.wg.Add(1)
	go l.run(loopCtx, conn)

	l.logger.Info("Notification listener started")
	return nil
}

// Stop terminates the receive loop and closes the connection.
func (l *NotifyListener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
	l.logger.Info("Notification listener stopped")
}

// Listen subscribes the connection to a channel.
func (l *NotifyListener) Listen(ctx context.Context, channel string) error {
	return l.send(ctx, listenerCommand{listen: true, channel: channel, done: make(chan error, 1)})
}

// Unlisten unsubscribes the connection from a channel.
func (l *NotifyListener) Unlisten(ctx context.Context, channel string) error {
	return l.send(ctx, listenerCommand{listen: false, channel: channel, done: make(chan error, 1)})
}

func (l *NotifyListener) send(ctx context.Context, cmd listenerCommand) error {
	select {
	case l.cmdCh <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *NotifyListener) run(ctx context.Context, conn *pgx.Conn) {
	defer l.wg.Done()
	defer func() {
		if conn != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			conn.Close(closeCtx)
			cancel()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-l.cmdCh:
			cmd.done <- l.execCommand(ctx, conn, cmd)
			continue
		default:
		}

		waitCtx, cancel := context.WithTimeout(ctx, notifyPollInterval)
		notification, err := conn.WaitForNotification(waitCtx)
		cancel()

		switch {
		case err == nil:
			l.handler(notification.Channel, notification.Payload)
		case ctx.Err() != nil:
			return
		case waitCtx.Err() == context.DeadlineExceeded:
			// Poll timeout, loop around to service commands.
		default:
			l.logger.Error("Listener connection lost, reconnecting", "error", err)
			conn = l.reconnect(ctx)
			if conn == nil {
				return
			}
		}
	}
}

func (l *NotifyListener) execCommand(ctx context.Context, conn *pgx.Conn, cmd listenerCommand) error {
	verb := "UNLISTEN"
	if cmd.listen {
		verb = "LISTEN"
	}

	if _, err := conn.Exec(ctx, fmt.Sprintf(`%s %q`, verb, cmd.channel)); err != nil {
		return fmt.Errorf("failed to %s %s: %w", verb, cmd.channel, err)
	}

	l.mu.Lock()
	if cmd.listen {
		l.channels[cmd.channel] = struct{}{}
	} else {
		delete(l.channels, cmd.channel)
	}
	l.mu.Unlock()

	l.logger.Debug("Listener channel updated", "action", verb, "channel", cmd.channel)
	return nil
}

// reconnect retries with exponential backoff and re-LISTENs every channel
// that was active before the connection dropped.
func (l *NotifyListener) reconnect(ctx context.Context) *pgx.Conn {
	delay := reconnectBaseDelay
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		conn, err := pgx.Connect(ctx, l.dsn)
		if err != nil {
			l.logger.Warn("Listener reconnect failed", "error", err, "retry_in", delay)
			if delay *= 2; delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}
			continue
		}

		l.mu.Lock()
		channels := make([]string, 0, len(l.channels))
		for ch := range l.channels {
			channels = append(channels, ch)
		}
		l.mu.Unlock()

		ok := true
		for _, ch := range channels {
			if _, err := conn.Exec(ctx, fmt.Sprintf(`LISTEN %q`, ch)); err != nil {
				l.logger.Warn("Failed to restore channel after reconnect", "channel", ch, "error", err)
				closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				conn.Close(closeCtx)
				cancel()
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		l.logger.Info("Listener reconnected", "channels", len(channels))
		return conn
	}
}
