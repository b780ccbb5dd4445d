// Package cleanup enforces the event log retention policy.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/brightpath-labs/concierge/pkg/config"
	"github.com/brightpath-labs/concierge/pkg/services"
)

// Service periodically deletes persisted events past their TTL. Stream
// chunks are never persisted, so the log only grows with step and turn
// events; once a turn's history is older than the TTL no client can
// meaningfully catch up on it anyway.
type Service struct {
	config   config.RetentionConfig
	eventSvc *services.EventService
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a retention service.
func NewService(cfg config.RetentionConfig, eventSvc *services.EventService, logger *slog.Logger) *Service {
	return &Service{
		config:   cfg,
		eventSvc: eventSvc,
		logger:   logger.With("component", "cleanup"),
	}
}

// Start launches the background retention loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	s.logger.Info("Cleanup service started",
		"event_ttl", s.config.EventTTL,
		"interval", s.config.CleanupInterval)
}

// Stop signals the loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single retention pass. Idempotent and safe to run
// from multiple replicas.
func (s *Service) RunOnce(ctx context.Context) {
	count, err := s.eventSvc.CleanupOldEvents(ctx, s.config.EventTTL)
	if err != nil {
		s.logger.Error("Event retention pass failed", "error", err)
		return
	}
	if count > 0 {
		s.logger.Info("Removed expired events", "count", count)
	}
}
