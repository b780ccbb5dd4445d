package database

import (
	"context"
	"time"
)

// HealthStatus reports database reachability and pool utilization.
type HealthStatus struct {
	Healthy         bool   `json:"healthy"`
	Error           string `json:"error,omitempty"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
}

// Health pings the database with a short deadline and samples pool stats.
func (c *Client) Health(ctx context.Context) HealthStatus {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := HealthStatus{Healthy: true}
	if err := c.db.PingContext(pingCtx); err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}

	stats := c.db.Stats()
	status.OpenConnections = stats.OpenConnections
	status.InUse = stats.InUse
	status.Idle = stats.Idle

	return status
}
