package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-labs/concierge/pkg/version"
)

func (s *Server) handleHealth(c *gin.Context) {
	dbHealth := s.dbClient.Health(c.Request.Context())

	status := http.StatusOK
	overall := "healthy"
	if !dbHealth.Healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"version":  version.Full(),
		"database": dbHealth,
		"tools":    s.registry.Names(),
	})
}
