package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-labs/concierge/pkg/models"
	"github.com/brightpath-labs/concierge/pkg/services"
)

// writeServiceError maps persistence errors to HTTP responses.
func (s *Server) writeServiceError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "resource not found"})
		return
	}
	s.logger.Error("Unexpected service error", "error", err)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
}
