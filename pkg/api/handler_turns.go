package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultTurnListLimit = 50

func (s *Server) handleListTurns(c *gin.Context) {
	limit := defaultTurnListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	turns, err := s.turnSvc.ListRecentTurns(c.Request.Context(), limit)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

func (s *Server) handleGetTurn(c *gin.Context) {
	id := c.Param("id")

	turn, err := s.turnSvc.GetTurn(c.Request.Context(), id)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	steps, err := s.stepSvc.GetStepsByTurn(c.Request.Context(), id)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"turn": turn, "steps": steps})
}
