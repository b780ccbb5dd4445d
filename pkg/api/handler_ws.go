package api

import "github.com/gin-gonic/gin"

// handleWebSocket upgrades GET /ws and hands the connection to the
// event fan-out. Blocks until the client disconnects.
func (s *Server) handleWebSocket(c *gin.Context) {
	s.connMgr.HandleConnection(c.Writer, c.Request)
}
