package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-labs/concierge/pkg/llm"
	"github.com/brightpath-labs/concierge/pkg/models"
)

// handleChat serves POST /chat: a plain SSE stream of model output for
// clients that do not speak the data stream protocol.
func (s *Server) handleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	messages := make([]llm.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	flusher, _ := c.Writer.(http.Flusher)

	ctx := c.Request.Context()
	chunks, errs := s.llmClient.ChatStream(ctx, messages)

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			if chunk.Content != "" {
				fmt.Fprintf(c.Writer, "data: %s\n\n", chunk.Content)
				if flusher != nil {
					flusher.Flush()
				}
			}
		case err, ok := <-errs:
			if ok && err != nil {
				s.logger.Error("Chat stream failed", "error", err)
				fmt.Fprintf(c.Writer, "data: {\"error\": %q}\n\n", err.Error())
				if flusher != nil {
					flusher.Flush()
				}
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
