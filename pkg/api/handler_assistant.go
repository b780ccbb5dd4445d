package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-labs/concierge/pkg/agent"
	"github.com/brightpath-labs/concierge/pkg/events"
	"github.com/brightpath-labs/concierge/pkg/llm"
	"github.com/brightpath-labs/concierge/pkg/models"
	"github.com/brightpath-labs/concierge/pkg/services"
	"github.com/brightpath-labs/concierge/pkg/tools"
)

// handleAssistant serves POST /v2/assistant: the unified entrypoint for
// both modes. Agent mode runs the reasoning loop and streams each trace
// step; standard mode streams the model completion directly. Either way
// the turn and its steps are persisted and mirrored to the turn's event
// channel.
func (s *Server) handleAssistant(c *gin.Context) {
	var req models.AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	userPrompt := req.LastUserPrompt()
	if userPrompt == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no user message found"})
		return
	}

	// The agent can only see the tools the client enabled. With no
	// usable tools the run degrades to standard streaming.
	enabled := s.registry.Filter(req.EnabledTools)
	mode := models.ModeStandard
	if req.Mode == models.ModeAgent && enabled.Len() > 0 {
		mode = models.ModeAgent
	}

	ctx := c.Request.Context()
	turn, err := s.turnSvc.CreateTurn(ctx, userPrompt, mode)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	s.logger.Info("Assistant turn started",
		"turn_id", turn.ID, "mode", mode, "enabled_tools", req.EnabledTools)

	writer := newDataStreamWriter(c)
	writer.Data(map[string]any{"turn_id": turn.ID, "mode": mode})

	s.publishTurnStatus(ctx, events.TurnStatusPayload{
		TurnID: turn.ID,
		Status: models.TurnStatusRunning,
	})

	if mode == models.ModeAgent {
		s.runAgentTurn(ctx, writer, turn.ID, userPrompt, enabled)
	} else {
		s.runStandardTurn(ctx, writer, turn.ID, req)
	}
}

func (s *Server) runAgentTurn(ctx context.Context, writer *dataStreamWriter, turnID, userPrompt string, enabled *tools.Registry) {
	executor := agent.NewExecutor(s.llmClient, enabled, s.cfg.Agent.MaxSteps)

	// Each formatted step flows through the trace mirror, which derives
	// the persisted step records and their events from the transcript.
	mirror := services.NewTraceMirror(turnID, s.stepSvc, s.publisher, s.logger)
	result, err := executor.Run(ctx, userPrompt, func(step agent.Step) {
		rendered := agent.FormatStep(step)
		writer.Text(rendered)
		mirror.Feed(ctx, rendered)
		s.publishStreamChunk(ctx, turnID, rendered)
	})
	if err != nil {
		mirror.Finalize(ctx)
		s.failTurn(ctx, writer, turnID, err.Error())
		return
	}

	rendered := agent.FormatFinalAnswer(result.FinalAnswer)
	writer.Text(rendered)
	mirror.Feed(ctx, rendered)
	mirror.Finalize(ctx)
	s.completeTurn(ctx, writer, turnID, result.FinalAnswer)
}

func (s *Server) runStandardTurn(ctx context.Context, writer *dataStreamWriter, turnID string, req models.AssistantRequest) {
	// Only the user side of the history is forwarded to the model.
	var messages []llm.Message
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: msg.Text()})
		}
	}

	chunks, errs := s.llmClient.ChatStream(ctx, messages)

	// Marker-free completions reconstruct to zero steps and a final
	// answer, so the mirror degrades to plain answer capture here.
	mirror := services.NewTraceMirror(turnID, s.stepSvc, s.publisher, s.logger)
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				final := mirror.Finalize(ctx)
				s.completeTurn(ctx, writer, turnID, final.FinalAnswer)
				return
			}
			if chunk.Content != "" {
				writer.Text(chunk.Content)
				mirror.Feed(ctx, chunk.Content)
				s.publishStreamChunk(ctx, turnID, chunk.Content)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				mirror.Finalize(ctx)
				s.failTurn(ctx, writer, turnID, err.Error())
				return
			}
		case <-ctx.Done():
			s.failTurn(ctx, writer, turnID, ctx.Err().Error())
			return
		}
	}
}

func (s *Server) completeTurn(ctx context.Context, writer *dataStreamWriter, turnID, finalAnswer string) {
	if err := s.turnSvc.CompleteTurn(ctx, turnID, finalAnswer); err != nil {
		s.logger.Error("Failed to complete turn", "turn_id", turnID, "error", err)
	}
	s.publishTurnStatus(ctx, events.TurnStatusPayload{
		TurnID:      turnID,
		Status:      models.TurnStatusCompleted,
		FinalAnswer: finalAnswer,
	})
	writer.Finish()
}

func (s *Server) failTurn(ctx context.Context, writer *dataStreamWriter, turnID, errMsg string) {
	s.logger.Error("Turn failed", "turn_id", turnID, "error", errMsg)
	if err := s.turnSvc.FailTurn(ctx, turnID, errMsg); err != nil {
		s.logger.Error("Failed to mark turn failed", "turn_id", turnID, "error", err)
	}
	s.publishTurnStatus(ctx, events.TurnStatusPayload{
		TurnID: turnID,
		Status: models.TurnStatusFailed,
		Error:  errMsg,
	})
	writer.Error(errMsg)
}

func (s *Server) publishTurnStatus(ctx context.Context, payload events.TurnStatusPayload) {
	if err := s.publisher.PublishTurnStatus(ctx, payload); err != nil {
		s.logger.Error("Failed to publish turn status", "turn_id", payload.TurnID, "error", err)
	}
}

func (s *Server) publishStreamChunk(ctx context.Context, turnID, content string) {
	if err := s.publisher.PublishStreamChunk(ctx, events.StreamChunkPayload{
		TurnID:  turnID,
		Content: content,
	}); err != nil {
		s.logger.Debug("Failed to publish stream chunk", "turn_id", turnID, "error", err)
	}
}
