package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/brightpath-labs/concierge/pkg/events"
	"github.com/brightpath-labs/concierge/pkg/models"
	"github.com/brightpath-labs/concierge/pkg/trace"
)

// TraceMirror feeds a turn's streamed transcript through the trace
// reconstructor and mirrors the derived steps into the steps table and
// the turn's event channel. Steps are inserted when they first appear
// and rewritten once, when they finalize; a streaming step's content
// settles through the transient chunk events instead of row updates.
//
// Persistence is best-effort: a failed write is logged and never
// interrupts the stream.
type TraceMirror struct {
	turnID    string
	stepSvc   *StepService
	publisher *events.Publisher
	logger    *slog.Logger

	recon      *trace.Reconstructor
	transcript strings.Builder
	created    int
	finalized  []bool
}

// NewTraceMirror creates a mirror for one turn.
func NewTraceMirror(turnID string, stepSvc *StepService, publisher *events.Publisher, logger *slog.Logger) *TraceMirror {
	return &TraceMirror{
		turnID:    turnID,
		stepSvc:   stepSvc,
		publisher: publisher,
		logger:    logger.With("component", "trace_mirror", "turn_id", turnID),
		recon:     trace.NewReconstructor(),
	}
}

// Feed appends one transcript chunk and syncs the reconstructed trace.
func (m *TraceMirror) Feed(ctx context.Context, chunk string) trace.Trace {
	m.transcript.WriteString(chunk)
	tr := m.recon.Apply(m.transcript.String())
	m.sync(ctx, tr)
	return tr
}

// Finalize forces the trailing step complete and syncs the final trace.
// Returns the fully reconstructed trace, including the final answer.
func (m *TraceMirror) Finalize(ctx context.Context) trace.Trace {
	tr := m.recon.Finalize(m.transcript.String())
	m.sync(ctx, tr)
	return tr
}

func (m *TraceMirror) sync(ctx context.Context, tr trace.Trace) {
	for i, step := range tr.Steps {
		if i >= m.created {
			m.createStep(ctx, i, step)
			m.created++
			m.finalized = append(m.finalized, false)
		}
		if !m.finalized[i] && !step.Streaming {
			m.completeStep(ctx, i, step)
			m.finalized[i] = true
		}
	}
}

func (m *TraceMirror) createStep(ctx context.Context, index int, step trace.Step) {
	record := models.Step{
		TurnID:    m.turnID,
		Index:     index,
		StepType:  string(step.Kind),
		Content:   step.Content,
		ToolName:  step.ToolName,
		ToolInput: step.ToolInput,
	}
	if _, err := m.stepSvc.CreateStep(ctx, record); err != nil {
		m.logger.Error("Failed to persist step", "index", index, "error", err)
	}

	if err := m.publisher.PublishStepCreated(ctx, events.StepCreatedPayload{
		TurnID:    m.turnID,
		Index:     index,
		StepType:  string(step.Kind),
		Content:   step.Content,
		ToolName:  step.ToolName,
		ToolInput: step.ToolInput,
	}); err != nil {
		m.logger.Error("Failed to publish step created", "index", index, "error", err)
	}
}

func (m *TraceMirror) completeStep(ctx context.Context, index int, step trace.Step) {
	content := step.Content
	if err := m.stepSvc.UpdateStepContent(ctx, m.turnID, index, content); err != nil {
		m.logger.Error("Failed to finalize step", "index", index, "error", err)
	}

	if err := m.publisher.PublishStepCompleted(ctx, events.StepCompletedPayload{
		TurnID:  m.turnID,
		Index:   index,
		Content: content,
	}); err != nil {
		m.logger.Error("Failed to publish step completed", "index", index, "error", err)
	}
}
