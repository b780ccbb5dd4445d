package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/brightpath-labs/concierge/pkg/models"
)

// StepService manages the persisted reasoning trace of a turn.
type StepService struct {
	db *sql.DB
}

// NewStepService creates a StepService on the shared pool.
func NewStepService(db *sql.DB) *StepService {
	return &StepService{db: db}
}

// CreateStep inserts one trace entry. Index must be unique within the turn.
func (s *StepService) CreateStep(ctx context.Context, step models.Step) (*models.Step, error) {
	var toolInput []byte
	if step.ToolInput != nil {
		var err error
		if toolInput, err = json.Marshal(step.ToolInput); err != nil {
			return nil, fmt.Errorf("failed to marshal tool input: %w", err)
		}
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO steps (turn_id, idx, step_type, content, tool_name, tool_input)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		step.TurnID, step.Index, step.StepType, step.Content, step.ToolName, toolInput,
	).Scan(&step.ID, &step.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create step: %w", err)
	}

	return &step, nil
}

// UpdateStepContent replaces a step's content, used when a streaming step
// finalizes.
func (s *StepService) UpdateStepContent(ctx context.Context, turnID string, index int, content string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE steps SET content = $3 WHERE turn_id = $1 AND idx = $2`,
		turnID, index, content)
	if err != nil {
		return fmt.Errorf("failed to update step: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("step %d of turn %s: %w", index, turnID, ErrNotFound)
	}
	return nil
}

// GetStepsByTurn returns a turn's trace in step order.
func (s *StepService) GetStepsByTurn(ctx context.Context, turnID string) ([]models.Step, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, turn_id, idx, step_type, content, tool_name, tool_input, created_at
		 FROM steps WHERE turn_id = $1 ORDER BY idx`, turnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []models.Step
	for rows.Next() {
		var step models.Step
		var toolInput []byte
		if err := rows.Scan(&step.ID, &step.TurnID, &step.Index, &step.StepType,
			&step.Content, &step.ToolName, &toolInput, &step.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		if len(toolInput) > 0 {
			if err := json.Unmarshal(toolInput, &step.ToolInput); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool input: %w", err)
			}
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}
