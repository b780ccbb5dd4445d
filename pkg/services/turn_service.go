package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/brightpath-labs/concierge/pkg/models"
)

// TurnService manages turn records.
type TurnService struct {
	db *sql.DB
}

// NewTurnService creates a TurnService on the shared pool.
func NewTurnService(db *sql.DB) *TurnService {
	return &TurnService{db: db}
}

// CreateTurn inserts a new running turn and returns it.
func (s *TurnService) CreateTurn(ctx context.Context, userPrompt, mode string) (*models.Turn, error) {
	turn := &models.Turn{
		ID:         uuid.NewString(),
		UserPrompt: userPrompt,
		Mode:       mode,
		Status:     models.TurnStatusRunning,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO turns (id, user_prompt, mode) VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		turn.ID, turn.UserPrompt, turn.Mode,
	).Scan(&turn.CreatedAt, &turn.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create turn: %w", err)
	}

	return turn, nil
}

// GetTurn fetches one turn by id.
func (s *TurnService) GetTurn(ctx context.Context, id string) (*models.Turn, error) {
	var turn models.Turn
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_prompt, mode, status, final_answer, error, created_at, updated_at
		 FROM turns WHERE id = $1`, id,
	).Scan(&turn.ID, &turn.UserPrompt, &turn.Mode, &turn.Status,
		&turn.FinalAnswer, &turn.Error, &turn.CreatedAt, &turn.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("turn %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get turn: %w", err)
	}
	return &turn, nil
}

// CompleteTurn marks a turn completed with its final answer.
func (s *TurnService) CompleteTurn(ctx context.Context, id, finalAnswer string) error {
	return s.setStatus(ctx, id, models.TurnStatusCompleted, finalAnswer, "")
}

// FailTurn marks a turn failed with an error description.
func (s *TurnService) FailTurn(ctx context.Context, id, errMsg string) error {
	return s.setStatus(ctx, id, models.TurnStatusFailed, "", errMsg)
}

func (s *TurnService) setStatus(ctx context.Context, id, status, finalAnswer, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE turns SET status = $2, final_answer = $3, error = $4, updated_at = now()
		 WHERE id = $1`,
		id, status, finalAnswer, errMsg)
	if err != nil {
		return fmt.Errorf("failed to update turn %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("turn %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListRecentTurns returns the newest turns first, capped at limit.
func (s *TurnService) ListRecentTurns(ctx context.Context, limit int) ([]models.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_prompt, mode, status, final_answer, error, created_at, updated_at
		 FROM turns ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var turn models.Turn
		if err := rows.Scan(&turn.ID, &turn.UserPrompt, &turn.Mode, &turn.Status,
			&turn.FinalAnswer, &turn.Error, &turn.CreatedAt, &turn.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
