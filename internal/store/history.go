package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// HistoryRepository persists generation attempts, success or failure
type HistoryRepository struct {
	db *sql.DB
}

// Create appends a history entry
func (r *HistoryRepository) Create(ctx context.Context, h *GenerationHistory) (*GenerationHistory, error) {
	now := time.Now()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO generation_history (topic, prompt, response, tokens_used, cost, status, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.Topic, h.Prompt, h.Response, h.TokensUsed, h.Cost, h.Status, h.ErrorMessage, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert generation history: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read history id: %w", err)
	}

	stored := *h
	stored.ID = id
	stored.CreatedAt = now
	return &stored, nil
}

// ListRecent returns the most recent entries, newest first
func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]*GenerationHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, topic, prompt, response, tokens_used, cost, status, error_message, created_at
		 FROM generation_history ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select generation history: %w", err)
	}
	defer rows.Close()

	var result []*GenerationHistory
	for rows.Next() {
		var (
			h          GenerationHistory
			response   sql.NullString
			tokensUsed sql.NullInt64
			cost       sql.NullString
			errMsg     sql.NullString
			createdAt  int64
		)
		if err := rows.Scan(&h.ID, &h.Topic, &h.Prompt, &response, &tokensUsed,
			&cost, &h.Status, &errMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		h.Response = response.String
		h.TokensUsed = tokensUsed.Int64
		h.Cost = cost.String
		h.ErrorMessage = errMsg.String
		h.CreatedAt = time.Unix(createdAt, 0)
		result = append(result, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
