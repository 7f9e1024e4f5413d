package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_history_store.go -package=mocks docchat/internal/storage HistoryStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// HistoryStore defines the interface for chat history persistence.
type HistoryStore interface {
	// RecordTurn appends one conversation turn.
	RecordTurn(ctx context.Context, turn *ChatTurn) error
	// ListBySession returns all turns for a session in insertion order.
	ListBySession(ctx context.Context, sessionID string) ([]ChatTurn, error)
}

// HistoryRepo provides chat history operations backed by SQLite.
// It implements the HistoryStore interface.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo creates a new HistoryRepo.
func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// RecordTurn appends one conversation turn.
func (r *HistoryRepo) RecordTurn(ctx context.Context, turn *ChatTurn) error {
	var userID any
	if turn.UserID != "" {
		userID = turn.UserID
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_history (user_id, session_id, user_query, model_response, retrieved_context)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, turn.SessionID, turn.UserQuery, turn.Response, turn.Context,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat turn: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		turn.ID = id
	}
	return nil
}

// ListBySession returns all turns for a session, oldest first.
func (r *HistoryRepo) ListBySession(ctx context.Context, sessionID string) ([]ChatTurn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, COALESCE(user_id, ''), session_id, user_query, model_response,
		        COALESCE(retrieved_context, ''), created_at
		 FROM chat_history WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var turns []ChatTurn
	for rows.Next() {
		var turn ChatTurn
		if err := rows.Scan(&turn.ID, &turn.UserID, &turn.SessionID, &turn.UserQuery,
			&turn.Response, &turn.Context, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat turn: %w", err)
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return turns, nil
}
