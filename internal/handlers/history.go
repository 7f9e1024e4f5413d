package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"docchat/internal/contextutil"
	"docchat/internal/session"
	"docchat/internal/storage"
)

// HistoryHandler returns the conversation for the current session: the
// in-memory state when the session is live, the recorded turns otherwise.
type HistoryHandler struct {
	sessions *session.Manager
	history  storage.HistoryStore
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(sessions *session.Manager, history storage.HistoryStore) *HistoryHandler {
	return &HistoryHandler{sessions: sessions, history: history}
}

// HistoryTurn is one recorded turn in the HTTP response.
type HistoryTurn struct {
	Query     string    `json:"query"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse represents the HTTP response payload for history.
type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []HistoryTurn `json:"turns"`
}

// ServeHTTP handles HTTP requests for session history.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessionID := contextutil.SessionIDFromContext(ctx)
	if sessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "No session")
		return
	}

	turns, err := h.loadTurns(ctx, sessionID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list session history", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(HistoryResponse{SessionID: sessionID, Turns: turns}); err != nil {
		logger.ErrorContext(ctx, "failed to encode history response", "error", err)
	}
}

// loadTurns serves the in-memory conversation state when present. The state
// is lost on restart, so an empty session falls back to the recorded turns.
func (h *HistoryHandler) loadTurns(ctx context.Context, sessionID string) ([]HistoryTurn, error) {
	if h.sessions != nil {
		if exchanges := h.sessions.Exchanges(sessionID); len(exchanges) > 0 {
			turns := make([]HistoryTurn, len(exchanges))
			for i, ex := range exchanges {
				turns[i] = HistoryTurn{
					Query:     ex.Query,
					Reply:     ex.Answer,
					CreatedAt: ex.At,
				}
			}
			return turns, nil
		}
	}

	recorded, err := h.history.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	turns := make([]HistoryTurn, len(recorded))
	for i, turn := range recorded {
		turns[i] = HistoryTurn{
			Query:     turn.UserQuery,
			Reply:     turn.Response,
			CreatedAt: turn.CreatedAt,
		}
	}
	return turns, nil
}

// writeJSONError writes an error response.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
