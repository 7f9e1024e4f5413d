package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"docchat/internal/contextutil"
	"docchat/internal/session"
	"docchat/internal/storage"
	"docchat/internal/storage/mocks"
)

func historyRequest(sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	if sessionID != "" {
		req = req.WithContext(contextutil.WithSessionID(req.Context(), sessionID))
	}
	return req
}

func TestHistoryHandler_ServesConversationState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := session.NewManager()
	sessions.Append("session-1", "first", "answer one")
	sessions.Append("session-1", "second", "answer two")

	// A live session is served from memory; the store must not be hit.
	mockHistory := mocks.NewMockHistoryStore(ctrl)

	handler := NewHistoryHandler(sessions, mockHistory)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, historyRequest("session-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("ServeHTTP() status = %d", w.Code)
	}

	var resp HistoryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.SessionID != "session-1" || len(resp.Turns) != 2 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Turns[0].Query != "first" || resp.Turns[1].Query != "second" {
		t.Errorf("turns out of order: %+v", resp.Turns)
	}
	if resp.Turns[0].CreatedAt.IsZero() {
		t.Error("in-memory turns missing timestamps")
	}
}

func TestHistoryHandler_FallsBackToRecordedTurns(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Empty manager, as after a restart: recorded turns are served instead.
	mockHistory := mocks.NewMockHistoryStore(ctrl)
	mockHistory.EXPECT().
		ListBySession(gomock.Any(), "session-1").
		Return([]storage.ChatTurn{
			{SessionID: "session-1", UserQuery: "first", Response: "answer one"},
			{SessionID: "session-1", UserQuery: "second", Response: "answer two"},
		}, nil)

	handler := NewHistoryHandler(session.NewManager(), mockHistory)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, historyRequest("session-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("ServeHTTP() status = %d", w.Code)
	}

	var resp HistoryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.SessionID != "session-1" || len(resp.Turns) != 2 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Turns[0].Query != "first" || resp.Turns[1].Query != "second" {
		t.Errorf("turns out of order: %+v", resp.Turns)
	}
}

func TestHistoryHandler_NoSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewHistoryHandler(session.NewManager(), mocks.NewMockHistoryStore(ctrl))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, historyRequest(""))

	if w.Code != http.StatusBadRequest {
		t.Errorf("ServeHTTP() status = %d, want 400 without session", w.Code)
	}
}

func TestHistoryHandler_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHistory := mocks.NewMockHistoryStore(ctrl)
	mockHistory.EXPECT().
		ListBySession(gomock.Any(), "session-1").
		Return(nil, errors.New("db closed"))

	handler := NewHistoryHandler(session.NewManager(), mockHistory)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, historyRequest("session-1"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("ServeHTTP() status = %d, want 500", w.Code)
	}
}

func TestHistoryHandler_MethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewHistoryHandler(session.NewManager(), mocks.NewMockHistoryStore(ctrl))

	req := httptest.NewRequest(http.MethodPost, "/api/history", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("ServeHTTP() status = %d, want 405", w.Code)
	}
}
