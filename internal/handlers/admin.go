package handlers

import (
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"net/http"

	"docchat/internal/contextutil"
	"docchat/internal/ingest"
	"docchat/internal/session"
	"docchat/internal/storage"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 64 << 20

// AdminHandler exposes the corpus management API: upload, list, ingest,
// database reset. Every route is token-gated.
type AdminHandler struct {
	staging  *ingest.Staging
	pipeline *ingest.Pipeline
	db       *sql.DB
	sessions *session.Manager
	token    string
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(staging *ingest.Staging, pipeline *ingest.Pipeline, db *sql.DB, sessions *session.Manager, token string) *AdminHandler {
	return &AdminHandler{
		staging:  staging,
		pipeline: pipeline,
		db:       db,
		sessions: sessions,
		token:    token,
	}
}

// RequireToken rejects requests whose admin token does not exactly match.
// The token comes from the X-Admin-Token header or the admin query parameter.
func (h *AdminHandler) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Admin-Token")
		if token == "" {
			token = r.URL.Query().Get("admin")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
			writeJSONError(w, http.StatusUnauthorized, "Invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UploadResponse represents a successful upload.
type UploadResponse struct {
	Filename string `json:"filename"`
}

// Upload accepts a multipart document and writes it to the staging directory.
func (h *AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "invalid upload request", "error", err)
		writeJSONError(w, http.StatusBadRequest, "A file field is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	name, err := h.staging.Save(header.Filename, file)
	if err != nil {
		logger.WarnContext(ctx, "upload rejected", "filename", header.Filename, "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.InfoContext(ctx, "document staged", "filename", name, "size", header.Size)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(UploadResponse{Filename: name})
}

// FilesResponse lists the staged files waiting for ingestion.
type FilesResponse struct {
	Files []ingest.StagedFile `json:"files"`
}

// Files lists the staging directory.
func (h *AdminHandler) Files(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	files, err := h.staging.List()
	if err != nil {
		logger.ErrorContext(ctx, "failed to list staged files", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to list staged files")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(FilesResponse{Files: files})
}

// Ingest runs the ingestion pipeline for one staged file.
func (h *AdminHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ingest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid ingest request", "error", err)
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Filename == "" {
		writeJSONError(w, http.StatusBadRequest, "filename is required")
		return
	}

	result, err := h.pipeline.Ingest(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "filename", req.Filename, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Ingestion failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// ResetResponse confirms a database reset.
type ResetResponse struct {
	Status string `json:"status"`
}

// ResetDB drops and recreates the chat history schema, and wipes the
// in-memory conversation state that referenced the dropped rows.
func (h *AdminHandler) ResetDB(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := storage.Reset(h.db); err != nil {
		logger.ErrorContext(ctx, "failed to reset database", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to reset database")
		return
	}
	if h.sessions != nil {
		h.sessions.Reset()
	}

	logger.InfoContext(ctx, "chat history reset")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ResetResponse{Status: "reset"})
}
