package handlers

import (
	"crypto/subtle"
	"net/http"

	"docchat/internal/web"
)

// PageHandler serves the chat page, or the admin page when the admin query
// parameter exactly matches the configured token.
type PageHandler struct {
	adminToken string
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(adminToken string) *PageHandler {
	return &PageHandler{adminToken: adminToken}
}

// ServeHTTP serves the root page.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page := web.ChatHTML
	token := r.URL.Query().Get("admin")
	if token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) == 1 {
		page = web.AdminHTML
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}
