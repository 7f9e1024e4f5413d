package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docchat/internal/handlers"
	"docchat/internal/ingest"
	"docchat/internal/service"
	"docchat/internal/session"
	"docchat/internal/storage"
	"docchat/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService service.ChatService
	Sessions    *session.Manager
	History     storage.HistoryStore
	Staging     *ingest.Staging
	IngestPipe  *ingest.Pipeline
	DB          *sql.DB
	VectorStore *vectorstore.QdrantStore
	Collection  string
	AdminToken  string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)
	r.Use(SessionMiddleware)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	historyHandler := handlers.NewHistoryHandler(deps.Sessions, deps.History)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Collection)
	adminHandler := handlers.NewAdminHandler(deps.Staging, deps.IngestPipe, deps.DB, deps.Sessions, deps.AdminToken)
	pageHandler := handlers.NewPageHandler(deps.AdminToken)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodGet, "/history", historyHandler)
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminHandler.RequireToken)
			r.Post("/upload", adminHandler.Upload)
			r.Get("/files", adminHandler.Files)
			r.Post("/ingest", adminHandler.Ingest)
			r.Post("/reset-db", adminHandler.ResetDB)
		})
	})

	r.Method(http.MethodGet, "/", pageHandler)

	return r
}
