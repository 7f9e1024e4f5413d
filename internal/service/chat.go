package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService docchat/internal/service ChatService

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docchat/internal/contextutil"
	"docchat/internal/llm"
	"docchat/internal/rag"
	"docchat/internal/session"
	"docchat/internal/storage"
)

const systemPrompt = `You are a document assistant. Answer the user's question using ONLY the numbered context snippets provided. Cite the snippet numbers you used, like [1] or [2]. If the context does not contain the answer, say you could not find it in the documents. Do not use outside knowledge.`

// TurnRequest represents one chat turn in the domain layer.
type TurnRequest struct {
	SessionID string
	UserID    string
	Message   string `validate:"required"`
}

// TurnResponse represents the answer to one chat turn.
type TurnResponse struct {
	Answer    string
	Citations []string
	Snippets  int
}

// ChatService provides retrieval-grounded chat functionality.
type ChatService interface {
	// ProcessTurn answers one user question grounded in retrieved context
	// and records the completed turn.
	ProcessTurn(ctx context.Context, req TurnRequest) (TurnResponse, error)
}

// Options tunes the chat service.
type Options struct {
	// GenerateTimeout bounds the generation model call; zero means no timeout.
	GenerateTimeout time.Duration
}

// chatService implements ChatService.
type chatService struct {
	engine    rag.Engine
	generator llm.Generator
	history   storage.HistoryStore
	sessions  *session.Manager
	opts      Options
}

// NewChatService creates a new ChatService.
func NewChatService(engine rag.Engine, generator llm.Generator, history storage.HistoryStore, sessions *session.Manager, opts Options) ChatService {
	return &chatService{
		engine:    engine,
		generator: generator,
		history:   history,
		sessions:  sessions,
		opts:      opts,
	}
}

// ProcessTurn runs the full pipeline for one question: grounded context,
// generation, then best-effort recording. Turns that fail before a response
// exists are not recorded.
func (s *chatService) ProcessTurn(ctx context.Context, req TurnRequest) (TurnResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)
	started := time.Now()

	if strings.TrimSpace(req.Message) == "" {
		logger.WarnContext(ctx, "empty message in chat turn")
		return TurnResponse{}, &ValidationError{
			Field:   "message",
			Message: "cannot be empty",
		}
	}

	grounded, err := s.engine.GroundedContext(ctx, req.Message)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build grounded context", "error", err)
		return TurnResponse{}, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	// Nothing retrieved: the sentinel is the answer, no model call.
	if grounded.Context == rag.NoRelevantDocuments {
		resp := TurnResponse{
			Answer:    rag.NoRelevantDocuments,
			Citations: []string{},
		}
		s.finishTurn(ctx, req, resp, grounded.Context)
		logger.InfoContext(ctx, "chat turn answered without context",
			"elapsed_ms", time.Since(started).Milliseconds())
		return resp, nil
	}

	answer, err := s.generate(ctx, grounded.Context, req.Message)
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate answer", "error", err)
		return TurnResponse{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	resp := TurnResponse{
		Answer:    withSources(answer, grounded.Citations),
		Citations: grounded.Citations,
		Snippets:  grounded.SnippetCount,
	}
	s.finishTurn(ctx, req, resp, grounded.Context)

	logger.InfoContext(ctx, "chat turn processed",
		"snippets", grounded.SnippetCount,
		"citations", len(grounded.Citations),
		"comparison", grounded.Comparison,
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
	return resp, nil
}

// generate calls the generation model with the configured timeout.
func (s *chatService) generate(ctx context.Context, contextBlock, question string) (string, error) {
	if s.opts.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.GenerateTimeout)
		defer cancel()
	}

	user := fmt.Sprintf("Context:\n%s\nQuestion: %s", contextBlock, question)
	return s.generator.Generate(ctx, systemPrompt, user)
}

// finishTurn records the turn and updates conversation state. Recording is
// best-effort: a storage failure is logged, never surfaced to the user.
func (s *chatService) finishTurn(ctx context.Context, req TurnRequest, resp TurnResponse, retrievedContext string) {
	logger := contextutil.LoggerFromContext(ctx)

	turn := &storage.ChatTurn{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		UserQuery: req.Message,
		Response:  resp.Answer,
		Context:   retrievedContext,
	}
	if err := s.history.RecordTurn(ctx, turn); err != nil {
		logger.ErrorContext(ctx, "failed to record chat turn", "error", err)
	}

	if s.sessions != nil {
		s.sessions.Append(req.SessionID, req.Message, resp.Answer)
	}
}

// withSources appends a sources line listing the cited documents.
func withSources(answer string, citations []string) string {
	if len(citations) == 0 {
		return answer
	}
	return answer + "\n\nSources: " + strings.Join(citations, ", ")
}
