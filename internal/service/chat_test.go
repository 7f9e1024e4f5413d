package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"docchat/internal/llm/mocks"
	"docchat/internal/rag"
	ragmocks "docchat/internal/rag/mocks"
	"docchat/internal/service"
	"docchat/internal/session"
	"docchat/internal/storage"
	storagemocks "docchat/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	// Suppress service logs for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type serviceMocks struct {
	engine    *ragmocks.MockEngine
	generator *mocks.MockGenerator
	history   *storagemocks.MockHistoryStore
	sessions  *session.Manager
}

func newTestService(t *testing.T, opts service.Options) (service.ChatService, serviceMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := serviceMocks{
		engine:    ragmocks.NewMockEngine(ctrl),
		generator: mocks.NewMockGenerator(ctrl),
		history:   storagemocks.NewMockHistoryStore(ctrl),
		sessions:  session.NewManager(),
	}
	svc := service.NewChatService(m.engine, m.generator, m.history, m.sessions, opts)
	return svc, m
}

func TestNewChatService(t *testing.T) {
	svc, _ := newTestService(t, service.Options{})
	if svc == nil {
		t.Fatal("NewChatService() returned nil")
	}
}

func TestChatService_ProcessTurn(t *testing.T) {
	grounded := rag.GroundedContext{
		Context:      "[1] batch records contain process steps\n",
		Citations:    []string{"records.pdf"},
		SnippetCount: 1,
	}

	tests := []struct {
		name         string
		req          service.TurnRequest
		mockSetup    func(m serviceMocks)
		wantErr      bool
		wantAnswer   string
		checkErrType func(error) bool
	}{
		{
			name: "successful turn",
			req:  service.TurnRequest{SessionID: "s1", Message: "what are batch records"},
			mockSetup: func(m serviceMocks) {
				m.engine.EXPECT().
					GroundedContext(gomock.Any(), "what are batch records").
					Return(grounded, nil)
				m.generator.EXPECT().
					Generate(gomock.Any(), gomock.Any(), gomock.Any()).
					Return("Batch records document production runs [1].", nil)
				m.history.EXPECT().
					RecordTurn(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantAnswer: "Batch records document production runs [1].\n\nSources: records.pdf",
		},
		{
			name: "empty message",
			req:  service.TurnRequest{SessionID: "s1", Message: "   "},
			mockSetup: func(m serviceMocks) {
				// No calls expected
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "message"
			},
		},
		{
			name: "retrieval failure",
			req:  service.TurnRequest{SessionID: "s1", Message: "anything"},
			mockSetup: func(m serviceMocks) {
				m.engine.EXPECT().
					GroundedContext(gomock.Any(), "anything").
					Return(rag.GroundedContext{}, errors.New("index unreachable"))
				// No generation, no recording
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrRetrieval)
			},
		},
		{
			name: "generation failure is not recorded",
			req:  service.TurnRequest{SessionID: "s1", Message: "anything"},
			mockSetup: func(m serviceMocks) {
				m.engine.EXPECT().
					GroundedContext(gomock.Any(), "anything").
					Return(grounded, nil)
				m.generator.EXPECT().
					Generate(gomock.Any(), gomock.Any(), gomock.Any()).
					Return("", errors.New("model unavailable"))
				// RecordTurn must not be called
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrGeneration)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(t, service.Options{})
			tt.mockSetup(m)

			resp, err := svc.ProcessTurn(context.Background(), tt.req)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ProcessTurn() expected error, got nil")
					return
				}
				if tt.checkErrType != nil && !tt.checkErrType(err) {
					t.Errorf("ProcessTurn() error type mismatch: %v", err)
				}
				return
			}

			if err != nil {
				t.Errorf("ProcessTurn() unexpected error: %v", err)
				return
			}
			if resp.Answer != tt.wantAnswer {
				t.Errorf("ProcessTurn() answer = %q, want %q", resp.Answer, tt.wantAnswer)
			}
		})
	}
}

func TestChatService_ProcessTurn_NoRelevantDocuments(t *testing.T) {
	svc, m := newTestService(t, service.Options{})

	m.engine.EXPECT().
		GroundedContext(gomock.Any(), "obscure question").
		Return(rag.GroundedContext{
			Context:   rag.NoRelevantDocuments,
			Citations: []string{},
		}, nil)
	// Sentinel answers skip the generation model but are still recorded.
	m.history.EXPECT().
		RecordTurn(gomock.Any(), gomock.Any()).
		Return(nil)

	resp, err := svc.ProcessTurn(context.Background(), service.TurnRequest{
		SessionID: "s1",
		Message:   "obscure question",
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}
	if resp.Answer != rag.NoRelevantDocuments {
		t.Errorf("Answer = %q, want sentinel verbatim", resp.Answer)
	}
	if len(resp.Citations) != 0 {
		t.Errorf("Citations = %v, want empty", resp.Citations)
	}
}

func TestChatService_ProcessTurn_RecordFailureSwallowed(t *testing.T) {
	svc, m := newTestService(t, service.Options{})

	m.engine.EXPECT().
		GroundedContext(gomock.Any(), "question").
		Return(rag.GroundedContext{
			Context:      "[1] a relevant passage\n",
			Citations:    []string{"doc.pdf"},
			SnippetCount: 1,
		}, nil)
	m.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("An answer [1].", nil)
	m.history.EXPECT().
		RecordTurn(gomock.Any(), gomock.Any()).
		Return(errors.New("disk full"))

	resp, err := svc.ProcessTurn(context.Background(), service.TurnRequest{
		SessionID: "s1",
		Message:   "question",
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v, recording failures must not surface", err)
	}
	if !strings.HasPrefix(resp.Answer, "An answer [1].") {
		t.Errorf("Answer = %q", resp.Answer)
	}
}

func TestChatService_ProcessTurn_RecordsTurnFields(t *testing.T) {
	svc, m := newTestService(t, service.Options{})

	m.engine.EXPECT().
		GroundedContext(gomock.Any(), "question").
		Return(rag.GroundedContext{
			Context:      "[1] a relevant passage\n",
			Citations:    []string{"doc.pdf"},
			SnippetCount: 1,
		}, nil)
	m.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("An answer [1].", nil)

	var recorded *storage.ChatTurn
	m.history.EXPECT().
		RecordTurn(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, turn *storage.ChatTurn) error {
			recorded = turn
			return nil
		})

	_, err := svc.ProcessTurn(context.Background(), service.TurnRequest{
		SessionID: "s1",
		UserID:    "u1",
		Message:   "question",
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if recorded == nil {
		t.Fatal("RecordTurn() was not called")
	}
	if recorded.SessionID != "s1" || recorded.UserID != "u1" {
		t.Errorf("recorded session/user = %q/%q", recorded.SessionID, recorded.UserID)
	}
	if recorded.UserQuery != "question" {
		t.Errorf("recorded query = %q", recorded.UserQuery)
	}
	if recorded.Context != "[1] a relevant passage\n" {
		t.Errorf("recorded context = %q", recorded.Context)
	}

	exchanges := m.sessions.Exchanges("s1")
	if len(exchanges) != 1 || exchanges[0].Query != "question" {
		t.Errorf("session exchanges = %v, want the completed turn", exchanges)
	}
}

func TestChatService_ProcessTurn_GenerateTimeout(t *testing.T) {
	svc, m := newTestService(t, service.Options{GenerateTimeout: 10 * time.Millisecond})

	m.engine.EXPECT().
		GroundedContext(gomock.Any(), "question").
		Return(rag.GroundedContext{
			Context:      "[1] a relevant passage\n",
			Citations:    []string{"doc.pdf"},
			SnippetCount: 1,
		}, nil)
	m.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
	// Timed-out turns must not be recorded.

	_, err := svc.ProcessTurn(context.Background(), service.TurnRequest{
		SessionID: "s1",
		Message:   "question",
	})
	if !errors.Is(err, service.ErrGeneration) {
		t.Fatalf("ProcessTurn() error = %v, want ErrGeneration", err)
	}
}
