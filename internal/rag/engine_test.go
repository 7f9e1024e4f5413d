package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"docchat/internal/retrieval"
	"docchat/internal/retrieval/mocks"
)

func testOptions() Options {
	return Options{
		TopK:              5,
		SecondPassTopK:    2,
		MinSnippetLen:     5,
		ContextCharBudget: 2000,
		RerankEnabled:     false,
		SecondPassEnabled: true,
	}
}

func TestEngine_GroundedContextNoResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	retriever := mocks.NewMockRetriever(ctrl)
	retriever.EXPECT().
		Retrieve(gomock.Any(), "what is the meaning", 5).
		Return([]retrieval.Snippet{}, nil)

	engine := NewEngine(retriever, nil, testOptions())
	got, err := engine.GroundedContext(context.Background(), "what is the meaning")
	if err != nil {
		t.Fatalf("GroundedContext() error = %v", err)
	}
	if got.Context != NoRelevantDocuments {
		t.Errorf("Context = %q, want sentinel %q", got.Context, NoRelevantDocuments)
	}
	if len(got.Citations) != 0 {
		t.Errorf("Citations = %v, want empty", got.Citations)
	}
}

func TestEngine_GroundedContextRetrievalError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	retriever := mocks.NewMockRetriever(ctrl)
	retriever.EXPECT().
		Retrieve(gomock.Any(), gomock.Any(), 5).
		Return(nil, errors.New("index unreachable"))

	engine := NewEngine(retriever, nil, testOptions())
	if _, err := engine.GroundedContext(context.Background(), "any question"); err == nil {
		t.Fatal("GroundedContext() expected error on retrieval failure")
	}
}

func TestEngine_GroundedContextAssemblesSnippets(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	retriever := mocks.NewMockRetriever(ctrl)
	retriever.EXPECT().
		Retrieve(gomock.Any(), "how are batch records structured", 5).
		Return([]retrieval.Snippet{
			{Text: "batch records contain process steps", Source: "records.pdf"},
			{Text: "each record lists executed activities", Source: "records.pdf"},
		}, nil)

	engine := NewEngine(retriever, nil, testOptions())
	got, err := engine.GroundedContext(context.Background(), "how are batch records structured")
	if err != nil {
		t.Fatalf("GroundedContext() error = %v", err)
	}
	if got.SnippetCount != 2 {
		t.Errorf("SnippetCount = %d, want 2", got.SnippetCount)
	}
	if !strings.HasPrefix(got.Context, "[1] ") {
		t.Errorf("Context = %q, want numbered lines", got.Context)
	}
	if len(got.Citations) != 1 || got.Citations[0] != "records.pdf" {
		t.Errorf("Citations = %v, want [records.pdf]", got.Citations)
	}
	if got.Comparison {
		t.Error("Comparison = true for a plain question")
	}
}

func TestEngine_SecondPassPartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	retriever := mocks.NewMockRetriever(ctrl)
	// First pass.
	retriever.EXPECT().
		Retrieve(gomock.Any(), "compare steps and materials", 5).
		Return([]retrieval.Snippet{
			{Text: "overview of the production process", Source: "overview.pdf"},
		}, nil)
	// Second pass: one sub-query fails and is skipped, the other succeeds.
	retriever.EXPECT().
		Retrieve(gomock.Any(), "steps", 2).
		Return(nil, errors.New("transient"))
	retriever.EXPECT().
		Retrieve(gomock.Any(), "materials", 2).
		Return([]retrieval.Snippet{
			{Text: "materials table columns and usage", Source: "materials.pdf"},
		}, nil)

	engine := NewEngine(retriever, nil, testOptions())
	got, err := engine.GroundedContext(context.Background(), "compare steps and materials")
	if err != nil {
		t.Fatalf("GroundedContext() error = %v", err)
	}
	if !got.Comparison {
		t.Error("Comparison = false, want true")
	}
	if got.SnippetCount != 2 {
		t.Errorf("SnippetCount = %d, want 2 (first pass + surviving sub-query)", got.SnippetCount)
	}
	if !strings.Contains(got.Context, "materials table") {
		t.Errorf("Context missing second-pass snippet: %q", got.Context)
	}
}

func TestEngine_SecondPassDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	retriever := mocks.NewMockRetriever(ctrl)
	retriever.EXPECT().
		Retrieve(gomock.Any(), "compare steps and materials", 5).
		Return([]retrieval.Snippet{
			{Text: "overview of the production process", Source: "overview.pdf"},
		}, nil)
	// No second-pass calls expected.

	opts := testOptions()
	opts.SecondPassEnabled = false
	engine := NewEngine(retriever, nil, opts)
	got, err := engine.GroundedContext(context.Background(), "compare steps and materials")
	if err != nil {
		t.Fatalf("GroundedContext() error = %v", err)
	}
	if got.Comparison {
		t.Error("Comparison = true with second pass disabled")
	}
}

func TestEngine_DuplicateSnippetsDeduplicated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	retriever := mocks.NewMockRetriever(ctrl)
	retriever.EXPECT().
		Retrieve(gomock.Any(), gomock.Any(), 5).
		Return([]retrieval.Snippet{
			{Text: "identical snippet text returned twice", Source: "a.pdf"},
			{Text: "identical snippet text returned twice", Source: "b.pdf"},
		}, nil)

	engine := NewEngine(retriever, nil, testOptions())
	got, err := engine.GroundedContext(context.Background(), "plain question")
	if err != nil {
		t.Fatalf("GroundedContext() error = %v", err)
	}
	if got.SnippetCount != 1 {
		t.Errorf("SnippetCount = %d, want 1 after dedup", got.SnippetCount)
	}
}
