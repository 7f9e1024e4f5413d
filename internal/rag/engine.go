package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks docchat/internal/rag Engine

import (
	"context"
	"fmt"
	"time"

	"docchat/internal/contextutil"
	"docchat/internal/retrieval"
)

// Options tunes the retrieval and context assembly pipeline.
type Options struct {
	// TopK is the first-pass result count.
	TopK int
	// SecondPassTopK is the per-sub-query result count for comparison queries.
	SecondPassTopK int
	// MinSnippetLen is the minimum snippet length in characters.
	MinSnippetLen int
	// ContextCharBudget caps the assembled context size.
	ContextCharBudget int
	// RerankEnabled turns LLM reranking on or off.
	RerankEnabled bool
	// SecondPassEnabled turns comparison decomposition and second-pass
	// retrieval on or off.
	SecondPassEnabled bool
	// RetrievalTimeout bounds each retrieval call; zero means no timeout.
	RetrievalTimeout time.Duration
}

// Engine builds the grounded context block for a user question.
type Engine interface {
	// GroundedContext retrieves, optionally decomposes and reranks, and
	// assembles snippets into a budgeted context with citations.
	// A retrieval failure on the first pass propagates; everything after it
	// degrades rather than fails.
	GroundedContext(ctx context.Context, query string) (GroundedContext, error)
}

type engine struct {
	retriever retrieval.Retriever
	reranker  *Reranker
	opts      Options
}

// NewEngine creates the retrieval pipeline engine. reranker may be nil when
// reranking is disabled.
func NewEngine(retriever retrieval.Retriever, reranker *Reranker, opts Options) Engine {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.SecondPassTopK <= 0 {
		opts.SecondPassTopK = 3
	}
	return &engine{
		retriever: retriever,
		reranker:  reranker,
		opts:      opts,
	}
}

// GroundedContext runs the full pipeline for one question.
func (e *engine) GroundedContext(ctx context.Context, query string) (GroundedContext, error) {
	logger := contextutil.LoggerFromContext(ctx)

	started := time.Now()
	snippets, err := e.retrieve(ctx, query, e.opts.TopK)
	if err != nil {
		logger.ErrorContext(ctx, "first-pass retrieval failed", "error", err)
		return GroundedContext{}, fmt.Errorf("retrieval failed: %w", err)
	}
	logger.InfoContext(ctx, "first-pass retrieval done",
		"snippets", len(snippets),
		"elapsed", time.Since(started),
	)

	comparison := false
	if e.opts.SecondPassEnabled && IsComparison(query) {
		comparison = true
		snippets = e.secondPass(ctx, query, snippets)
	}

	if e.opts.RerankEnabled && e.reranker != nil {
		snippets = e.reranker.Rerank(ctx, query, snippets)
	}

	snippets = dedupSnippets(snippets)
	snippets = reorderHeadTail(snippets)

	contextStr, citations, packed := packContext(ctx, snippets, e.opts.ContextCharBudget, e.opts.MinSnippetLen)
	if contextStr == "" {
		logger.InfoContext(ctx, "no usable snippets, returning sentinel context")
		return GroundedContext{
			Context:    NoRelevantDocuments,
			Citations:  []string{},
			Comparison: comparison,
		}, nil
	}

	return GroundedContext{
		Context:      contextStr,
		Citations:    citations,
		SnippetCount: packed,
		Comparison:   comparison,
	}, nil
}

// secondPass decomposes a comparison query and retrieves per sub-query.
// A failing sub-query is logged and skipped; partial results are acceptable.
func (e *engine) secondPass(ctx context.Context, query string, snippets []retrieval.Snippet) []retrieval.Snippet {
	logger := contextutil.LoggerFromContext(ctx)

	subQueries := DecomposeComparison(query)
	logger.InfoContext(ctx, "comparison query decomposed", "sub_queries", subQueries)

	for _, subQuery := range subQueries {
		extra, err := e.retrieve(ctx, subQuery, e.opts.SecondPassTopK)
		if err != nil {
			logger.WarnContext(ctx, "second-pass retrieval failed, skipping sub-query",
				"sub_query", subQuery, "error", err)
			continue
		}
		snippets = append(snippets, extra...)
	}
	return snippets
}

// retrieve wraps one retrieval call with the configured timeout.
func (e *engine) retrieve(ctx context.Context, query string, topK int) ([]retrieval.Snippet, error) {
	if e.opts.RetrievalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RetrievalTimeout)
		defer cancel()
	}
	return e.retriever.Retrieve(ctx, query, topK)
}
