package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"docchat/internal/contextutil"
	"docchat/internal/llm"
	"docchat/internal/retrieval"
)

const (
	// snippetPreviewChars caps how much of each snippet goes into the
	// scoring prompt.
	snippetPreviewChars = 300
	// fallbackScore is assigned to every snippet of a degraded batch.
	fallbackScore = 0
)

const rerankSystemPrompt = "You are a relevance judge. You will be given a user question and a numbered list of " +
	"document snippets. Score how relevant each snippet is to the question on an integer scale " +
	"from 0 (irrelevant) to 10 (directly answers the question). Respond with ONLY a JSON array " +
	"of integers, one per snippet, in the same order as the input. No other text."

// batchScores is the explicit per-batch outcome: either real scores or a
// degraded batch where every snippet gets the fallback score. Degradation is
// data, not control flow.
type batchScores struct {
	scores   []int
	degraded bool
}

// Reranker reorders snippets by a secondary LLM relevance judgment.
type Reranker struct {
	generator    llm.Generator
	batchSize    int
	batchTimeout time.Duration
}

// NewReranker creates a reranker that scores snippets in fixed-size batches.
// batchTimeout bounds each scoring call; zero means no per-batch timeout.
func NewReranker(generator llm.Generator, batchSize int, batchTimeout time.Duration) *Reranker {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Reranker{
		generator:    generator,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
	}
}

// Rerank scores all snippets against the query and returns them reordered by
// descending score. A failed batch degrades to fallback scores for its own
// snippets only; it never aborts the operation. Ties keep their pre-rerank
// order (stable sort), which makes the output deterministic for fixed input.
func (r *Reranker) Rerank(ctx context.Context, query string, snippets []retrieval.Snippet) []retrieval.Snippet {
	logger := contextutil.LoggerFromContext(ctx)

	if len(snippets) <= 1 {
		return snippets
	}

	scored := make([]ScoredSnippet, 0, len(snippets))
	degradedBatches := 0

	for start := 0; start < len(snippets); start += r.batchSize {
		end := start + r.batchSize
		if end > len(snippets) {
			end = len(snippets)
		}
		batch := snippets[start:end]

		result := r.scoreBatch(ctx, query, batch)
		if result.degraded {
			degradedBatches++
		}
		for i, snippet := range batch {
			scored = append(scored, ScoredSnippet{Snippet: snippet, Score: result.scores[i]})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	reordered := make([]retrieval.Snippet, len(scored))
	for i, s := range scored {
		reordered[i] = s.Snippet
	}

	logger.InfoContext(ctx, "rerank completed",
		"snippets", len(snippets),
		"batch_size", r.batchSize,
		"degraded_batches", degradedBatches,
	)
	return reordered
}

// scoreBatch issues one scoring call for a batch and parses the score array.
// Any failure (call error, unparsable output, score count mismatch) yields a
// degraded result with fallback scores for the whole batch.
func (r *Reranker) scoreBatch(ctx context.Context, query string, batch []retrieval.Snippet) batchScores {
	logger := contextutil.LoggerFromContext(ctx)

	callCtx := ctx
	if r.batchTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.batchTimeout)
		defer cancel()
	}

	raw, err := r.generator.Generate(callCtx, rerankSystemPrompt, buildScoringPrompt(query, batch))
	if err != nil {
		logger.WarnContext(ctx, "rerank batch call failed, using fallback scores", "batch_size", len(batch), "error", err)
		return degradedBatch(len(batch))
	}

	scores, err := parseScores(raw)
	if err != nil {
		logger.WarnContext(ctx, "rerank batch response unparsable, using fallback scores", "batch_size", len(batch), "error", err)
		return degradedBatch(len(batch))
	}
	if len(scores) != len(batch) {
		logger.WarnContext(ctx, "rerank score count mismatch, using fallback scores",
			"batch_size", len(batch), "scores", len(scores))
		return degradedBatch(len(batch))
	}

	return batchScores{scores: scores}
}

// buildScoringPrompt formats the question and numbered snippet previews.
func buildScoringPrompt(query string, batch []retrieval.Snippet) string {
	var b strings.Builder
	b.WriteString("QUESTION:\n")
	b.WriteString(query)
	b.WriteString("\n\nSNIPPETS:\n")
	for i, snippet := range batch {
		preview := snippet.Text
		// Truncate on rune boundaries so the prompt stays valid UTF-8.
		if runes := []rune(preview); len(runes) > snippetPreviewChars {
			preview = string(runes[:snippetPreviewChars])
		}
		fmt.Fprintf(&b, "[%d] %s\n", i+1, preview)
	}
	return b.String()
}

// parseScores parses the model output as a JSON integer array, tolerating a
// markdown code fence around it.
func parseScores(raw string) ([]int, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var scores []int
	if err := json.Unmarshal([]byte(cleaned), &scores); err != nil {
		return nil, fmt.Errorf("failed to parse score array: %w", err)
	}
	return scores, nil
}

func degradedBatch(size int) batchScores {
	return batchScores{scores: make([]int, size), degraded: true}
}
