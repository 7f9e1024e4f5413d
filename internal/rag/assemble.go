package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"docchat/internal/contextutil"
	"docchat/internal/retrieval"
)

const (
	headSize = 3
	tailSize = 2
	// reorderThreshold: lists at or below this length keep their order.
	reorderThreshold = headSize + tailSize
)

// dedupSnippets removes exact-text duplicates, keeping the first occurrence.
// Order-preserving so the assembler stays deterministic for fixed input.
func dedupSnippets(snippets []retrieval.Snippet) []retrieval.Snippet {
	seen := make(map[string]bool, len(snippets))
	result := make([]retrieval.Snippet, 0, len(snippets))
	for _, snippet := range snippets {
		if seen[snippet.Text] {
			continue
		}
		seen[snippet.Text] = true
		result = append(result, snippet)
	}
	return result
}

// reorderHeadTail pins the highest-confidence snippets to both ends of the
// context: head (first 3) + middle + tail (last 2 of the original order).
// The generation model attends more strongly to the start and end of long
// contexts. Lists of 5 or fewer snippets are returned unchanged.
func reorderHeadTail(snippets []retrieval.Snippet) []retrieval.Snippet {
	if len(snippets) <= reorderThreshold {
		return snippets
	}

	head := snippets[:headSize]
	tail := snippets[len(snippets)-tailSize:]
	middle := snippets[headSize : len(snippets)-tailSize]

	result := make([]retrieval.Snippet, 0, len(snippets))
	result = append(result, head...)
	result = append(result, middle...)
	result = append(result, tail...)
	return result
}

// packContext formats surviving snippets as one-indexed bracketed lines and
// accumulates them until appending the next line would exceed charBudget.
// Remaining snippets are dropped; the truncation point is logged.
// Returns the context string, citations in first-seen order, and the number
// of snippets packed.
func packContext(ctx context.Context, snippets []retrieval.Snippet, charBudget, minLen int) (string, []string, int) {
	logger := contextutil.LoggerFromContext(ctx)

	var b strings.Builder
	var citations []string
	seenSources := make(map[string]bool)
	packed := 0
	dropped := 0

	for i, snippet := range snippets {
		// minLen counts characters, not bytes.
		if utf8.RuneCountInString(snippet.Text) < minLen {
			continue
		}

		line := fmt.Sprintf("[%d] %s\n", packed+1, strings.ReplaceAll(snippet.Text, "\n", " "))
		if b.Len()+len(line) > charBudget {
			// Strict prefix: stop at the first line that would overflow.
			dropped = len(snippets) - i
			break
		}

		b.WriteString(line)
		packed++
		if snippet.Source != "" && !seenSources[snippet.Source] {
			seenSources[snippet.Source] = true
			citations = append(citations, snippet.Source)
		}
	}

	if dropped > 0 {
		logger.InfoContext(ctx, "context budget reached, snippets dropped",
			"packed", packed,
			"dropped", dropped,
			"char_budget", charBudget,
		)
	}
	return b.String(), citations, packed
}
