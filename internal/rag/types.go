package rag

import "docchat/internal/retrieval"

// NoRelevantDocuments is the sentinel context returned when retrieval yields
// nothing usable. The chat service returns it to the user verbatim.
const NoRelevantDocuments = "No relevant documents found."

// ScoredSnippet pairs a snippet with its rerank score. It exists only
// between reranking and the final sort.
type ScoredSnippet struct {
	Snippet retrieval.Snippet
	Score   int
}

// GroundedContext is the assembled context block for one question.
type GroundedContext struct {
	// Context is the numbered snippet block, or NoRelevantDocuments when
	// nothing survived assembly.
	Context string
	// Citations lists the distinct snippet sources in first-seen order.
	Citations []string
	// SnippetCount is the number of snippets packed into Context.
	SnippetCount int
	// Comparison reports whether the query was treated as a multi-entity
	// comparison (second-pass retrieval applied).
	Comparison bool
}
