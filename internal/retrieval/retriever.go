package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks docchat/internal/retrieval Retriever

import (
	"context"
	"fmt"
	"unicode/utf8"

	"docchat/internal/contextutil"
	"docchat/internal/llm"
	"docchat/internal/vectorstore"
)

// Snippet is a retrieved passage of source text. Snippets have no persistent
// identity; they are recreated per query and discarded after context assembly.
type Snippet struct {
	// Text is the passage text.
	Text string
	// Source identifies the original document (a storage URI or file name).
	Source string
}

// Retriever issues a similarity query against the document index.
type Retriever interface {
	// Retrieve returns up to topK snippets in the index's relevance order.
	// Snippets shorter than the configured minimum length are discarded.
	// Errors propagate to the caller; no retry is attempted.
	Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error)
}

// IndexRetriever implements Retriever against one fixed corpus: it embeds
// the query and searches the vector index configured at deployment.
type IndexRetriever struct {
	embedder   *llm.EmbeddingsClient
	store      vectorstore.VectorStore
	collection string
	minLen     int
}

// NewIndexRetriever creates a retriever bound to one collection.
// minLen is the minimum snippet length in characters; shorter hits are dropped.
func NewIndexRetriever(embedder *llm.EmbeddingsClient, store vectorstore.VectorStore, collection string, minLen int) *IndexRetriever {
	return &IndexRetriever{
		embedder:   embedder,
		store:      store,
		collection: collection,
		minLen:     minLen,
	}
}

// Retrieve embeds the query and searches the corpus.
func (r *IndexRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be greater than 0")
	}

	embeddings, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	results, err := r.store.Search(ctx, r.collection, embeddings[0], topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	snippets := make([]Snippet, 0, len(results))
	dropped := 0
	for _, result := range results {
		// minLen counts characters, not bytes.
		if utf8.RuneCountInString(result.Payload.Text) < r.minLen {
			dropped++
			continue
		}
		snippets = append(snippets, Snippet{
			Text:   result.Payload.Text,
			Source: result.Payload.Source,
		})
	}

	logger.InfoContext(ctx, "retrieval completed",
		"collection", r.collection,
		"top_k", topK,
		"hits", len(results),
		"kept", len(snippets),
		"dropped_short", dropped,
	)
	return snippets, nil
}
