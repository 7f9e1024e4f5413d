package ingest

const (
	// DefaultChunkSize targets roughly 450 tokens for a 512-token embedding model.
	DefaultChunkSize = 700
	// DefaultChunkOverlap carries trailing context into the next chunk.
	DefaultChunkOverlap = 100
)

// ChunkText splits text into rune windows of at most size runes, each window
// starting overlap runes before the previous one ended. Sizes are in runes so
// multi-byte text chunks evenly.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
