package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"docchat/internal/contextutil"
	"docchat/internal/llm"
	"docchat/internal/vectorstore"
)

// Request describes one ingestion run for a staged file.
type Request struct {
	Filename     string `json:"filename"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

// Result summarizes a completed ingestion run.
type Result struct {
	Filename   string `json:"filename"`
	StorageURI string `json:"storage_uri"`
	Chunks     int    `json:"chunks"`
}

// Pipeline turns staged files into searchable index points: upload to object
// storage, chunk, embed, upsert.
type Pipeline struct {
	staging    *Staging
	uploader   Uploader
	embedder   *llm.EmbeddingsClient
	store      vectorstore.VectorStore
	collection string
}

// NewPipeline creates an ingestion pipeline. uploader may be nil when object
// storage is not configured; the staged file name then serves as the source.
func NewPipeline(staging *Staging, uploader Uploader, embedder *llm.EmbeddingsClient, store vectorstore.VectorStore, collection string) *Pipeline {
	return &Pipeline{
		staging:    staging,
		uploader:   uploader,
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
}

// Ingest processes one staged file end to end. The staged copy is removed
// after the index upsert succeeds.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Filename == "" {
		return Result{}, fmt.Errorf("filename is required")
	}

	content, err := p.staging.Read(req.Filename)
	if err != nil {
		return Result{}, err
	}

	source := req.Filename
	if p.uploader != nil {
		source, err = p.uploader.Upload(ctx, req.Filename, content)
		if err != nil {
			return Result{}, fmt.Errorf("failed to store document: %w", err)
		}
	}

	chunks := ChunkText(string(content), req.ChunkSize, req.ChunkOverlap)
	if len(chunks) == 0 {
		logger.WarnContext(ctx, "staged file produced no chunks", "filename", req.Filename)
		return Result{Filename: req.Filename, StorageURI: source}, nil
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return Result{}, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = vectorstore.Point{
			ID:  uuid.New().String(),
			Vec: embeddings[i],
			Payload: vectorstore.Payload{
				Text:       chunk,
				Source:     source,
				File:       req.Filename,
				ChunkIndex: i,
			},
		}
	}

	if err := p.store.Upsert(ctx, p.collection, points); err != nil {
		return Result{}, fmt.Errorf("failed to upsert vectors: %w", err)
	}

	if err := p.staging.Remove(req.Filename); err != nil {
		logger.WarnContext(ctx, "failed to remove staged file", "filename", req.Filename, "error", err)
	}

	logger.InfoContext(ctx, "ingested document",
		"filename", req.Filename,
		"source", source,
		"chunks", len(chunks),
	)
	return Result{Filename: req.Filename, StorageURI: source, Chunks: len(chunks)}, nil
}
