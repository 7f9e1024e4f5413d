package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"docchat/internal/config"
	"docchat/internal/http"
	"docchat/internal/ingest"
	"docchat/internal/llm"
	"docchat/internal/rag"
	"docchat/internal/retrieval"
	"docchat/internal/service"
	"docchat/internal/session"
	"docchat/internal/storage"
	"docchat/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	ctx := context.Background()

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	// Create generation model client
	generator, err := llm.NewGeminiGenerator(cfg.LLMProvider, cfg.LLMModel, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}
	slog.Info("Generator initialized", "provider", cfg.LLMProvider, "model", cfg.LLMModel)

	// Create retrieval pipeline
	retriever := retrieval.NewIndexRetriever(embedder, vectorStore, cfg.QdrantCollection, cfg.MinSnippetLen)
	reranker := rag.NewReranker(generator, cfg.RerankBatchSize, cfg.RerankBatchTimeout)
	ragEngine := rag.NewEngine(retriever, reranker, rag.Options{
		TopK:              cfg.RetrievalTopK,
		SecondPassTopK:    cfg.SecondPassTopK,
		MinSnippetLen:     cfg.MinSnippetLen,
		ContextCharBudget: cfg.ContextCharBudget,
		RerankEnabled:     cfg.RerankEnabled,
		SecondPassEnabled: cfg.SecondPassEnabled,
		RetrievalTimeout:  cfg.RetrievalTimeout,
	})
	slog.Info("RAG engine initialized")

	// Create chat service
	historyRepo := storage.NewHistoryRepo(db)
	sessions := session.NewManager()
	chatService := service.NewChatService(ragEngine, generator, historyRepo, sessions, service.Options{
		GenerateTimeout: cfg.GenerateTimeout,
	})

	// Create ingestion pipeline. Object storage is optional.
	staging := ingest.NewStaging(cfg.StagingDir)
	var uploader ingest.Uploader
	if cfg.S3Bucket != "" {
		s3Uploader, err := ingest.NewS3Uploader(ctx, ingest.S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			KeyID:    cfg.S3KeyID,
			Secret:   cfg.S3Secret,
		})
		if err != nil {
			log.Fatalf("Failed to create S3 uploader: %v", err)
		}
		uploader = s3Uploader
		slog.Info("Object storage configured", "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("S3_BUCKET not set, ingested documents will not be uploaded to object storage")
	}
	ingestPipe := ingest.NewPipeline(staging, uploader, embedder, vectorStore, cfg.QdrantCollection)

	// Create router with dependencies
	deps := &http.Deps{
		ChatService: chatService,
		Sessions:    sessions,
		History:     historyRepo,
		Staging:     staging,
		IngestPipe:  ingestPipe,
		DB:          db,
		VectorStore: vectorStore,
		Collection:  cfg.QdrantCollection,
		AdminToken:  cfg.AdminToken,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
