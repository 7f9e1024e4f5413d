package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// LLM settings. Provider, model and API key are required and validated
	// at load time so a misconfigured deployment fails before serving traffic.
	LLMProvider  string
	LLMModel     string
	GeminiAPIKey string

	// Embeddings endpoint used to vectorize queries and ingested chunks.
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string

	// Qdrant settings. The collection is the corpus identifier: one fixed
	// corpus per deployment.
	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	// Chat history database.
	DBPath string

	// Admin view access token (exact match on the ?admin= query parameter).
	AdminToken string

	// Document staging / object storage.
	StagingDir string
	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3KeyID    string
	S3Secret   string

	// Retrieval pipeline tunables.
	RetrievalTopK      int
	SecondPassTopK     int
	MinSnippetLen      int
	ContextCharBudget  int
	RerankBatchSize    int
	RerankEnabled      bool
	SecondPassEnabled  bool
	RetrievalTimeout   time.Duration
	RerankBatchTimeout time.Duration
	GenerateTimeout    time.Duration

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be
// loaded automatically; variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Try to find project root by looking for a .env next to go.mod
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMProvider:  strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		LLMModel:     strings.TrimSpace(os.Getenv("LLM_MODEL")),
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),

		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "documents"),

		DBPath:     getEnv("DB_PATH", "./data/docchat.db"),
		AdminToken: strings.TrimSpace(os.Getenv("ADMIN_TOKEN")),

		StagingDir: getEnv("STAGING_DIR", "./data/uploads"),
		S3Bucket:   os.Getenv("S3_BUCKET"),
		S3Region:   getEnv("S3_REGION", "us-east-1"),
		S3Endpoint: os.Getenv("S3_ENDPOINT"),
		S3KeyID:    os.Getenv("S3_ACCESS_KEY_ID"),
		S3Secret:   os.Getenv("S3_SECRET_ACCESS_KEY"),

		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	// Required fields: fail fast, no partial configuration allowed.
	if cfg.LLMProvider == "" {
		return nil, fmt.Errorf("LLM_PROVIDER is required")
	}
	if cfg.LLMModel == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("ADMIN_TOKEN is required")
	}

	// Vector size must match the embedding model output; the Qdrant collection
	// is validated against it on startup.
	vectorSizeStr := os.Getenv("QDRANT_VECTOR_SIZE")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	cfg.RetrievalTopK, err = getEnvInt("RETRIEVAL_TOP_K", 5)
	if err != nil {
		return nil, err
	}
	cfg.SecondPassTopK, err = getEnvInt("SECOND_PASS_TOP_K", 3)
	if err != nil {
		return nil, err
	}
	cfg.MinSnippetLen, err = getEnvInt("MIN_SNIPPET_LEN", 40)
	if err != nil {
		return nil, err
	}
	cfg.ContextCharBudget, err = getEnvInt("CONTEXT_CHAR_BUDGET", 8000)
	if err != nil {
		return nil, err
	}
	cfg.RerankBatchSize, err = getEnvInt("RERANK_BATCH_SIZE", 5)
	if err != nil {
		return nil, err
	}

	cfg.RerankEnabled = getEnv("RERANK_ENABLED", "true") == "true"
	cfg.SecondPassEnabled = getEnv("SECOND_PASS_ENABLED", "true") == "true"

	cfg.RetrievalTimeout, err = getEnvDuration("RETRIEVAL_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.RerankBatchTimeout, err = getEnvDuration("RERANK_BATCH_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.GenerateTimeout, err = getEnvDuration("GENERATE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	// Create data and staging directories if they don't exist.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.StagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets a positive integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}

// getEnvDuration gets a positive duration environment variable or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}
