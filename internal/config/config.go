package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the versicle service.
type Config struct {
	DBPath    string
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	// Progress tracker timing. A location must stay stable for DebounceQuiet
	// before it is persisted, and no write happens earlier than MinSession
	// after the book was opened.
	DebounceQuiet time.Duration
	MinSession    time.Duration

	// Annotation persistence retry policy.
	PersistRetries int
	PersistBackoff time.Duration

	// Search index (Qdrant + embeddings server).
	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int
	EmbeddingBaseURL string
	EmbeddingModel   string

	// Chat-completions endpoint used for TOC title enhancement.
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded
// automatically. Environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up to find project root by looking for a .env file
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
		DBPath:           getEnv("DB_PATH", "./data/versicle.db"),
		APIPort:          getEnv("API_PORT", "9400"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "chapters"),
		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		LLMBaseURL:       getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMAPIKey:        getEnv("LLM_API_KEY", "dummy-key"),
		LLMModel:         getEnv("LLM_MODEL", "gemini-2.5-flash-lite"),
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg.DebounceQuiet, err = getDuration("PROGRESS_DEBOUNCE_MS", 1000*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.MinSession, err = getDuration("PROGRESS_MIN_SESSION_MS", 2000*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.PersistBackoff, err = getDuration("PERSIST_BACKOFF_MS", 250*time.Millisecond)
	if err != nil {
		return nil, err
	}

	retriesStr := getEnv("PERSIST_RETRIES", "5")
	cfg.PersistRetries, err = strconv.Atoi(retriesStr)
	if err != nil || cfg.PersistRetries < 0 {
		return nil, fmt.Errorf("PERSIST_RETRIES must be a non-negative integer")
	}

	// Vector size must match the embeddings model output; the Qdrant collection
	// has to be recreated if it changes.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "1024")
	cfg.QdrantVectorSize, err = strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if cfg.QdrantVectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}

	if cfg.DebounceQuiet <= 0 {
		return nil, fmt.Errorf("PROGRESS_DEBOUNCE_MS must be greater than 0")
	}

	// Create the data directory if it doesn't exist (for the DB file)
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// parseLogLevel converts a level name to a slog.Level.
func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q (want debug|info|warn|error)", s)
	}
}

// getDuration reads a millisecond-valued environment variable.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer millisecond value: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
