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
	Backend             string
	QdrantURL           string
	QdrantAPIKey        string
	ChromemPath         string
	Timeout             time.Duration
	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingAPIKey     string
	EmbeddingDimensions int
	APIPort             string
	LogLevel            slog.Level
	LogFormat           string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or one of its parents, it is loaded.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		Backend:            strings.ToLower(getEnv("VECTORDB_BACKEND", "qdrant")),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:       getEnv("QDRANT_API_KEY", ""),
		ChromemPath:        getEnv("CHROMEM_PATH", ""),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-minilm-l6-v2"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", ""),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	switch cfg.Backend {
	case "qdrant", "chromem":
	default:
		return nil, fmt.Errorf("VECTORDB_BACKEND must be qdrant or chromem, got %q", cfg.Backend)
	}

	timeout, err := time.ParseDuration(getEnv("VECTORDB_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("VECTORDB_TIMEOUT must be a valid duration: %w", err)
	}
	if timeout < 0 {
		return nil, fmt.Errorf("VECTORDB_TIMEOUT must not be negative")
	}
	cfg.Timeout = timeout

	// Must match the output size of the embeddings model.
	dims, err := strconv.Atoi(getEnv("EMBEDDING_DIMENSIONS", "384"))
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_DIMENSIONS must be a valid integer: %w", err)
	}
	if dims <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSIONS must be greater than 0")
	}
	cfg.EmbeddingDimensions = dims

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// loadDotEnv loads the nearest .env file, walking up at most five directories.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
