package config

import (
	"os"
	"strconv"
	"sync"
)

// Config holds configuration for storage and embedding operations
type Config struct {
	// PostgreSQL
	PostgresURI string

	// SQLite (local verse store)
	SQLitePath string

	// Embeddings
	EmbeddingProvider   string // "vertex" or "custom"
	EmbeddingServiceURL string // For custom provider
	EmbeddingModel      string // Model served by the custom provider
	EmbeddingDimensions int

	// Vertex AI (when EmbeddingProvider = "vertex")
	GCPProjectID string
	GCPLocation  string
	VertexModel  string
}

var (
	config *Config
	once   sync.Once
)

// GetConfig returns the singleton configuration instance
func GetConfig() *Config {
	once.Do(func() {
		config = loadConfig()
	})
	return config
}

func loadConfig() *Config {
	return &Config{
		// PostgreSQL
		PostgresURI: getEnv("POSTGRES_URI", ""),

		// SQLite
		SQLitePath: getEnv("SQLITE_PATH", "./data/nt_verses.db"),

		// Embeddings
		EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "custom"),
		EmbeddingServiceURL: getEnv("EMBEDDING_SERVICE_URL", "http://localhost:8001"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "paraphrase-multilingual-MiniLM-L12-v2"),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 384),

		// Vertex AI
		GCPProjectID: getEnv("GCP_PROJECT_ID", ""),
		GCPLocation:  getEnv("GCP_LOCATION", "us-central1"),
		VertexModel:  getEnv("VERTEX_MODEL", "text-multilingual-embedding-002"),
	}
}

// EmbeddingModelID identifies the model whose vectors populate the index.
// Ingestion records it per verse; serving refuses an index built with another.
func (c *Config) EmbeddingModelID() string {
	if c.EmbeddingProvider == "vertex" {
		return "vertex/" + c.VertexModel
	}
	return c.EmbeddingModel
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return i
	}
	return defaultValue
}
