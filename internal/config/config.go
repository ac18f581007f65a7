package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// API Settings
	APITitle   string
	APIVersion string
	APIPrefix  string
	Port       string

	// CORS
	CORSOrigins []string

	// Vector Search Backend: "pgvector", "vertex" or "sqlite"
	VectorBackend string

	// Vertex AI Vector Search settings (used when VectorBackend = "vertex")
	VertexProjectID            string
	VertexLocation             string
	VertexIndexEndpointID      string
	VertexDeployedIndexID      string
	VertexPublicEndpointDomain string

	// Retrieval
	DefaultTopK int

	// Generation (llama.cpp, OpenAI-compatible)
	DisableLLM bool
	LLMBaseURL string
	LLMModel   string
	LLMTimeout time.Duration

	// Query embedding cache; Redis when RedisURL is set, in-process LRU otherwise
	RedisURL           string
	EmbeddingCacheSize int
	EmbeddingCacheTTL  time.Duration
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
		APITitle:    getEnv("API_TITLE", "NT Language Lab API"),
		APIVersion:  getEnv("API_VERSION", "1.0.0"),
		APIPrefix:   getEnv("API_PREFIX", "/api/v1"),
		Port:        getEnv("PORT", "8081"),
		CORSOrigins: parseCORSOrigins(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),

		// Vector search backend configuration
		VectorBackend: getEnv("VECTOR_BACKEND", "pgvector"), // "pgvector", "vertex" or "sqlite"

		// Vertex AI settings
		VertexProjectID:            getEnv("VERTEX_PROJECT_ID", ""),
		VertexLocation:             getEnv("VERTEX_LOCATION", "us-central1"),
		VertexIndexEndpointID:      getEnv("VERTEX_INDEX_ENDPOINT_ID", ""),
		VertexDeployedIndexID:      getEnv("VERTEX_DEPLOYED_INDEX_ID", ""),
		VertexPublicEndpointDomain: getEnv("VERTEX_PUBLIC_ENDPOINT_DOMAIN", ""),

		DefaultTopK: getEnvInt("DEFAULT_TOP_K", 10),

		DisableLLM: getEnvBool("DISABLE_LLM", false),
		LLMBaseURL: strings.TrimRight(getEnv("LLM_BASE_URL", ""), "/"),
		LLMModel:   getEnv("LLM_MODEL", "Phi-3 Mini Instruct"),
		LLMTimeout: time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,

		RedisURL:           getEnv("REDIS_URL", ""),
		EmbeddingCacheSize: getEnvInt("EMBEDDING_CACHE_SIZE", 1024),
		EmbeddingCacheTTL:  time.Duration(getEnvInt("EMBEDDING_CACHE_TTL_MINUTES", 60)) * time.Minute,
	}
}

// GenerationEnabled reports whether the compare endpoint may call the LLM
func (c *Config) GenerationEnabled() bool {
	return !c.DisableLLM && c.LLMBaseURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func parseCORSOrigins(value string) []string {
	var origins []string
	if err := json.Unmarshal([]byte(value), &origins); err == nil {
		return origins
	}
	parts := strings.Split(value, ",")
	origins = make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
