package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"VECTOR_BACKEND", "DEFAULT_TOP_K", "DISABLE_LLM", "LLM_BASE_URL", "LLM_MODEL", "LLM_TIMEOUT_SECONDS", "REDIS_URL"} {
		t.Setenv(key, "")
	}

	cfg := loadConfig()
	assert.Equal(t, "pgvector", cfg.VectorBackend)
	assert.Equal(t, 10, cfg.DefaultTopK)
	assert.Equal(t, "Phi-3 Mini Instruct", cfg.LLMModel)
	assert.Equal(t, 120*time.Second, cfg.LLMTimeout)
	assert.False(t, cfg.GenerationEnabled())
}

func TestGenerationEnabled(t *testing.T) {
	tests := []struct {
		disable string
		baseURL string
		want    bool
	}{
		{"", "http://localhost:8080", true},
		{"false", "http://localhost:8080", true},
		{"1", "http://localhost:8080", false},
		{"TRUE", "http://localhost:8080", false},
		{"yes", "http://localhost:8080", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Setenv("DISABLE_LLM", tt.disable)
		t.Setenv("LLM_BASE_URL", tt.baseURL)
		assert.Equal(t, tt.want, loadConfig().GenerationEnabled(), "DISABLE_LLM=%q LLM_BASE_URL=%q", tt.disable, tt.baseURL)
	}
}

func TestLoadConfig_TrimsLLMBaseURL(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "http://host.docker.internal:8080/")
	assert.Equal(t, "http://host.docker.internal:8080", loadConfig().LLMBaseURL)
}

func TestParseCORSOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, parseCORSOrigins(`["http://a","http://b"]`))
	assert.Equal(t, []string{"http://a", "http://b"}, parseCORSOrigins(" http://a, ,http://b "))
}
