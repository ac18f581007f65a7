package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nt-language-lab-api/internal/services"
)

// ErrGenerationFailed wraps any failure of the generation service
var ErrGenerationFailed = errors.New("generation failed")

// Config for a llama.cpp server exposing the OpenAI chat API
type Config struct {
	BaseURL string // without the /v1 suffix, e.g. http://localhost:8080
	Model   string
	Timeout time.Duration
}

// Client generates linguistic comparisons for a single grounded verse
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a client for an OpenAI-compatible chat endpoint
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	// llama.cpp ignores the key but go-openai always sends one
	oc := openai.DefaultConfig("no-key")
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	oc.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
	}
}

// Generate sends one non-streaming chat request built only from payload
func (c *Client) Generate(ctx context.Context, payload services.GroundedPayload) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: payload.Prompt()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion for %s: %w", ErrGenerationFailed, payload.VerseID, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response for %s", ErrGenerationFailed, payload.VerseID)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
