package llm

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"
)

// Client is a text-completion oracle: system plus user instruction in,
// raw text out.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}

// Config selects and tunes the oracle backend.
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string
	TimeoutSeconds int
}

// New builds an OpenAI-compatible chat client from the config. The API key
// falls back to OPENAI_API_KEY.
func New(cfg Config) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if apiKey == "" {
		return nil, errors.New("no LLM API key provided (OPENAI_API_KEY)")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o"
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}

	return &openAIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		timeout: time.Duration(timeout) * time.Second,
	}, nil
}
