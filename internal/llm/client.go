// Package llm talks to chat-completion APIs (OpenAI or Mistral) and caches
// their responses.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/config"
	"resty.dev/v3"
)

const (
	openAISystemPrompt = "You are a helpful admissions assistant."
	mistralMaxTokens   = 500
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var ErrEmptyCompletion = errors.New("completion has no choices")

// APIError is a non-2xx response from the completion endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api: status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      *bool         `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client is a Generator backed by a chat-completions HTTP API.
type Client struct {
	backend       string
	http          *resty.Client
	apiKey        string
	model         string
	fallbackModel string
	cache         Cache
	log           zerolog.Logger
}

// NewClient builds a client for cfg.LLMBackend. A nil cache disables caching.
func NewClient(cfg *config.Config, cache Cache, log zerolog.Logger) (*Client, error) {
	if cache == nil {
		cache = NopCache{}
	}

	c := &Client{
		backend: cfg.LLMBackend,
		cache:   cache,
		log:     log.With().Str("component", "llm_client").Str("backend", cfg.LLMBackend).Logger(),
	}

	var baseURL string
	switch cfg.LLMBackend {
	case config.BackendOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set in env")
		}
		c.apiKey = cfg.OpenAIAPIKey
		c.model = cfg.OpenAIModel
		c.fallbackModel = cfg.OpenAIFallbackModel
		baseURL = cfg.OpenAIAPIURL
	case config.BackendMistral:
		if cfg.MistralAPIKey == "" {
			return nil, errors.New("MISTRAL_API_KEY not set in env")
		}
		c.apiKey = cfg.MistralAPIKey
		c.model = cfg.MistralModel
		baseURL = cfg.MistralAPIURL
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.LLMBackend)
	}

	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c.http = resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(c.apiKey)

	return c, nil
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.http.Close()
}

// Model is the primary model, also used in cache keys.
func (c *Client) Model() string { return c.model }

// Generate returns a cached completion when present; otherwise it calls the
// backend and caches the result. Cache failures are logged and ignored.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	key := CacheKey(c.model, prompt)

	if text, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Debug().Err(err).Msg("cache read failed")
	} else if ok {
		return text, nil
	}

	var (
		text string
		err  error
	)
	switch c.backend {
	case config.BackendOpenAI:
		text, err = c.callOpenAI(ctx, c.model, prompt)
		if err != nil {
			c.log.Warn().Err(err).Str("model", c.model).Msg("OpenAI primary failed")
			if c.fallbackModel == "" {
				return "", err
			}
			text, err = c.callOpenAI(ctx, c.fallbackModel, prompt)
		}
	case config.BackendMistral:
		text, err = c.callMistral(ctx, prompt)
	default:
		err = fmt.Errorf("unknown backend: %s", c.backend)
	}
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, text); err != nil {
		c.log.Debug().Err(err).Msg("cache write failed")
	}
	return text, nil
}

func (c *Client) callOpenAI(ctx context.Context, model, prompt string) (string, error) {
	return c.complete(ctx, chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
	})
}

func (c *Client) callMistral(ctx context.Context, prompt string) (string, error) {
	stream := false
	return c.complete(ctx, chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
		MaxTokens:   mistralMaxTokens,
		Stream:      &stream,
	})
}

func (c *Client) complete(ctx context.Context, body chatRequest) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}

	if res.IsError() {
		return "", &APIError{StatusCode: res.StatusCode(), Body: res.String()}
	}

	var out chatResponse
	if err := json.Unmarshal([]byte(res.String()), &out); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return out.Choices[0].Message.Content, nil
}
