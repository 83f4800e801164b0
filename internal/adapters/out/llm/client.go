// Package llm adapts an OpenAI-compatible chat completion backend to the
// Advisor and TextRecognizer ports.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultModel      = "gpt-4o-mini"
	defaultTimeout    = 20 * time.Second
	defaultMaxTokens  = 400
	defaultMaxRetries = 1
)

type Config struct {
	APIKey string
	// BaseURL selects an OpenAI-compatible gateway; empty means api.openai.com.
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxTokens int64
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	return c
}

type completer struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func newCompleter(cfg Config) (completer, error) {
	if cfg.APIKey == "" {
		return completer{}, errors.New("llm: api key is required")
	}
	cfg = cfg.withDefaults()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(defaultMaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return completer{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// complete runs one non-streaming completion and returns the first choice, trimmed.
func (c completer) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(c.maxTokens),
		Temperature:         openai.Float(0.2),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
