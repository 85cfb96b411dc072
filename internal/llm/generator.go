package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/docqa/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// NoResponse is returned in place of an empty model reply.
const NoResponse = "No response generated."

// Generator produces a reply to a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options configures an OpenAIGenerator.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// OpenAIGenerator calls /chat/completions on an OpenAI-compatible server such
// as Ollama.
type OpenAIGenerator struct {
	client     *openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewOpenAIGenerator creates a generator from opts.
func NewOpenAIGenerator(opts Options) (*OpenAIGenerator, error) {
	if opts.Model == "" {
		return nil, errors.New("llm model is required")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	g := &OpenAIGenerator{
		client:     openai.NewClientWithConfig(cfg),
		model:      opts.Model,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     utils.OrNop(opts.Logger),
	}
	if g.maxRetries < 1 {
		g.maxRetries = 1
	}
	if g.retryDelay <= 0 {
		g.retryDelay = time.Second
	}
	return g, nil
}

// Model returns the configured model name.
func (g *OpenAIGenerator) Model() string {
	return g.model
}

// Generate sends prompt as a single user message, retrying failed attempts
// up to the configured count.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		g.logger.Debug("calling llm", zap.String("model", g.model),
			zap.Int("attempt", attempt), zap.Int("max_attempts", g.maxRetries))
		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err == nil {
			if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
				return NoResponse, nil
			}
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err
		g.logger.Warn("llm call failed", zap.Int("attempt", attempt), zap.Error(err))
		if ctx.Err() != nil || attempt == g.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.retryDelay):
		}
	}
	return "", fmt.Errorf("llm %s: %w", g.model, lastErr)
}
