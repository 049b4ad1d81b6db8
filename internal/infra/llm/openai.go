// Package llm adapts an OpenAI-compatible chat completion API to the
// port.ResponseGenerator interface. The service layer decides which prompt
// to fill; this package only turns a filled prompt into generated text.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/infra/resilience"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("llm")

// Config holds the generator configuration.
type Config struct {
	BaseURL     string
	APIKey      string
	ChatModel   string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.openai.com/v1",
		ChatModel:   "gpt-4o-mini",
		Temperature: 0.4,
		MaxTokens:   512,
		Timeout:     30 * time.Second,
	}
}

// Generator implements port.ResponseGenerator on top of go-openai.
type Generator struct {
	client *openai.Client
	config Config
	cb     *gobreaker.CircuitBreaker
	cfg    resilience.Config
	logger *zap.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(config Config, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Generator {
	if config.ChatModel == "" {
		config.ChatModel = "gpt-4o-mini"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		cb:     cb,
		cfg:    cfg,
		logger: logger,
	}
}

// Generate runs one chat completion for an already-filled prompt pair.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userMessage string) (*domain.GeneratedAnswer, error) {
	ctx, span := tracer.Start(ctx, "Generator.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", g.config.ChatModel))

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	var answer domain.GeneratedAnswer

	_, err := g.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, g.cfg, func() error {
			req := openai.ChatCompletionRequest{
				Model:       g.config.ChatModel,
				Temperature: g.config.Temperature,
				MaxTokens:   g.config.MaxTokens,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
					{Role: openai.ChatMessageRoleUser, Content: userMessage},
				},
			}

			resp, err := g.client.CreateChatCompletion(ctx, req)
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("empty chat completion response")
			}

			answer = domain.GeneratedAnswer{
				Text:             resp.Choices[0].Message.Content,
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
			}
			return nil
		})
	})
	if err != nil {
		g.logger.Warn("llm: chat completion failed",
			zap.String("model", g.config.ChatModel),
			zap.Error(err),
		)
		return nil, &domain.ErrExternalService{Service: "llm", Err: err}
	}

	span.SetAttributes(
		attribute.Int("llm.prompt_tokens", answer.PromptTokens),
		attribute.Int("llm.completion_tokens", answer.CompletionTokens),
	)
	return &answer, nil
}
