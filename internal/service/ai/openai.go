package ai

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/bug-fixer/backend/internal/config"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	signature Signature

	temperature *float64
	topP        *float64
	maxTokens   *int
}

// NewOpenAI builds a client from the AI section of the configuration.
func NewOpenAI(cfg config.AIConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		signature:   BugFixer,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete sends prompt as the signature input and returns the output field.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.signature.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: c.signature.UserPrompt(prompt)},
		},
	}
	if c.temperature != nil {
		req.Temperature = float32(*c.temperature)
	}
	if c.topP != nil {
		req.TopP = float32(*c.topP)
	}
	if c.maxTokens != nil {
		req.MaxTokens = *c.maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrEmptyResponse)
	}

	out, err := c.signature.Parse(resp.Choices[0].Message.Content)
	if err != nil {
		return "", err
	}

	log.Printf("[ai] generated response model=%s, length=%d, tokens=%d", c.model, len(out), resp.Usage.TotalTokens)
	return out, nil
}
