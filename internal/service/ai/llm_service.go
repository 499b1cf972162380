package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Service runs the bug-fixer signature through an eino chat chain.
type Service struct {
	signature Signature
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the template → model chain around chatModel.
func NewService(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{code_input}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		signature: BugFixer,
		chain:     runnable,
	}, nil
}

// Complete sends prompt as the signature input and returns the output field.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	input := map[string]any{
		"system":     s.signature.SystemPrompt(),
		"code_input": s.signature.UserPrompt(prompt),
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", ErrEmptyResponse
	}

	out, err := s.signature.Parse(response.Content)
	if err != nil {
		return "", err
	}

	log.Printf("[ai] generated response via chain, length=%d", len(out))
	return out, nil
}
