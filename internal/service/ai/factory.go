package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/zhouzirui/bug-fixer/backend/internal/config"
)

var (
	// ErrSetup marks failures constructing the completion client.
	ErrSetup = errors.New("completion client setup failed")
	// ErrEmptyResponse marks a reply that carried no usable text.
	ErrEmptyResponse = errors.New("completion returned no content")
)

// Completer sends one prompt to the hosted model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// New creates the completer for the configured provider. Every error it
// returns wraps ErrSetup.
func New(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: credentials or model missing for provider %q", ErrSetup, cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create chat model: %w", ErrSetup, err)
		}
		svc, err := NewService(ctx, chatModel)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSetup, err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider: %s", ErrSetup, cfg.Provider)
	}
}
