package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/bug-fixer/backend/internal/config"
)

func TestNewMissingCredentials(t *testing.T) {
	_, err := New(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI, Model: "gemini-2.0-flash"})
	if !errors.Is(err, ErrSetup) {
		t.Fatalf("expected ErrSetup, got %v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.AIConfig{Provider: "carrier-pigeon", Model: "m", APIKey: "k"})
	if !errors.Is(err, ErrSetup) {
		t.Fatalf("expected ErrSetup, got %v", err)
	}
}

func TestNewOpenAIProvider(t *testing.T) {
	completer, err := New(context.Background(), config.AIConfig{
		Provider: config.ProviderOpenAI,
		Model:    "gemini-2.0-flash",
		APIKey:   "k",
		BaseURL:  "http://127.0.0.1:1",
	})
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	if _, ok := completer.(*OpenAIClient); !ok {
		t.Fatalf("expected *OpenAIClient, got %T", completer)
	}
}
