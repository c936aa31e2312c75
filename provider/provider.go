package provider

import (
	"context"
	"errors"

	"newsagent/config"
	"newsagent/models"
	anthropic_provider "newsagent/provider/anthropic"
)

// Client represents different LLM providers
type Client string

const (
	Anthropic Client = "anthropic"
	OpenAI    Client = "openai"
	Gemini    Client = "gemini"
)

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	// CreateTurn sends the conversation and tool schema to the model and
	// returns its next turn.
	CreateTurn(ctx context.Context, messages []models.Message, tools []models.Tool) (*models.Turn, error)
	// Complete sends a single prompt (with optional system instruction) and
	// returns the text response. Used for plain completions with no tools.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Provider) {
	case Anthropic:
		if cfg.APIKey == "" {
			return nil, errors.New("anthropic api key not set")
		}
		return anthropic_provider.NewClient(cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Timeout), nil
	case OpenAI:
		return nil, errors.New("openai client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
