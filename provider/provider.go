package provider

import (
	"context"
	"errors"

	"github.com/oubia/medtriage/config"
	openai_provider "github.com/oubia/medtriage/provider/openai"
)

// Provider is the interface every model backend must satisfy. Each call
// is a pure function of its inputs; callers own timeouts via ctx.
type Provider interface {
	// Complete sends a system instruction plus a user message to the
	// completion model and returns the raw model text.
	Complete(ctx context.Context, system string, user string) (string, error)

	// CompleteVision sends a prompt together with an image (data URL)
	// to the vision model and returns the raw model text.
	CompleteVision(ctx context.Context, prompt string, imageURL string) (string, error)

	// CreateEmbedding generates one embedding vector per input text.
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a model backend based on the provided configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		return openai_provider.NewClient(openai_provider.Options{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			CompletionModel: cfg.CompletionModel,
			VisionModel:     cfg.VisionModel,
			EmbeddingModel:  cfg.EmbeddingModel,
			Temperature:     cfg.Temperature,
			MaxTokens:       cfg.MaxTokens,
			Timeout:         cfg.Timeout,
			MaxRetries:      cfg.MaxRetries,
		}), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
