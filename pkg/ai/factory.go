package ai

import (
	"context"
	"fmt"

	"github.com/abbywylie/Ripple/pkg/gemini"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModels  OpenAIModels

	GeminiAPIKey string
	GeminiModel  string

	// Ollama server and model are read through getters so they can be
	// changed at runtime
	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// geminiProvider adapts the Gemini REST client to Provider
type geminiProvider struct {
	svc *gemini.GeminiService
}

func (g *geminiProvider) Name() string { return "gemini" }

func (g *geminiProvider) Complete(ctx context.Context, _ Task, prompt string) (string, error) {
	return g.svc.GenerateJSON(ctx, prompt)
}

// NewProvider creates a Provider based on the config.
// Switch AI provider by changing cfg.Provider; "auto" chains every provider
// that has credentials, with Ollama last.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		openaiSvc, err := NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModels)
		if err != nil {
			return nil, err
		}
		return openaiSvc, nil

	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return &geminiProvider{svc: gemini.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel)}, nil

	case ProviderOllama:
		return newOllama(cfg), nil

	case ProviderAuto, "":
		var chain []Provider
		if cfg.OpenAIAPIKey != "" {
			openaiSvc, err := NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModels)
			if err != nil {
				return nil, err
			}
			chain = append(chain, openaiSvc)
		}
		if cfg.GeminiAPIKey != "" {
			chain = append(chain, &geminiProvider{svc: gemini.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel)})
		}
		chain = append(chain, newOllama(cfg))
		if len(chain) == 1 {
			return chain[0], nil
		}
		return NewFallbackService(chain...), nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

func newOllama(cfg Config) *OllamaService {
	if cfg.GetOllamaBaseURL != nil && cfg.GetOllamaModel != nil {
		return NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)
	}
	return NewOllamaService("", "")
}
