package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIModels names the chat model used for each oracle task
type OpenAIModels struct {
	Classify string
	Summary  string
	Meeting  string
}

// OpenAIService implements Provider on the OpenAI chat completions API
type OpenAIService struct {
	llm    llms.Model
	models OpenAIModels
}

// NewOpenAIService creates an OpenAI provider. baseURL may be empty.
func NewOpenAIService(apiKey, baseURL string, models OpenAIModels) (*OpenAIService, error) {
	if models.Classify == "" {
		models.Classify = "gpt-4.1-mini"
	}
	if models.Summary == "" {
		models.Summary = models.Classify
	}
	if models.Meeting == "" {
		models.Meeting = models.Summary
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(models.Classify),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAIService{llm: llm, models: models}, nil
}

func (s *OpenAIService) Name() string {
	return "openai"
}

func (s *OpenAIService) model(task Task) string {
	switch task {
	case TaskSummarize:
		return s.models.Summary
	case TaskMeeting:
		return s.models.Meeting
	default:
		return s.models.Classify
	}
}

// Complete implements Provider
func (s *OpenAIService) Complete(ctx context.Context, task Task, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt,
		llms.WithModel(s.model(task)),
		llms.WithTemperature(0),
		llms.WithJSONMode(),
	)
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	return out, nil
}
