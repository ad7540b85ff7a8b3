package ai

import "context"

// Task identifies which oracle prompt a completion serves, so providers can
// route each task to its own model.
type Task string

const (
	TaskClassify  Task = "classify"
	TaskSummarize Task = "summarize"
	TaskMeeting   Task = "meeting"
)

// Provider is a text-completion backend.
// Implement this interface to add new AI providers (OpenAI, Gemini, Ollama, ...)
type Provider interface {
	Name() string
	Complete(ctx context.Context, task Task, prompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
