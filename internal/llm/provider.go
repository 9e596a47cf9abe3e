package llm

import (
	"fmt"

	"github.com/verigraph/verigraph/internal/domain"
)

// Provider constants
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// NewClient creates an inference client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty
// (except for mock).
func NewClient(provider, apiKey string) (domain.InferenceClient, error) {
	switch provider {
	case ProviderGroq:
		if apiKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required for Groq provider")
		}
		return NewGroqClient(apiKey), nil

	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(apiKey), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown inference provider: %s (valid options: groq, gemini, mock)", provider)
	}
}
