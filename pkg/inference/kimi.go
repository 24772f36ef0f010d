package inference

import (
	"github.com/openai/openai-go/v3/option"
)

// NewKimiGenerator creates a generator using the Kimi OpenAI-compatible API.
func NewKimiGenerator(apiKey string, model string) *OpenAIGenerator {
	if model == "" {
		model = "kimi-for-coding"
	}
	g := NewOpenAIGenerator(apiKey, model, option.WithBaseURL("https://api.kimi.com/coding/v1"))
	g.name = "kimi"
	return g
}
