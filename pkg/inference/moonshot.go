package inference

import (
	"github.com/openai/openai-go/v3/option"
)

// NewMoonshotGenerator creates a generator using the Moonshot AI OpenAI-compatible API.
func NewMoonshotGenerator(apiKey string, model string) *OpenAIGenerator {
	if model == "" {
		model = "kimi-k2-5"
	}
	g := NewOpenAIGenerator(apiKey, model, option.WithBaseURL("https://api.moonshot.ai/v1"))
	g.name = "moonshot"
	return g
}
