package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, apiKey string, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = "gemini-1.5-pro"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiGenerator) Model() string {
	return g.model
}

// Generate sends the prompt as a single user turn and returns the candidate text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, generationConfig())
}

// GenerateJSON asks for an application/json response. Gemini gets the schema inline in the
// prompt since the SDK schema type differs from the reflected one.
func (g *GeminiGenerator) GenerateJSON(ctx context.Context, prompt string, format Format) (string, error) {
	config := generationConfig()
	config.ResponseMIMEType = "application/json"
	if format.Schema != nil {
		bin, err := json.Marshal(format.Schema)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s schema: %w", format.Name, err)
		}
		prompt += "\n\nRespond with JSON matching this schema:\n" + string(bin)
	}
	return g.generate(ctx, prompt, config)
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](Temperature),
		TopP:            genai.Ptr[float32](TopP),
		TopK:            genai.Ptr[float32](TopK),
		MaxOutputTokens: MaxOutputTokens,
	}
}
