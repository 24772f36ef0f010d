package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

// OpenAIGenerator implements Generator against any OpenAI-compatible chat completion API.
// Top-k has no equivalent there and is not sent.
type OpenAIGenerator struct {
	client *openai.Client
	apiKey string
	model  string
	name   string
}

// NewOpenAIGenerator creates a generator using OpenAI's official Go SDK.
func NewOpenAIGenerator(apiKey string, model string, opts ...option.RequestOption) *OpenAIGenerator {
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIGenerator{
		client: &client,
		apiKey: apiKey,
		model:  model,
		name:   "openai",
	}
}

func (o *OpenAIGenerator) ChangeBaseURL(baseURL string) {
	client := openai.NewClient(
		option.WithAPIKey(o.apiKey),
		option.WithBaseURL(baseURL),
	)
	o.client = &client
}

func (o *OpenAIGenerator) SetModel(model string) {
	o.model = model
}

func (o *OpenAIGenerator) Model() string {
	return o.model
}

// Generate sends the prompt as a single user message.
func (o *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return o.complete(ctx, o.params(prompt))
}

// GenerateJSON requests a strict structured output for format.
func (o *OpenAIGenerator) GenerateJSON(ctx context.Context, prompt string, format Format) (string, error) {
	params := o.params(prompt)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        format.Name,
				Description: openai.String(format.Description),
				Schema:      format.Schema,
				Strict:      openai.Bool(true),
			},
		},
	}
	return o.complete(ctx, params)
}

func (o *OpenAIGenerator) params(prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Role: "user",
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: param.Opt[string]{Value: prompt},
					},
				},
			},
		},
		MaxCompletionTokens: openai.Int(MaxOutputTokens),
		Temperature:         openai.Float(Temperature),
		TopP:                openai.Float(TopP),
	}
}

func (o *OpenAIGenerator) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s inference error: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
