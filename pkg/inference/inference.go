package inference

import (
	"context"
	"errors"
)

// Decoding parameters shared by every backend.
const (
	Temperature     = 0.7
	TopP            = 0.9
	TopK            = 40
	MaxOutputTokens = 8192
)

// ErrEmptyResponse is returned when a backend answers without usable text.
var ErrEmptyResponse = errors.New("empty completion content")

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Format describes a JSON document the model is asked to produce.
type Format struct {
	Name        string
	Description string
	Schema      any
}

// JSONGenerator is implemented by backends that can constrain output to a JSON schema.
type JSONGenerator interface {
	Generator
	GenerateJSON(ctx context.Context, prompt string, format Format) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
