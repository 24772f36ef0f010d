package narrative

import (
	"context"
	"fmt"
	"strings"

	"kadha/pkg/inference"
)

// Summarize drafts one part summary with exactly one generation call.
func Summarize(ctx context.Context, gen inference.Generator, book BookContext, partIndex int) (string, error) {
	if partIndex < 0 {
		return "", fmt.Errorf("%w: part index must not be negative", ErrInvalidRequest)
	}
	out, err := gen.Generate(ctx, SummaryPrompt(book, partIndex))
	if err != nil {
		return "", fmt.Errorf("summary for part %d: %w", partIndex+1, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("summary for part %d: %w", partIndex+1, ErrEmptyChunk)
	}
	return out, nil
}
