// Package workshop coordinates generation work for a book: characters, summaries and
// part development, with per-part status tracking.
package workshop

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/singleflight"

	"kadha/pkg/inference"
	"kadha/pkg/metrics"
	"kadha/pkg/narrative"
	"kadha/pkg/schema"
	"kadha/pkg/store"
)

var (
	ErrNotFound = store.ErrNotFound
	// ErrBusy rejects a run for a part that is already generating.
	ErrBusy = errors.New("part is already generating")
	ErrSave = errors.New("failed to save generated text")
)

// Store is the persistence the workshop needs.
type Store interface {
	Book(ctx context.Context, id string) (*schema.Book, error)
	ReplaceCharacters(ctx context.Context, bookID string, characters []schema.Character) error
	Parts(ctx context.Context, bookID string) ([]schema.Part, error)
	Part(ctx context.Context, bookID string, partNumber int) (*schema.Part, error)
	SaveContent(ctx context.Context, bookID string, partNumber int, content string) error
	SaveSummary(ctx context.Context, bookID string, partNumber int, summary string) error
}

type Options struct {
	TargetWords      int
	ChunkWords       int
	BatchConcurrency int
	SummaryPage      int
	Narrative        narrative.Options
}

func (o Options) withDefaults() Options {
	if o.TargetWords < 0 {
		o.TargetWords = 0
	}
	if o.ChunkWords <= 0 {
		o.ChunkWords = narrative.DefaultChunkWords
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = 1
	}
	if o.SummaryPage <= 0 {
		o.SummaryPage = 5
	}
	return o
}

type Service struct {
	store     Store
	gen       inference.Generator
	developer *narrative.Developer
	opts      Options
	tracker   *Tracker
	summaries singleflight.Group
}

func New(st Store, gen inference.Generator, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		store:     st,
		gen:       gen,
		developer: narrative.NewDeveloper(countChunks(gen), opts.Narrative),
		opts:      opts,
		tracker:   NewTracker(),
	}
}

func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// countChunks records the outcome of every chunk call made by the development loop.
func countChunks(gen inference.Generator) inference.Generator {
	return inference.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		out, err := gen.Generate(ctx, prompt)
		switch {
		case err != nil && ctx.Err() != nil:
			metrics.ChunkCalls.WithLabelValues(metrics.Cancelled).Inc()
		case err != nil:
			metrics.ChunkCalls.WithLabelValues(metrics.Failed).Inc()
		case strings.TrimSpace(out) == "":
			metrics.ChunkCalls.WithLabelValues(metrics.Empty).Inc()
		default:
			metrics.ChunkCalls.WithLabelValues(metrics.OK).Inc()
		}
		return out, err
	})
}
