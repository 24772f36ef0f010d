package workshop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"

	"kadha/pkg/metrics"
	"kadha/pkg/narrative"
)

// DevelopPart grows the part's summary into full text and saves it once the run ends. A run
// that stops early still saves the text it produced; Result.Err says why it stopped.
func (s *Service) DevelopPart(ctx context.Context, bookID string, partNumber int, onProgress narrative.ProgressFunc) (*narrative.Result, error) {
	if !s.tracker.Begin(bookID, partNumber) {
		return nil, fmt.Errorf("part %d: %w", partNumber, ErrBusy)
	}
	res, err := s.developPart(ctx, bookID, partNumber, onProgress)
	s.tracker.Finish(bookID, partNumber, res, err)
	return res, err
}

func (s *Service) developPart(ctx context.Context, bookID string, partNumber int, onProgress narrative.ProgressFunc) (*narrative.Result, error) {
	part, err := s.store.Part(ctx, bookID, partNumber)
	if err != nil {
		return nil, err
	}

	req := narrative.Request{
		Summary:     part.Summary,
		PartIndex:   partNumber - 1,
		TargetWords: s.opts.TargetWords,
		ChunkWords:  s.opts.ChunkWords,
		Style:       part.Personality,
	}

	run := ksuid.New().String()
	log.Debug("develop run started", "run", run, "book", bookID, "part", partNumber, "target", req.TargetWords, "chunk", req.ChunkWords)

	metrics.ActiveRuns.Inc()
	start := time.Now()
	res, err := s.developer.Develop(ctx, req, func(p narrative.Progress) {
		s.tracker.Progress(bookID, partNumber, p)
		if onProgress != nil {
			onProgress(p)
		}
	})
	metrics.ActiveRuns.Dec()
	if err != nil {
		metrics.DevelopRuns.WithLabelValues(metrics.Failed).Inc()
		return nil, err
	}
	metrics.DevelopDuration.Observe(time.Since(start).Seconds())

	switch {
	case res.ReachedTarget:
		metrics.DevelopRuns.WithLabelValues(metrics.OK).Inc()
		metrics.PartWords.Observe(float64(res.Words))
	case errors.Is(res.Err, context.Canceled), errors.Is(res.Err, context.DeadlineExceeded):
		metrics.DevelopRuns.WithLabelValues(metrics.Cancelled).Inc()
	default:
		metrics.DevelopRuns.WithLabelValues(metrics.Failed).Inc()
	}

	if res.Text == "" {
		return res, nil
	}
	if err := s.store.SaveContent(context.WithoutCancel(ctx), bookID, partNumber, res.Text); err != nil {
		log.Error("could not save developed part", "run", run, "book", bookID, "part", partNumber, "words", res.Words, "error", err)
		return res, fmt.Errorf("%w: part %d: %w", ErrSave, partNumber, err)
	}
	log.Info("part developed", "run", run, "book", bookID, "part", partNumber, "words", res.Words, "chunks", res.Chunks, "reached_target", res.ReachedTarget)
	return res, nil
}

// PartOutcome is the end state of one run in a batch.
type PartOutcome struct {
	Part   int               `json:"part"`
	Result *narrative.Result `json:"result,omitempty"`
	Err    error             `json:"-"`
	Error  string            `json:"error,omitempty"`
}

// PartProgress is a progress report tagged with its part.
type PartProgress struct {
	Part int `json:"part"`
	narrative.Progress
}

// DevelopSelected runs DevelopPart for each part concurrently, at most BatchConcurrency at a
// time. With no parts given it runs the book's selected parts. Runs are independent: one
// failing does not stop the others.
func (s *Service) DevelopSelected(ctx context.Context, bookID string, parts []int, onProgress func(PartProgress)) ([]PartOutcome, error) {
	if _, err := s.store.Book(ctx, bookID); err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		parts = s.tracker.Selected(bookID)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no parts selected", narrative.ErrInvalidRequest)
	}

	outcomes := make([]PartOutcome, len(parts))
	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for i, number := range parts {
		g.Go(func() error {
			res, err := s.DevelopPart(ctx, bookID, number, func(p narrative.Progress) {
				if onProgress != nil {
					onProgress(PartProgress{Part: number, Progress: p})
				}
			})
			out := PartOutcome{Part: number, Result: res, Err: err}
			if err == nil && res != nil {
				out.Err = res.Err
			}
			if out.Err != nil {
				out.Error = out.Err.Error()
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

func (s *Service) Select(bookID string, parts []int, selected bool) []PartStatus {
	s.tracker.Select(bookID, parts, selected)
	return s.tracker.Status(bookID)
}

func (s *Service) Status(bookID string) []PartStatus {
	return s.tracker.Status(bookID)
}
