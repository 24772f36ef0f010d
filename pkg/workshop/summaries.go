package workshop

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"kadha/pkg/metrics"
	"kadha/pkg/narrative"
	"kadha/pkg/schema"
)

// SummaryProgress reports one part of a summary batch.
type SummaryProgress struct {
	Part    int    `json:"part"`
	Summary string `json:"summary"`
	Skipped bool   `json:"skipped,omitempty"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
}

// SummaryRange resolves the 0-based half-open range [from, to) of a summary batch. A
// non-positive to means one page from from. The range is clamped to the book's parts.
func (s *Service) SummaryRange(book *schema.Book, from, to int) (int, int, error) {
	if from < 0 {
		return 0, 0, fmt.Errorf("%w: from must not be negative", narrative.ErrInvalidRequest)
	}
	if to <= 0 {
		to = from + s.opts.SummaryPage
	}
	if book.TotalParts > 0 {
		to = min(to, book.TotalParts)
	}
	if to < from {
		return 0, 0, fmt.Errorf("%w: empty range %d..%d", narrative.ErrInvalidRequest, from, to)
	}
	return from, to, nil
}

// GenerateSummaries drafts a summary for every part in [from, to) that has none, saving each
// as soon as it is written. The first failure stops the batch; summaries already saved are
// kept and returned alongside the error. Concurrent calls for the same book and exact range
// share one run, and only the first caller sees progress. Overlapping ranges are not coalesced.
func (s *Service) GenerateSummaries(ctx context.Context, bookID string, from, to int, onProgress func(SummaryProgress)) ([]schema.Part, error) {
	book, err := s.store.Book(ctx, bookID)
	if err != nil {
		return nil, err
	}
	from, to, err = s.SummaryRange(book, from, to)
	if err != nil {
		return nil, err
	}
	if onProgress == nil {
		onProgress = func(SummaryProgress) {}
	}

	key := fmt.Sprintf("%s:%d:%d", bookID, from, to)
	v, err, shared := s.summaries.Do(key, func() (any, error) {
		return s.summarizeRange(ctx, book, from, to, onProgress)
	})
	if shared {
		log.Debug("joined summary batch", "book", bookID, "from", from, "to", to)
	}
	parts, _ := v.([]schema.Part)
	return parts, err
}

func (s *Service) summarizeRange(ctx context.Context, book *schema.Book, from, to int, onProgress func(SummaryProgress)) ([]schema.Part, error) {
	existing, err := s.store.Parts(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]schema.Part, len(existing))
	for _, p := range existing {
		byNumber[p.PartNumber] = p
	}

	total := to - from
	var saved []schema.Part
	for i := from; i < to; i++ {
		number := i + 1
		part, ok := byNumber[number]
		if !ok {
			part = schema.Part{BookID: book.ID, PartNumber: number}
		}
		if part.Summary != "" {
			onProgress(SummaryProgress{Part: number, Summary: part.Summary, Skipped: true, Done: i - from + 1, Total: total})
			continue
		}

		summary, err := narrative.Summarize(ctx, s.gen, book.Context(), i)
		if err != nil {
			metrics.SummariesGenerated.WithLabelValues(metrics.Failed).Inc()
			log.Warn("summary batch stopped", "book", book.ID, "part", number, "saved", len(saved), "error", err)
			return saved, err
		}
		metrics.SummariesGenerated.WithLabelValues(metrics.OK).Inc()

		part.Summary = summary
		if err := s.store.SaveSummary(context.WithoutCancel(ctx), book.ID, number, summary); err != nil {
			return saved, fmt.Errorf("%w: %w", ErrSave, err)
		}
		saved = append(saved, part)
		onProgress(SummaryProgress{Part: number, Summary: summary, Done: i - from + 1, Total: total})
	}
	log.Info("summaries generated", "book", book.ID, "from", from+1, "to", to, "saved", len(saved))
	return saved, nil
}
