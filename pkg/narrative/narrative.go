// Package narrative grows a part summary into full-length story text by asking a text
// generator for fixed-size continuations until a word-count target is met.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"kadha/pkg/inference"
	"kadha/pkg/utils"
)

const (
	DefaultTargetWords = 1100
	DefaultChunkWords  = 400

	separator = "\n\n"
)

var (
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrEmptyChunk marks a chunk that came back blank; it stops the run like any other failure.
	ErrEmptyChunk = errors.New("generator returned an empty chunk")
)

// Request is immutable for the duration of one run.
type Request struct {
	Summary     string
	PartIndex   int
	TargetWords int
	ChunkWords  int
	Style       string
}

// Progress is a display-only snapshot; Total is an estimate and can be overshot.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

type ProgressFunc func(Progress)

// State is owned by a single run.
type State struct {
	Text    string
	Words   int
	Chunks  int
	Planned int
}

func (s *State) Progress() Progress {
	return Progress{Done: s.Chunks, Total: s.Planned}
}

func (s *State) append(segment string) {
	if s.Text != "" {
		s.Text += separator
	}
	s.Text += segment
	s.Words = WordCount(s.Text)
	s.Chunks++
}

// Result carries the text together with how the run ended. Err is nil when the target was
// reached and otherwise holds the reason the run stopped early.
type Result struct {
	Text          string   `json:"text"`
	Words         int      `json:"words"`
	Chunks        int      `json:"chunks"`
	Planned       int      `json:"planned"`
	ReachedTarget bool     `json:"reached_target"`
	Err           error    `json:"-"`
	Progress      Progress `json:"progress"`
}

// Options tune a Developer. The zero value paces with DefaultPace and never retries.
type Options struct {
	Pacer Pacer
	// Retries is the number of extra attempts per chunk before the run stops.
	Retries int
}

type Developer struct {
	gen     inference.Generator
	pacer   Pacer
	retries int
}

func NewDeveloper(gen inference.Generator, opts Options) *Developer {
	pacer := opts.Pacer
	if pacer == nil {
		pacer = Delay(DefaultPace)
	}
	return &Developer{
		gen:     gen,
		pacer:   pacer,
		retries: max(opts.Retries, 0),
	}
}

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Planned is the number of chunks a run is expected to take.
func Planned(targetWords, chunkWords int) int {
	if targetWords <= 0 || chunkWords <= 0 {
		return 0
	}
	return (targetWords + chunkWords - 1) / chunkWords
}

func (r *Request) validate() error {
	switch {
	case r.TargetWords < 0:
		return fmt.Errorf("%w: target words must not be negative", ErrInvalidRequest)
	case r.TargetWords > 0 && r.ChunkWords <= 0:
		return fmt.Errorf("%w: chunk words must be positive", ErrInvalidRequest)
	case r.TargetWords > 0 && strings.TrimSpace(r.Summary) == "":
		return fmt.Errorf("%w: summary is required", ErrInvalidRequest)
	case r.PartIndex < 0:
		return fmt.Errorf("%w: part index must not be negative", ErrInvalidRequest)
	}
	return nil
}

// Develop runs the generation loop. Chunk failures and cancellation end the run early but are
// not returned as errors: the partial text is always in the Result. The error is reserved for
// requests that are rejected before any chunk is attempted.
func (d *Developer) Develop(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	state := &State{Planned: Planned(req.TargetWords, req.ChunkWords)}
	onProgress(state.Progress())

	var stopErr error
	for state.Words < req.TargetWords {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}

		prompt := ChunkPrompt(req, state.Text)
		if log.GetLevel() <= log.DebugLevel {
			tokens, _ := utils.NumTokens(prompt)
			log.Debug("requesting chunk", "part", req.PartIndex+1, "chunk", state.Chunks+1, "words", state.Words, "prompt_tokens", tokens)
		}

		segment, err := d.chunk(ctx, prompt)
		if err != nil {
			log.Warn("story generation stopped", "part", req.PartIndex+1, "chunk", state.Chunks+1, "words", state.Words, "error", err)
			stopErr = err
			break
		}

		state.append(segment)
		onProgress(state.Progress())

		if state.Words < req.TargetWords {
			if err := d.pacer.Wait(ctx); err != nil {
				stopErr = err
				break
			}
		}
	}

	return &Result{
		Text:          state.Text,
		Words:         state.Words,
		Chunks:        state.Chunks,
		Planned:       state.Planned,
		ReachedTarget: state.Words >= req.TargetWords,
		Err:           stopErr,
		Progress:      state.Progress(),
	}, nil
}

// chunk makes one generation call plus up to d.retries retries.
func (d *Developer) chunk(ctx context.Context, prompt string) (string, error) {
	var err error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			if werr := d.pacer.Wait(ctx); werr != nil {
				return "", werr
			}
		}
		var segment string
		segment, err = d.gen.Generate(ctx, prompt)
		if err == nil {
			segment = strings.TrimSpace(segment)
			if segment != "" {
				return segment, nil
			}
			err = ErrEmptyChunk
		}
		if ctx.Err() != nil {
			return "", err
		}
	}
	return "", err
}
