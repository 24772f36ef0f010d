package diff

import (
	"strings"

	"github.com/aryann/difflib"

	"kadha/pkg/utils"
)

type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

func (o Op) String() string {
	switch o {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return "equal"
	}
}

func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type WordDelta struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// TextDiff is a word-level comparison between two revisions of a part.
type TextDiff struct {
	Deltas       []WordDelta `json:"deltas"`
	WordsAdded   int         `json:"words_added"`
	WordsRemoved int         `json:"words_removed"`
}

func (d TextDiff) Changed() bool {
	return d.WordsAdded > 0 || d.WordsRemoved > 0
}

// Text diffs oldText against newText word by word.
func Text(oldText, newText string) TextDiff {
	if oldText == newText {
		if oldText == "" {
			return TextDiff{}
		}
		return TextDiff{Deltas: []WordDelta{{Op: Equal, Text: oldText}}}
	}
	at := utils.TokenizeWords(oldText)
	bt := utils.TokenizeWords(newText)
	recs := difflib.Diff(at, bt)
	deltas := make([]WordDelta, 0, len(recs))
	var out TextDiff
	for _, r := range recs {
		isWord := strings.TrimSpace(r.Payload) != ""
		switch r.Delta {
		case difflib.Common:
			deltas = append(deltas, WordDelta{Op: Equal, Text: r.Payload})
		case difflib.LeftOnly:
			deltas = append(deltas, WordDelta{Op: Delete, Text: r.Payload})
			if isWord {
				out.WordsRemoved++
			}
		case difflib.RightOnly:
			deltas = append(deltas, WordDelta{Op: Insert, Text: r.Payload})
			if isWord {
				out.WordsAdded++
			}
		}
	}
	out.Deltas = coalesce(deltas)
	return out
}

// coalesce merges neighbouring deltas of the same op.
func coalesce(in []WordDelta) []WordDelta {
	out := make([]WordDelta, 0, len(in))
	for _, d := range in {
		if n := len(out); n > 0 && out[n-1].Op == d.Op {
			out[n-1].Text += d.Text
			continue
		}
		out = append(out, d)
	}
	return out
}
