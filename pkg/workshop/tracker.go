package workshop

import (
	"slices"

	"kadha/pkg/narrative"
	"kadha/pkg/utils"
)

type Phase string

const (
	Idle       Phase = "idle"
	Selected   Phase = "selected"
	Generating Phase = "generating"
	Done       Phase = "done"
	Failed     Phase = "failed"
)

// PartStatus is the live state of one part. Progress is only meaningful while generating
// and after the run ends.
type PartStatus struct {
	Part     int                `json:"part"`
	Phase    Phase              `json:"phase"`
	Progress narrative.Progress `json:"progress"`
	Words    int                `json:"words,omitempty"`
	Error    string             `json:"error,omitempty"`
}

type partKey struct {
	book string
	part int
}

// Tracker holds the status of every part that has left the idle phase.
type Tracker struct {
	parts *utils.SyncMap[map[partKey]PartStatus, partKey, PartStatus]
}

func NewTracker() *Tracker {
	return &Tracker{parts: utils.NewSyncMap[map[partKey]PartStatus]()}
}

func (t *Tracker) Get(bookID string, part int) PartStatus {
	st, ok := t.parts.Load(partKey{bookID, part})
	if !ok {
		return PartStatus{Part: part, Phase: Idle}
	}
	return st
}

// Begin moves the part to generating. It reports false if a run already owns the part.
func (t *Tracker) Begin(bookID string, part int) bool {
	busy := false
	t.parts.Update(partKey{bookID, part}, func(cur PartStatus, ok bool) PartStatus {
		if ok && cur.Phase == Generating {
			busy = true
			return cur
		}
		return PartStatus{Part: part, Phase: Generating}
	})
	return !busy
}

func (t *Tracker) Progress(bookID string, part int, p narrative.Progress) {
	t.parts.Update(partKey{bookID, part}, func(cur PartStatus, _ bool) PartStatus {
		cur.Part = part
		cur.Progress = p
		return cur
	})
}

func (t *Tracker) Finish(bookID string, part int, res *narrative.Result, err error) {
	t.parts.Update(partKey{bookID, part}, func(cur PartStatus, _ bool) PartStatus {
		cur.Part = part
		cur.Phase = Done
		cur.Error = ""
		if res != nil {
			cur.Progress = res.Progress
			cur.Words = res.Words
			if res.Err != nil {
				err = res.Err
			}
		}
		if err != nil {
			cur.Phase = Failed
			cur.Error = err.Error()
		}
		return cur
	})
}

// Select marks parts for a batch run. Deselecting returns a part to idle. Parts that are
// generating are left alone.
func (t *Tracker) Select(bookID string, parts []int, selected bool) {
	for _, part := range parts {
		key := partKey{bookID, part}
		t.parts.Update(key, func(cur PartStatus, ok bool) PartStatus {
			if ok && cur.Phase == Generating {
				return cur
			}
			if selected {
				return PartStatus{Part: part, Phase: Selected}
			}
			return PartStatus{Part: part, Phase: Idle}
		})
	}
}

// Selected lists the book's selected parts in ascending order.
func (t *Tracker) Selected(bookID string) []int {
	var parts []int
	for key := range t.parts.Snapshot(func(k partKey, v PartStatus) bool {
		return k.book == bookID && v.Phase == Selected
	}) {
		parts = append(parts, key.part)
	}
	slices.Sort(parts)
	return parts
}

// Status lists every non-idle part of the book in ascending order.
func (t *Tracker) Status(bookID string) []PartStatus {
	snap := t.parts.Snapshot(func(k partKey, v PartStatus) bool {
		return k.book == bookID && v.Phase != Idle
	})
	out := make([]PartStatus, 0, len(snap))
	for _, st := range snap {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b PartStatus) int { return a.Part - b.Part })
	return out
}
