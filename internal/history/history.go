// Package history tracks which lines were already posted.
//
// A history is owned by a single process at a time. Two instances sharing one
// store race on load-modify-save and may both post the same line.
package history

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrLoad    = errors.New("history load failed")
	ErrPersist = errors.New("history persist failed")
)

// History is a set of fingerprints.
type History struct {
	set map[string]struct{}
}

func New(fingerprints ...string) *History {
	h := &History{set: make(map[string]struct{}, len(fingerprints))}
	for _, fp := range fingerprints {
		h.Add(fp)
	}
	return h
}

func (h *History) Contains(fingerprint string) bool {
	_, ok := h.set[fingerprint]
	return ok
}

func (h *History) Add(fingerprint string) {
	if h.set == nil {
		h.set = make(map[string]struct{})
	}
	h.set[fingerprint] = struct{}{}
}

func (h *History) Clear() {
	h.set = make(map[string]struct{})
}

func (h *History) Len() int {
	return len(h.set)
}

// Fingerprints returns the members in lexical order, never nil.
func (h *History) Fingerprints() []string {
	out := make([]string, 0, len(h.set))
	for fp := range h.set {
		out = append(out, fp)
	}
	sort.Strings(out)
	return out
}

func (h *History) Equal(other *History) bool {
	if h.Len() != other.Len() {
		return false
	}
	for fp := range h.set {
		if !other.Contains(fp) {
			return false
		}
	}
	return true
}

type Store interface {
	// Load returns an empty history when nothing was persisted yet.
	Load(ctx context.Context) (*History, error)
	Save(ctx context.Context, h *History) error
}

// Clear empties h and persists the empty state right away.
func Clear(ctx context.Context, store Store, h *History) error {
	h.Clear()
	return store.Save(ctx, h)
}
