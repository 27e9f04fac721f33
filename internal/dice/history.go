package dice

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// DefaultHistoryLimit is used when a History is created with a non-positive limit
const DefaultHistoryLimit = 50

// History keeps the most recent outcomes, newest first.
// A nil *History accepts appends and lists nothing.
type History struct {
	mu      sync.Mutex
	limit   int
	entries []Outcome
}

// NewHistory creates a history bounded to limit entries
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Append records o, assigning an ID when it has none, and returns the stored outcome
func (h *History) Append(o Outcome) Outcome {
	if o.ID == "" {
		o.ID = ulid.Make().String()
	}
	if h == nil {
		return o
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]Outcome{o}, h.entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
	return o
}

// List returns a copy of the stored outcomes, newest first
func (h *History) List() []Outcome {
	if h == nil {
		return []Outcome{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Outcome, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len reports the number of stored outcomes
func (h *History) Len() int {
	if h == nil {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Limit reports the maximum number of stored outcomes
func (h *History) Limit() int {
	if h == nil {
		return 0
	}
	return h.limit
}
