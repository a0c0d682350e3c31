package relay

import (
	"sync"
	"time"

	domain "github.com/example/websocket-relay/domain/relay"
)

// History is a bounded, age-limited FIFO log of the messages broadcast to one
// room. Entries are evicted when the store exceeds its size limit or when
// their age reaches the retention window; both rules run on every append and
// again on the engine's periodic sweep.
type History struct {
	mu         sync.RWMutex
	entries    []domain.Message
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time
}

// NewHistory creates an empty history store.
func NewHistory(maxEntries int, maxAge time.Duration) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultConfig().MaxHistory
	}
	if maxAge <= 0 {
		maxAge = DefaultConfig().MaxAge
	}
	return &History{
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Append adds msg to the tail and applies both eviction rules.
func (h *History) Append(msg domain.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, msg)
	h.evictLocked()
}

// Evict applies both eviction rules without appending. Called by the sweep
// timer so aged entries are dropped even with no new traffic.
func (h *History) Evict() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evictLocked()
}

// evictLocked trims the head for count, then for age. Entries are appended in
// non-decreasing timestamp order, so a head scan finds every expired entry.
func (h *History) evictLocked() {
	if n := len(h.entries) - h.maxEntries; n > 0 {
		h.entries = append([]domain.Message(nil), h.entries[n:]...)
	}

	cutoff := h.now().Add(-h.maxAge)
	expired := 0
	for expired < len(h.entries) && !h.entries[expired].Timestamp.After(cutoff) {
		expired++
	}
	if expired > 0 {
		h.entries = append([]domain.Message(nil), h.entries[expired:]...)
	}
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Snapshot returns the retained entries oldest-first, with timestamps rendered
// for clients.
func (h *History) Snapshot() []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.HistoryEntry, 0, len(h.entries))
	for _, m := range h.entries {
		out = append(out, domain.HistoryEntry{
			Kind:     m.Kind,
			Username: m.Username,
			Text:     m.Text,
			SentAt:   m.Timestamp.Format(TimestampLayout),
		})
	}
	return out
}
