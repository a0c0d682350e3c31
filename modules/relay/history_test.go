package relay

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/example/websocket-relay/domain/relay"
)

var historyBase = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestHistory(maxEntries int, maxAge time.Duration, at time.Time) *History {
	h := NewHistory(maxEntries, maxAge)
	h.now = func() time.Time { return at }
	return h
}

func chatMsg(i int, at time.Time) domain.Message {
	return domain.Message{
		Kind:      domain.KindChat,
		Username:  "alice",
		Text:      fmt.Sprintf("message %d", i),
		Timestamp: at,
	}
}

func TestHistory_CountEviction(t *testing.T) {
	h := newTestHistory(50, 15*time.Minute, historyBase)

	for i := 1; i <= 51; i++ {
		h.Append(chatMsg(i, historyBase))
	}

	require.Equal(t, 50, h.Len())

	snap := h.Snapshot()
	assert.Equal(t, "message 2", snap[0].Text, "oldest entry should have been evicted")
	assert.Equal(t, "message 51", snap[49].Text)
}

func TestHistory_FIFOOrder(t *testing.T) {
	h := newTestHistory(50, 15*time.Minute, historyBase)

	for i := 1; i <= 5; i++ {
		h.Append(chatMsg(i, historyBase.Add(time.Duration(i)*time.Second)))
	}

	snap := h.Snapshot()
	require.Len(t, snap, 5)
	for i, entry := range snap {
		assert.Equal(t, fmt.Sprintf("message %d", i+1), entry.Text)
	}
}

func TestHistory_AgeEviction(t *testing.T) {
	now := historyBase
	h := NewHistory(50, 15*time.Minute)
	h.now = func() time.Time { return now }

	h.Append(chatMsg(1, now))
	h.Append(chatMsg(2, now.Add(10*time.Minute)))
	require.Equal(t, 2, h.Len())

	// First entry is now 16 minutes old, second only 6.
	now = historyBase.Add(16 * time.Minute)
	h.Evict()

	snap := h.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "message 2", snap[0].Text)

	// Everything ages out eventually.
	now = historyBase.Add(time.Hour)
	h.Evict()
	assert.Equal(t, 0, h.Len())
}

func TestHistory_AgeEvictionExactBoundary(t *testing.T) {
	now := historyBase
	h := NewHistory(50, 15*time.Minute)
	h.now = func() time.Time { return now }

	h.Append(chatMsg(1, now))

	// An entry exactly maxAge old is expired.
	now = historyBase.Add(15 * time.Minute)
	h.Evict()
	assert.Equal(t, 0, h.Len())
}

func TestHistory_EvictionOnAppend(t *testing.T) {
	now := historyBase
	h := NewHistory(50, 15*time.Minute)
	h.now = func() time.Time { return now }

	h.Append(chatMsg(1, now))

	// Appending after the retention window drops the aged head in the same
	// call, without waiting for a sweep.
	now = historyBase.Add(20 * time.Minute)
	h.Append(chatMsg(2, now))

	snap := h.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "message 2", snap[0].Text)
}

func TestHistory_SnapshotRendersTimestamps(t *testing.T) {
	h := newTestHistory(50, 15*time.Minute, historyBase)

	h.Append(domain.Message{
		Kind:      domain.KindSystem,
		Username:  "alice",
		Text:      "alice has joined",
		Timestamp: historyBase,
	})

	snap := h.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, domain.KindSystem, snap[0].Kind)
	assert.Equal(t, "2024-05-01 12:00:00", snap[0].SentAt)
}

func TestHistory_ZeroConfigFallsBackToDefaults(t *testing.T) {
	h := NewHistory(0, 0)
	assert.Equal(t, DefaultConfig().MaxHistory, h.maxEntries)
	assert.Equal(t, DefaultConfig().MaxAge, h.maxAge)
}

func BenchmarkHistory_Append(b *testing.B) {
	h := newTestHistory(50, 15*time.Minute, historyBase)
	msg := chatMsg(1, historyBase)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Append(msg)
	}
}
