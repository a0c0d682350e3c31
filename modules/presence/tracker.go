package presence

import (
	"sort"
	"sync"
	"time"
)

// RoomStats aggregates activity counters for one room.
type RoomStats struct {
	Room         string    `json:"room"`
	Joins        int       `json:"joins"`
	Leaves       int       `json:"leaves"`
	Messages     int       `json:"messages"`
	LastActivity time.Time `json:"last_activity"`
}

// Tracker accumulates per-room activity counters from relay events.
type Tracker struct {
	mu    sync.RWMutex
	rooms map[string]*RoomStats
}

func NewTracker() *Tracker {
	return &Tracker{
		rooms: make(map[string]*RoomStats),
	}
}

func (t *Tracker) RecordJoin(room string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.statsLocked(room)
	s.Joins++
	s.LastActivity = at
}

func (t *Tracker) RecordLeave(room string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.statsLocked(room)
	s.Leaves++
	s.LastActivity = at
}

func (t *Tracker) RecordMessage(room string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.statsLocked(room)
	s.Messages++
	s.LastActivity = at
}

func (t *Tracker) statsLocked(room string) *RoomStats {
	s, ok := t.rooms[room]
	if !ok {
		s = &RoomStats{Room: room}
		t.rooms[room] = s
	}
	return s
}

// Stats returns the counters for one room, or false when the room has seen no
// activity.
func (t *Tracker) Stats(room string) (RoomStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.rooms[room]
	if !ok {
		return RoomStats{}, false
	}
	return *s, true
}

// AllStats returns counters for every room observed so far, sorted by room
// name.
func (t *Tracker) AllStats() []RoomStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RoomStats, 0, len(t.rooms))
	for _, s := range t.rooms {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room < out[j].Room })
	return out
}
