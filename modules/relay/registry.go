package relay

import (
	"sort"
	"sync"

	domain "github.com/example/websocket-relay/domain/relay"
)

// Registry maps room names to their member connections. Rooms hold non-owning
// references: a connection belongs to at most one room, rooms are created on
// first join, and a room is deleted the moment its last member is removed.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]*Conn),
	}
}

// Join adds conn to the named room, creating it if absent. A connection
// already in a different room is removed from that room first.
func (r *Registry) Join(conn *Conn, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn.Room() == room {
		return
	}
	r.removeLocked(conn)

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]*Conn)
	}
	r.rooms[room][conn.id] = conn
	conn.setRoom(room)
}

// Leave removes conn from whatever room it belongs to. Idempotent: a
// connection not in any room is a no-op.
func (r *Registry) Leave(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(conn)
}

func (r *Registry) removeLocked(conn *Conn) {
	room := conn.Room()
	if room == "" {
		return
	}
	if members, ok := r.rooms[room]; ok {
		delete(members, conn.id)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	conn.setRoom("")
}

// Members returns a stable snapshot of the room's current members for
// fan-out iteration.
func (r *Registry) Members(room string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]*Conn, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// RoomSize returns the member count of a room, zero when absent.
func (r *Registry) RoomSize(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// hasRoom reports whether the named room currently exists.
func (r *Registry) hasRoom(room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room]
	return ok
}

// Rooms returns the live rooms with member counts, sorted by name.
func (r *Registry) Rooms() []domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.RoomInfo, 0, len(r.rooms))
	for name, members := range r.rooms {
		out = append(out, domain.RoomInfo{Name: name, Members: len(members)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
