package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	domain "github.com/example/websocket-relay/domain/relay"
)

// eventKind discriminates dispatch-loop events.
type eventKind int

const (
	evAttach eventKind = iota
	evFrame
	evDetach
	evPong
)

type event struct {
	kind eventKind
	id   string
	conn *Conn  // evAttach only
	raw  []byte // evFrame only
}

// Hooks receives lifecycle callbacks from the dispatch loop. Nil fields are
// skipped.
type Hooks struct {
	PeerJoined func(connID, room, username string, at time.Time)
	PeerLeft   func(connID, room, username string, at time.Time)
	ChatSent   func(connID, room, username, text string, at time.Time)
}

// Engine owns the connection registry, room membership, and per-room history
// stores. A single dispatch loop consumes inbound frames, closes, pongs, and
// timer ticks strictly in arrival order, so membership and history are never
// mutated concurrently.
type Engine struct {
	cfg      Config
	registry *Registry
	logger   *slog.Logger
	hooks    Hooks

	mu        sync.RWMutex
	conns     map[string]*Conn
	histories map[string]*History

	events chan event
	done   chan struct{}

	now func() time.Time
}

// NewEngine creates an engine with the given configuration. Call Run to start
// the dispatch loop.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:       cfg.sanitized(),
		registry:  NewRegistry(),
		logger:    logger,
		conns:     make(map[string]*Conn),
		histories: make(map[string]*History),
		events:    make(chan event, 256),
		done:      make(chan struct{}),
		now:       time.Now,
	}
}

// SetHooks installs lifecycle callbacks. Must be called before Run.
func (e *Engine) SetHooks(h Hooks) {
	e.hooks = h
}

// MaxFrameSize returns the configured inbound frame size limit.
func (e *Engine) MaxFrameSize() int64 {
	return e.cfg.MaxFrameSize
}

// Run processes events and timer ticks until ctx is cancelled. This is the
// only goroutine that mutates the registry or the history stores.
func (e *Engine) Run(ctx context.Context) {
	probe := time.NewTicker(e.cfg.ProbeInterval)
	sweep := time.NewTicker(e.cfg.SweepInterval)
	defer probe.Stop()
	defer sweep.Stop()
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			e.closeAll()
			return
		case ev := <-e.events:
			e.handle(ev)
		case <-probe.C:
			e.probeConnections()
		case <-sweep.C:
			e.sweepHistories()
		}
	}
}

// Wait blocks until the dispatch loop has stopped.
func (e *Engine) Wait() {
	<-e.done
}

// Attach registers a new transport connection and starts its writer.
func (e *Engine) Attach(id string, t Transport) {
	c := newConn(id, t, e.cfg.OutboxSize)
	go c.writeLoop(func(failed *Conn) {
		e.logger.Warn("write failed; scheduling removal", "connID", failed.id)
		e.Detach(failed.id)
	})
	e.send(event{kind: evAttach, id: id, conn: c})
}

// HandleFrame enqueues one inbound frame for dispatch. The raw bytes are
// copied because transports reuse their read buffers.
func (e *Engine) HandleFrame(id string, raw []byte) {
	buf := make([]byte, len(raw))
	copy(buf, raw)
	e.send(event{kind: evFrame, id: id, raw: buf})
}

// Detach schedules removal of a connection. Safe to call more than once.
func (e *Engine) Detach(id string) {
	e.send(event{kind: evDetach, id: id})
}

// MarkAlive records a liveness probe response.
func (e *Engine) MarkAlive(id string) {
	e.send(event{kind: evPong, id: id})
}

// send enqueues an event for the dispatch loop. Once the loop has stopped the
// event is dropped so transport goroutines never block during shutdown.
func (e *Engine) send(ev event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

func (e *Engine) handle(ev event) {
	switch ev.kind {
	case evAttach:
		e.handleAttach(ev.conn)
	case evFrame:
		if c := e.conn(ev.id); c != nil {
			e.dispatch(c, ev.raw)
		}
	case evDetach:
		e.handleDetach(ev.id)
	case evPong:
		if c := e.conn(ev.id); c != nil {
			c.setAlive(true)
		}
	}
}

func (e *Engine) handleAttach(c *Conn) {
	e.mu.Lock()
	e.conns[c.id] = c
	total := len(e.conns)
	e.mu.Unlock()
	e.logger.Info("connection attached", "connID", c.id, "total", total)
}

func (e *Engine) handleDetach(id string) {
	e.mu.Lock()
	c, ok := e.conns[id]
	if ok {
		delete(e.conns, id)
	}
	e.mu.Unlock()
	if !ok {
		return
	}
	e.closeConn(c)
}

// closeConn finishes a connection's lifecycle: membership is removed, the
// transport torn down, and former room members notified.
func (e *Engine) closeConn(c *Conn) {
	room := c.Room()
	name := c.Name()
	joined := c.State() == stateJoined
	c.setState(stateClosed)

	e.registry.Leave(c)
	c.shutdown()

	if joined && room != "" {
		at := e.now()
		e.broadcastSystem(room, TypeUserLeft, name, name+" has left", nil, at)
		if e.hooks.PeerLeft != nil {
			e.hooks.PeerLeft(c.id, room, name, at)
		}
	}
	e.logger.Info("connection closed", "connID", c.id, "username", name)
}

// probeConnections applies the two-strike liveness policy: a connection that
// failed to answer the previous cycle's probe is removed exactly like a
// transport close; everyone else is marked pending and pinged.
func (e *Engine) probeConnections() {
	for _, c := range e.connSnapshot() {
		if c.State() == stateClosed {
			continue
		}
		if !c.isAlive() {
			e.logger.Warn("liveness probe missed twice; dropping connection", "connID", c.id)
			e.handleDetach(c.id)
			continue
		}
		c.setAlive(false)
		c.enqueue(outFrame{ping: true})
	}
}

// sweepHistories ages out entries on every room history and drops stores that
// emptied for rooms that no longer exist.
func (e *Engine) sweepHistories() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for room, h := range e.histories {
		h.Evict()
		if h.Len() == 0 && e.registry.RoomSize(room) == 0 {
			delete(e.histories, room)
		}
	}
}

func (e *Engine) closeAll() {
	e.mu.Lock()
	conns := make([]*Conn, 0, len(e.conns))
	for _, c := range e.conns {
		conns = append(conns, c)
	}
	e.conns = make(map[string]*Conn)
	e.mu.Unlock()

	for _, c := range conns {
		c.setState(stateClosed)
		e.registry.Leave(c)
		c.shutdown()
	}
	e.logger.Info("closed all connections", "count", len(conns))
}

// history returns the room's store, creating it on first use. Stores are not
// tied to room lifetime: a room emptied and eagerly deleted keeps its history
// until age eviction drains it.
func (e *Engine) history(room string) *History {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.histories[room]
	if !ok {
		h = NewHistory(e.cfg.MaxHistory, e.cfg.MaxAge)
		h.now = func() time.Time { return e.now() }
		e.histories[room] = h
	}
	return h
}

// broadcastSystem records a system entry in the room's history and notifies
// members, excluding at most one connection.
func (e *Engine) broadcastSystem(room, outType, username, text string, exclude *Conn, at time.Time) {
	e.history(room).Append(domain.Message{
		Kind:      domain.KindSystem,
		Username:  username,
		Text:      text,
		Timestamp: at,
	})
	e.broadcastToRoom(room, exclude, Outbound{
		Type:      outType,
		Room:      room,
		Username:  username,
		Text:      text,
		Timestamp: at.Format(TimestampLayout),
	})
}

// broadcastToRoom serializes once and fans the payload out to every live
// member of the room except exclude.
func (e *Engine) broadcastToRoom(room string, exclude *Conn, out Outbound) {
	data, err := json.Marshal(out)
	if err != nil {
		e.logger.Error("failed to marshal outbound frame", "error", err)
		return
	}
	e.fanOut(room, exclude, data)
}

// fanOut delivers pre-serialized bytes to the room. Iteration runs over a
// stable membership snapshot so a close during delivery cannot corrupt it.
func (e *Engine) fanOut(room string, exclude *Conn, data []byte) {
	for _, member := range e.registry.Members(room) {
		if exclude != nil && member.id == exclude.id {
			continue
		}
		if member.State() == stateClosed {
			continue
		}
		member.enqueue(outFrame{data: data})
	}
}

func (e *Engine) sendTo(c *Conn, out Outbound) {
	data, err := json.Marshal(out)
	if err != nil {
		e.logger.Error("failed to marshal outbound frame", "error", err)
		return
	}
	c.enqueue(outFrame{data: data})
}

func (e *Engine) sendSystemError(c *Conn, msg string) {
	e.sendTo(c, Outbound{
		Type:      TypeSystemMessage,
		Error:     msg,
		Timestamp: e.now().Format(TimestampLayout),
	})
}

func (e *Engine) conn(id string) *Conn {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.conns[id]
}

func (e *Engine) connSnapshot() []*Conn {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Conn, 0, len(e.conns))
	for _, c := range e.conns {
		out = append(out, c)
	}
	return out
}

// ConnCount returns the number of attached connections.
func (e *Engine) ConnCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.conns)
}

// Rooms returns the live rooms with member counts.
func (e *Engine) Rooms() []domain.RoomInfo {
	return e.registry.Rooms()
}

// RoomMembers returns the joined peers of a room.
func (e *Engine) RoomMembers(room string) []domain.PeerInfo {
	members := e.registry.Members(room)
	out := make([]domain.PeerInfo, 0, len(members))
	for _, c := range members {
		out = append(out, domain.PeerInfo{ID: c.id, Username: c.Name(), Room: room})
	}
	return out
}

// HistorySnapshot returns the retained history of a room, oldest-first.
// A room with no history yields an empty slice.
func (e *Engine) HistorySnapshot(room string) []domain.HistoryEntry {
	e.mu.RLock()
	h := e.histories[room]
	e.mu.RUnlock()
	if h == nil {
		return []domain.HistoryEntry{}
	}
	return h.Snapshot()
}
