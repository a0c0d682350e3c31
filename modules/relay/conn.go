package relay

import "sync"

// connState tracks the dispatcher state machine for one connection.
type connState int

const (
	stateUnjoined connState = iota
	stateJoined
	stateClosed
)

// Transport is the write side of a connection, owned by the transport layer.
// The engine references connections by identity and never stores state on the
// transport itself.
type Transport interface {
	WriteText(data []byte) error
	Ping() error
	Close() error
}

// outFrame is one queued delivery for a connection's writer.
type outFrame struct {
	data []byte
	ping bool
}

// Conn is the engine's record of a connected peer: its identity, display
// name, room membership, liveness mark, and bounded outbox.
type Conn struct {
	id        string
	transport Transport

	mu    sync.Mutex
	name  string
	room  string
	state connState
	alive bool

	outbox    chan outFrame
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, t Transport, outboxSize int) *Conn {
	return &Conn{
		id:        id,
		transport: t,
		name:      "peer-" + shortID(id),
		state:     stateUnjoined,
		alive:     true,
		outbox:    make(chan outFrame, outboxSize),
		done:      make(chan struct{}),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ID returns the transport-assigned connection identity.
func (c *Conn) ID() string { return c.id }

// Name returns the current display name.
func (c *Conn) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Conn) setName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Room returns the current room membership, or "" when unjoined.
func (c *Conn) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Conn) setRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
}

// State returns the dispatcher state.
func (c *Conn) State() connState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) setState(s connState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Conn) isAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

func (c *Conn) setAlive(alive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = alive
}

// enqueue queues a frame without ever blocking the caller. When the outbox is
// full the oldest queued frame for this connection is dropped to make room.
func (c *Conn) enqueue(f outFrame) {
	for {
		select {
		case c.outbox <- f:
			return
		default:
		}
		select {
		case <-c.outbox:
		default:
		}
	}
}

// writeLoop drains the outbox to the transport until the connection shuts
// down or a write fails. A failed write is reported through onError and the
// connection is torn down; it never affects other connections.
func (c *Conn) writeLoop(onError func(*Conn)) {
	for {
		select {
		case <-c.done:
			return
		case f := <-c.outbox:
			var err error
			if f.ping {
				err = c.transport.Ping()
			} else {
				err = c.transport.WriteText(f.data)
			}
			if err != nil {
				onError(c)
				return
			}
		}
	}
}

// shutdown stops the writer and closes the transport once. Safe to call from
// any handler, including during an active broadcast.
func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.transport.Close()
	})
}
