package api

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/websocket-relay/modules/relay"
)

const writeWait = 10 * time.Second

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := m.app.Group("/api/v1")

	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:name/history", m.getHistory)
	api.Get("/rooms/:name/members", m.getMembers)
	api.Get("/stats", m.getStats)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":      "api",
			"connections": m.engine.ConnCount(),
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	resp, err := m.relayAdapter.RoomList(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}
	return c.JSON(RoomsResponse{Rooms: resp.Rooms})
}

// getHistory handles GET /api/v1/rooms/:name/history.
func (m *APIModule) getHistory(c *fiber.Ctx) error {
	room := c.Params("name")
	resp, err := m.relayAdapter.RoomHistory(c.UserContext(), room)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "history_failed",
			Message: "Failed to get history",
		})
	}
	return c.JSON(HistoryResponse{Room: room, Entries: resp.Entries})
}

// getMembers handles GET /api/v1/rooms/:name/members.
func (m *APIModule) getMembers(c *fiber.Ctx) error {
	room := c.Params("name")
	resp, err := m.relayAdapter.RoomMembers(c.UserContext(), room)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "members_failed",
			Message: "Failed to get members",
		})
	}
	return c.JSON(MembersResponse{Room: room, Members: resp.Members})
}

// getStats handles GET /api/v1/stats. An optional room query parameter
// narrows the result to one room.
func (m *APIModule) getStats(c *fiber.Ctx) error {
	resp, err := m.statsAdapter.RoomStats(c.UserContext(), c.Query("room"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "stats_failed",
			Message: "Failed to get stats",
		})
	}
	return c.JSON(StatsResponse{Stats: resp.Stats})
}

// wsTransport adapts a Fiber websocket connection to the relay transport.
// The engine's writer goroutine and the close path may touch the connection
// concurrently, so writes are serialized with a mutex.
type wsTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

var _ relay.Transport = (*wsTransport)(nil)

func (t *wsTransport) WriteText(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Ping() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.PingMessage, nil)
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.Close()
}

// handleWebSocket handles WebSocket connections at /ws. The handler blocks
// reading frames until the peer disconnects or the engine tears the
// connection down.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()

	c.SetReadLimit(m.engine.MaxFrameSize())
	c.SetPongHandler(func(string) error {
		m.engine.MarkAlive(connID)
		return nil
	})

	m.engine.Attach(connID, &wsTransport{conn: c})
	defer m.engine.Detach(connID)

	log.Printf("[api] WebSocket client connected: %s", connID)

	for {
		mt, msg, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Client %s closed connection", connID)
			} else {
				log.Printf("[api] Read error from %s: %v", connID, err)
			}
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		m.engine.HandleFrame(connID, msg)
	}

	log.Printf("[api] WebSocket client disconnected: %s", connID)
}
