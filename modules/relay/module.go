package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/websocket-relay/events"
)

// Module wraps the relay engine as a mono module. It emits peer lifecycle
// events on the EventBus and exposes room queries as request-reply services.
type Module struct {
	cfg      Config
	engine   *Engine
	eventBus mono.EventBus
	cancel   context.CancelFunc
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the relay module around a fresh engine.
func NewModule(cfg Config, logger *slog.Logger) *Module {
	m := &Module{
		cfg:    cfg,
		engine: NewEngine(cfg, logger),
	}
	m.engine.SetHooks(Hooks{
		PeerJoined: m.publishPeerJoined,
		PeerLeft:   m.publishPeerLeft,
		ChatSent:   m.publishMessageBroadcast,
	})
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// Engine exposes the engine for transport wiring.
func (m *Module) Engine() *Engine {
	return m.engine
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.PeerJoinedV1.ToBase(),
		events.PeerLeftV1.ToBase(),
		events.MessageBroadcastV1.ToBase(),
	}
}

// RegisterServices registers the room query services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomList, json.Unmarshal, json.Marshal, m.roomList,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomList, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomHistory, json.Unmarshal, json.Marshal, m.roomHistory,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomHistory, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomMembers, json.Unmarshal, json.Marshal, m.roomMembers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomMembers, err)
	}

	log.Printf("[relay] Registered services: %s, %s, %s", ServiceRoomList, ServiceRoomHistory, ServiceRoomMembers)
	return nil
}

// Start launches the dispatch loop.
func (m *Module) Start(_ context.Context) error {
	if m.eventBus == nil {
		log.Println("[relay] Warning: eventBus not set, events will not be published")
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.engine.Run(ctx)
	log.Printf("[relay] Module started (history=%d entries/%s, probe=%s)",
		m.cfg.MaxHistory, m.cfg.MaxAge, m.cfg.ProbeInterval)
	return nil
}

// Stop cancels the dispatch loop and waits for it to drain.
func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
		m.engine.Wait()
	}
	log.Println("[relay] Module stopped")
	return nil
}

// Health reports the dispatch loop state and connection count.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	select {
	case <-m.engine.done:
		return mono.HealthStatus{
			Healthy: false,
			Message: "dispatch loop not running",
		}
	default:
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: fmt.Sprintf("%d connections, %d rooms", m.engine.ConnCount(), len(m.engine.Rooms())),
	}
}

func (m *Module) roomList(_ context.Context, _ RoomListRequest, _ *mono.Msg) (RoomListResponse, error) {
	return RoomListResponse{Rooms: m.engine.Rooms()}, nil
}

func (m *Module) roomHistory(_ context.Context, req RoomHistoryRequest, _ *mono.Msg) (RoomHistoryResponse, error) {
	if req.Room == "" {
		return RoomHistoryResponse{}, fmt.Errorf("room is required")
	}
	return RoomHistoryResponse{
		Room:    req.Room,
		Entries: m.engine.HistorySnapshot(req.Room),
	}, nil
}

func (m *Module) roomMembers(_ context.Context, req RoomMembersRequest, _ *mono.Msg) (RoomMembersResponse, error) {
	if req.Room == "" {
		return RoomMembersResponse{}, fmt.Errorf("room is required")
	}
	return RoomMembersResponse{
		Room:    req.Room,
		Members: m.engine.RoomMembers(req.Room),
	}, nil
}

func (m *Module) publishPeerJoined(connID, room, username string, at time.Time) {
	if m.eventBus == nil {
		return
	}
	event := events.PeerJoinedEvent{ConnID: connID, Room: room, Username: username, Timestamp: at}
	if err := events.PeerJoinedV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Warn("Failed to publish PeerJoined event", "error", err)
	}
}

func (m *Module) publishPeerLeft(connID, room, username string, at time.Time) {
	if m.eventBus == nil {
		return
	}
	event := events.PeerLeftEvent{ConnID: connID, Room: room, Username: username, Timestamp: at}
	if err := events.PeerLeftV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Warn("Failed to publish PeerLeft event", "error", err)
	}
}

func (m *Module) publishMessageBroadcast(connID, room, username, text string, at time.Time) {
	if m.eventBus == nil {
		return
	}
	event := events.MessageBroadcastEvent{ConnID: connID, Room: room, Username: username, Text: text, Timestamp: at}
	if err := events.MessageBroadcastV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Warn("Failed to publish MessageBroadcast event", "error", err)
	}
}
