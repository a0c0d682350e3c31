package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/websocket-relay/events"
)

// Module consumes relay lifecycle events and keeps per-room activity
// counters, exposed as the room-stats service.
type Module struct {
	tracker *Tracker
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
)

func NewModule() *Module {
	return &Module{
		tracker: NewTracker(),
	}
}

func (m *Module) Name() string {
	return "presence"
}

// Tracker exposes the counter store, mainly for tests.
func (m *Module) Tracker() *Tracker {
	return m.tracker
}

func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.PeerJoinedV1, m.handlePeerJoined, m); err != nil {
		return fmt.Errorf("failed to register PeerJoined consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.PeerLeftV1, m.handlePeerLeft, m); err != nil {
		return fmt.Errorf("failed to register PeerLeft consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.MessageBroadcastV1, m.handleMessageBroadcast, m); err != nil {
		return fmt.Errorf("failed to register MessageBroadcast consumer: %w", err)
	}

	log.Printf("[presence] Registered event consumers: PeerJoined, PeerLeft, MessageBroadcast")
	return nil
}

func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomStats, json.Unmarshal, json.Marshal, m.roomStats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomStats, err)
	}

	log.Printf("[presence] Registered services: %s", ServiceRoomStats)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	log.Println("[presence] Module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	log.Println("[presence] Module stopped")
	return nil
}

func (m *Module) handlePeerJoined(_ context.Context, event events.PeerJoinedEvent, _ *mono.Msg) error {
	m.tracker.RecordJoin(event.Room, event.Timestamp)
	log.Printf("[presence] Peer joined: %s in %s", event.Username, event.Room)
	return nil
}

func (m *Module) handlePeerLeft(_ context.Context, event events.PeerLeftEvent, _ *mono.Msg) error {
	m.tracker.RecordLeave(event.Room, event.Timestamp)
	log.Printf("[presence] Peer left: %s from %s", event.Username, event.Room)
	return nil
}

func (m *Module) handleMessageBroadcast(_ context.Context, event events.MessageBroadcastEvent, _ *mono.Msg) error {
	m.tracker.RecordMessage(event.Room, event.Timestamp)
	return nil
}

func (m *Module) roomStats(_ context.Context, req RoomStatsRequest, _ *mono.Msg) (RoomStatsResponse, error) {
	if req.Room != "" {
		s, ok := m.tracker.Stats(req.Room)
		if !ok {
			return RoomStatsResponse{Stats: []RoomStats{}}, nil
		}
		return RoomStatsResponse{Stats: []RoomStats{s}}, nil
	}
	return RoomStatsResponse{Stats: m.tracker.AllStats()}, nil
}
