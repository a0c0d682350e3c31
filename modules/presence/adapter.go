package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ServiceRoomStats is the request-reply service exposed by this module.
const ServiceRoomStats = "room-stats"

// RoomStatsRequest asks for one room's counters, or all rooms when Room is
// empty.
type RoomStatsRequest struct {
	Room string `json:"room,omitempty"`
}

// RoomStatsResponse carries the requested counters.
type RoomStatsResponse struct {
	Stats []RoomStats `json:"stats"`
}

// StatsPort defines the interface for presence queries (hexagonal port).
type StatsPort interface {
	RoomStats(ctx context.Context, room string) (*RoomStatsResponse, error)
}

type statsAdapter struct {
	container mono.ServiceContainer
}

// NewStatsAdapter creates an adapter for presence services.
func NewStatsAdapter(container mono.ServiceContainer) StatsPort {
	if container == nil {
		panic("presence adapter requires non-nil ServiceContainer")
	}
	return &statsAdapter{container: container}
}

// RoomStats fetches activity counters via the room-stats service.
func (a *statsAdapter) RoomStats(ctx context.Context, room string) (*RoomStatsResponse, error) {
	req := RoomStatsRequest{Room: room}
	var resp RoomStatsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomStats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceRoomStats, err)
	}
	return &resp, nil
}
