package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/websocket-relay/domain/relay"
)

// Service names exposed by the relay module.
const (
	ServiceRoomList    = "room-list"
	ServiceRoomHistory = "room-history"
	ServiceRoomMembers = "room-members"
)

// RoomListRequest is the request for listing rooms.
type RoomListRequest struct{}

// RoomListResponse is the response for listing rooms.
type RoomListResponse struct {
	Rooms []domain.RoomInfo `json:"rooms"`
}

// RoomHistoryRequest is the request for a room's retained history.
type RoomHistoryRequest struct {
	Room string `json:"room"`
}

// RoomHistoryResponse is the response for a room's retained history.
type RoomHistoryResponse struct {
	Room    string                `json:"room"`
	Entries []domain.HistoryEntry `json:"entries"`
}

// RoomMembersRequest is the request for a room's members.
type RoomMembersRequest struct {
	Room string `json:"room"`
}

// RoomMembersResponse is the response for a room's members.
type RoomMembersResponse struct {
	Room    string            `json:"room"`
	Members []domain.PeerInfo `json:"members"`
}

// RelayPort defines the interface for relay room queries (hexagonal port).
type RelayPort interface {
	RoomList(ctx context.Context) (*RoomListResponse, error)
	RoomHistory(ctx context.Context, room string) (*RoomHistoryResponse, error)
	RoomMembers(ctx context.Context, room string) (*RoomMembersResponse, error)
}

// relayAdapter wraps ServiceContainer for type-safe cross-module communication.
type relayAdapter struct {
	container mono.ServiceContainer
}

// NewRelayAdapter creates an adapter for relay services.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewRelayAdapter(container mono.ServiceContainer) RelayPort {
	if container == nil {
		panic("relay adapter requires non-nil ServiceContainer")
	}
	return &relayAdapter{container: container}
}

// RoomList lists the live rooms via the room-list service.
func (a *relayAdapter) RoomList(ctx context.Context) (*RoomListResponse, error) {
	req := RoomListRequest{}
	var resp RoomListResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomList,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceRoomList, err)
	}
	return &resp, nil
}

// RoomHistory fetches a room's history via the room-history service.
func (a *relayAdapter) RoomHistory(ctx context.Context, room string) (*RoomHistoryResponse, error) {
	req := RoomHistoryRequest{Room: room}
	var resp RoomHistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceRoomHistory, err)
	}
	return &resp, nil
}

// RoomMembers fetches a room's members via the room-members service.
func (a *relayAdapter) RoomMembers(ctx context.Context, room string) (*RoomMembersResponse, error) {
	req := RoomMembersRequest{Room: room}
	var resp RoomMembersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomMembers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceRoomMembers, err)
	}
	return &resp, nil
}
