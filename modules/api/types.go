package api

import (
	domain "github.com/example/websocket-relay/domain/relay"
	"github.com/example/websocket-relay/modules/presence"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// RoomsResponse is the payload for GET /api/v1/rooms.
type RoomsResponse struct {
	Rooms []domain.RoomInfo `json:"rooms"`
}

// HistoryResponse is the payload for GET /api/v1/rooms/:name/history.
type HistoryResponse struct {
	Room    string                `json:"room"`
	Entries []domain.HistoryEntry `json:"entries"`
}

// MembersResponse is the payload for GET /api/v1/rooms/:name/members.
type MembersResponse struct {
	Room    string            `json:"room"`
	Members []domain.PeerInfo `json:"members"`
}

// StatsResponse is the payload for GET /api/v1/stats.
type StatsResponse struct {
	Stats []presence.RoomStats `json:"stats"`
}
