package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// PeerJoinedEvent is emitted when a connection joins a room.
type PeerJoinedEvent struct {
	ConnID    string    `json:"conn_id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// PeerLeftEvent is emitted when a connection leaves its room, whether by
// rejoining elsewhere, closing, or failing a liveness probe.
type PeerLeftEvent struct {
	ConnID    string    `json:"conn_id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageBroadcastEvent is emitted when a chat message is fanned out to a room.
type MessageBroadcastEvent struct {
	ConnID    string    `json:"conn_id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the relay domain.
var (
	PeerJoinedV1 = helper.EventDefinition[PeerJoinedEvent](
		"relay",
		"PeerJoined",
		"v1",
	)

	PeerLeftV1 = helper.EventDefinition[PeerLeftEvent](
		"relay",
		"PeerLeft",
		"v1",
	)

	MessageBroadcastV1 = helper.EventDefinition[MessageBroadcastEvent](
		"relay",
		"MessageBroadcast",
		"v1",
	)
)
