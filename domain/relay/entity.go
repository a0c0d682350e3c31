package relay

import "time"

// Message kinds retained in room history.
const (
	KindChat   = "chat"
	KindSystem = "system"
)

// Message is a chat or system message as created by the server.
type Message struct {
	Kind      string    `json:"kind"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is a retained message rendered for delivery to clients.
type HistoryEntry struct {
	Kind     string `json:"kind"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
	SentAt   string `json:"sent_at"`
}

// RoomInfo describes a live room.
type RoomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// PeerInfo describes a joined connection.
type PeerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Room     string `json:"room"`
}
