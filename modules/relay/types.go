package relay

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	domain "github.com/example/websocket-relay/domain/relay"
)

// Inbound message types.
const (
	TypeJoin         = "join"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypeICE          = "ice" // legacy alias still sent by older signaling clients
	TypeChatMessage  = "chat-message"
	TypeGetHistory   = "get-history"
)

// Outbound message types.
const (
	TypeNewPeer       = "new-peer"
	TypeChatHistory   = "chat-history"
	TypeUserJoined    = "user-joined-notification"
	TypeUserLeft      = "user-left-notification"
	TypeSystemMessage = "system-message"
)

// DefaultRoom is the room a connection joins when the join message names none.
// The global chat mode is this room with every connection in it.
const DefaultRoom = "global"

// TimestampLayout renders message instants for clients.
const TimestampLayout = "2006-01-02 15:04:05"

// Validation constants
const (
	MaxUsernameLength = 50
	MaxRoomNameLength = 100
	MaxTextLength     = 4096
)

// Validation errors
var (
	ErrMalformedFrame    = errors.New("frame is not a valid message")
	ErrJoinTargetMissing = errors.New("join requires a room or username")
	ErrUsernameTooLong   = errors.New("username exceeds maximum length")
	ErrUsernameInvalid   = errors.New("username contains invalid characters")
	ErrRoomNameTooLong   = errors.New("room name exceeds maximum length")
	ErrRoomNameInvalid   = errors.New("room name contains invalid characters")
	ErrTextEmpty         = errors.New("message text cannot be empty")
	ErrTextTooLong       = errors.New("message text exceeds maximum length")
	ErrTextInvalid       = errors.New("message text contains invalid characters")
)

// Envelope is the parsed shape of an inbound frame.
type Envelope struct {
	Type     string          `json:"type"`
	Room     string          `json:"room,omitempty"`
	Username string          `json:"username,omitempty"`
	Text     string          `json:"text,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Outbound is the JSON shape of server-initiated frames.
type Outbound struct {
	Type      string                `json:"type"`
	Room      string                `json:"room,omitempty"`
	Username  string                `json:"username,omitempty"`
	Text      string                `json:"text,omitempty"`
	Timestamp string                `json:"timestamp,omitempty"`
	Entries   []domain.HistoryEntry `json:"entries,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// ParseEnvelope decodes an inbound frame. A frame that is not a JSON object
// with a non-empty type is malformed.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, ErrMalformedFrame
	}
	if env.Type == "" {
		return Envelope{}, ErrMalformedFrame
	}
	return env, nil
}

// IsRelayType reports whether t is a signaling payload forwarded opaquely.
func IsRelayType(t string) bool {
	switch t {
	case TypeOffer, TypeAnswer, TypeICECandidate, TypeICE:
		return true
	}
	return false
}

// ValidateJoin trims and checks the join fields in place. A join must name a
// room or a username; either one alone is enough, the other keeps its
// current value.
func ValidateJoin(env *Envelope) error {
	env.Room = strings.TrimSpace(env.Room)
	env.Username = strings.TrimSpace(env.Username)

	if env.Room == "" && env.Username == "" {
		return ErrJoinTargetMissing
	}
	if len(env.Username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if !utf8.ValidString(env.Username) {
		return ErrUsernameInvalid
	}
	if len(env.Room) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	if !utf8.ValidString(env.Room) {
		return ErrRoomNameInvalid
	}
	return nil
}

// ValidateText trims and checks chat message text, returning the trimmed form.
func ValidateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrTextEmpty
	}
	if len(trimmed) > MaxTextLength {
		return "", ErrTextTooLong
	}
	if !utf8.ValidString(trimmed) {
		return "", ErrTextInvalid
	}
	return trimmed, nil
}
