package relay

import (
	domain "github.com/example/websocket-relay/domain/relay"
)

// dispatch routes one inbound frame. Frames from unjoined connections are
// rejected for everything except join; frames from closed connections are
// dropped silently.
func (e *Engine) dispatch(c *Conn, raw []byte) {
	if c.State() == stateClosed {
		return
	}

	env, err := ParseEnvelope(raw)
	if err != nil {
		e.logger.Warn("malformed frame", "connID", c.id, "error", err)
		e.sendSystemError(c, "malformed message")
		return
	}

	switch {
	case env.Type == TypeJoin:
		e.handleJoin(c, &env)
	case c.State() != stateJoined:
		e.logger.Warn("frame before join", "connID", c.id, "type", env.Type)
		e.sendSystemError(c, "join a room first")
	case IsRelayType(env.Type):
		e.handleRelay(c, &env, raw)
	case env.Type == TypeChatMessage:
		e.handleChat(c, &env)
	case env.Type == TypeGetHistory:
		e.handleHistoryRequest(c)
	default:
		// Unknown types are logged and dropped, never answered.
		e.logger.Warn("unknown frame type", "connID", c.id, "type", env.Type)
	}
}

// handleJoin admits a connection into a room, or renames / moves an already
// joined one. Either field may be omitted: a missing room falls back to the
// connection's current room and then the default, a missing username keeps
// the current name.
func (e *Engine) handleJoin(c *Conn, env *Envelope) {
	if err := ValidateJoin(env); err != nil {
		e.logger.Warn("join rejected", "connID", c.id, "error", err)
		e.sendSystemError(c, err.Error())
		return
	}

	room := env.Room
	if room == "" {
		room = c.Room()
	}
	if room == "" {
		room = DefaultRoom
	}
	name := env.Username
	if name == "" {
		name = c.Name()
	}

	oldRoom := c.Room()
	at := e.now()

	c.setName(name)
	e.registry.Join(c, room)
	c.setState(stateJoined)

	if oldRoom != "" && oldRoom != room {
		e.broadcastSystem(oldRoom, TypeUserLeft, name, name+" has left", nil, at)
		if e.hooks.PeerLeft != nil {
			e.hooks.PeerLeft(c.id, oldRoom, name, at)
		}
	}

	e.broadcastToRoom(room, c, Outbound{
		Type:     TypeNewPeer,
		Room:     room,
		Username: name,
	})
	e.broadcastSystem(room, TypeUserJoined, name, name+" has joined", c, at)

	if e.hooks.PeerJoined != nil {
		e.hooks.PeerJoined(c.id, room, name, at)
	}
	e.logger.Info("peer joined", "connID", c.id, "username", name, "room", room)
}

// handleRelay forwards a signaling frame verbatim to the other members of the
// sender's room. The sender's registered room is authoritative; a differing
// room field on the frame is ignored.
func (e *Engine) handleRelay(c *Conn, env *Envelope, raw []byte) {
	room := c.Room()
	if env.Room != "" && env.Room != room {
		e.logger.Debug("relay frame room mismatch", "connID", c.id, "frameRoom", env.Room, "room", room)
	}
	e.fanOut(room, c, raw)
}

// handleChat validates, stores, and fans out a chat message. The sender does
// not receive an echo.
func (e *Engine) handleChat(c *Conn, env *Envelope) {
	text, err := ValidateText(env.Text)
	if err != nil {
		e.logger.Warn("chat rejected", "connID", c.id, "error", err)
		e.sendSystemError(c, err.Error())
		return
	}

	room := c.Room()
	name := c.Name()
	at := e.now()

	e.history(room).Append(domain.Message{
		Kind:      domain.KindChat,
		Username:  name,
		Text:      text,
		Timestamp: at,
	})
	e.broadcastToRoom(room, c, Outbound{
		Type:      TypeChatMessage,
		Room:      room,
		Username:  name,
		Text:      text,
		Timestamp: at.Format(TimestampLayout),
	})

	if e.hooks.ChatSent != nil {
		e.hooks.ChatSent(c.id, room, name, text, at)
	}
}

// handleHistoryRequest sends the room's retained history to the requester
// only.
func (e *Engine) handleHistoryRequest(c *Conn) {
	room := c.Room()
	e.sendTo(c, Outbound{
		Type:    TypeChatHistory,
		Room:    room,
		Entries: e.HistorySnapshot(room),
	})
}
