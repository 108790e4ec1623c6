// Package chatsvc implements the websocket chat hub for game clients and
// dedicated servers.
package chatsvc

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/potential-games/mmo-services/internal/app/domain/chat"
	"github.com/potential-games/mmo-services/internal/app/metrics"
	"github.com/potential-games/mmo-services/internal/app/system"
	"github.com/potential-games/mmo-services/pkg/logger"
)

var _ system.Service = (*Hub)(nil)

// Hub routes chat frames between connected clients. It owns all connection
// state: identity registrations, the character index used for private
// messages, and local room membership.
type Hub struct {
	log *logger.Logger

	mu          sync.RWMutex
	clients     map[*Client]bool
	identities  map[*Client]chat.Identity
	byCharacter map[string]*Client
	rooms       map[string]map[*Client]bool
	clientRoom  map[*Client]string
	running     bool
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewDefault("chat-hub")
	}
	return &Hub{
		log:         log,
		clients:     make(map[*Client]bool),
		identities:  make(map[*Client]chat.Identity),
		byCharacter: make(map[string]*Client),
		rooms:       make(map[string]map[*Client]bool),
		clientRoom:  make(map[*Client]string),
	}
}

func (h *Hub) Name() string { return "chat-hub" }

// Start marks the hub as accepting connections.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()
	h.log.Info("chat hub started")
	return nil
}

// Stop disconnects every client.
func (h *Hub) Stop(ctx context.Context) error {
	h.mu.Lock()
	h.running = false
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.log.Info("chat hub stopped")
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// register adds a connected client and broadcasts the new user count.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.SetConnectedClients(count)
	h.broadcast(chat.EventServer, chat.ServerNotice{Users: count})
	h.log.WithField("users", count).Info("client connected")
}

// unregister removes a client, clears its mappings and broadcasts the new
// user count.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)

	identity, registered := h.identities[c]
	delete(h.identities, c)
	if registered && h.byCharacter[identity.CharacterID] == c {
		delete(h.byCharacter, identity.CharacterID)
	}
	h.leaveRoomLocked(c)
	count := len(h.clients)
	h.mu.Unlock()

	who := "Unknown"
	if registered {
		who = identity.CharacterName
	}
	metrics.SetConnectedClients(count)
	h.broadcast(chat.EventServer, chat.ServerNotice{Users: count})
	h.log.WithField("who", who).WithField("users", count).Info("client disconnected")
}

// handleFrame dispatches a decoded frame from a client's read pump.
func (h *Hub) handleFrame(c *Client, frame chat.Frame) {
	switch frame.Event {
	case chat.EventRegister:
		var payload chat.RegisterPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			h.sendError(c, "register payload invalid")
			return
		}
		h.handleRegister(c, payload)
	case chat.EventEnterLocal:
		var payload chat.RoomPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		h.handleEnterLocal(c, payload.Room)
	case chat.EventLeaveLocal:
		var payload chat.RoomPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		h.handleLeaveLocal(c, payload.Room)
	case chat.EventGlobal:
		var payload chat.MessagePayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		h.handleGlobal(c, payload.Msg)
	case chat.EventLocal:
		var payload chat.MessagePayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		h.handleLocal(c, payload.Msg)
	case chat.EventPrivate:
		var payload chat.PrivatePayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		h.handlePrivate(c, payload)
	default:
		h.log.WithField("event", frame.Event).Debug("unknown event ignored")
	}
}

func (h *Hub) handleRegister(c *Client, payload chat.RegisterPayload) {
	identity := chat.Identity{
		PlayerID:      trim(payload.PlayerID),
		CharacterID:   trim(payload.CharacterID),
		CharacterName: trim(payload.CharacterName),
	}
	if identity.PlayerID == "" || identity.CharacterID == "" || identity.CharacterName == "" {
		h.sendError(c, "register missing player_id/character_id/character_name")
		h.log.WithField("payload", payload).Warn("register failed")
		return
	}

	h.mu.Lock()
	// A second socket claiming the same character kicks the first.
	var kicked *Client
	if old := h.byCharacter[identity.CharacterID]; old != nil && old != c {
		kicked = old
	}
	h.identities[c] = identity
	h.byCharacter[identity.CharacterID] = c
	h.mu.Unlock()

	if kicked != nil {
		h.log.WithField("character_id", identity.CharacterID).Info("kicking duplicate session")
		kicked.close()
	}

	h.log.WithField("character_name", identity.CharacterName).
		WithField("character_id", identity.CharacterID).
		WithField("player_id", identity.PlayerID).
		Info("registered")
}

func (h *Hub) handleEnterLocal(c *Client, room string) {
	room = trim(room)
	if room == "" {
		return
	}

	h.mu.Lock()
	h.leaveRoomLocked(c)
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
	h.clientRoom[c] = room
	identity := h.identity(c)
	size := len(members)
	h.mu.Unlock()

	h.log.WithField("who", identity.CharacterName).
		WithField("room", room).
		WithField("members", size).
		Info("joined room")
}

func (h *Hub) handleLeaveLocal(c *Client, room string) {
	room = trim(room)

	h.mu.Lock()
	if current, ok := h.clientRoom[c]; ok && current == room {
		h.leaveRoomLocked(c)
	}
	h.mu.Unlock()

	h.log.WithField("room", room).Info("left room")
}

func (h *Hub) handleGlobal(c *Client, msg string) {
	sender := h.Identity(c)
	metrics.RecordChatMessage("global")
	h.broadcast(chat.EventGlobal, chat.Delivery{Identity: sender, Msg: msg})
	h.log.WithField("from", sender.CharacterName).Debug("global message")
}

func (h *Hub) handleLocal(c *Client, msg string) {
	sender := h.Identity(c)

	h.mu.RLock()
	room, inRoom := h.clientRoom[c]
	var targets []*Client
	if inRoom {
		for member := range h.rooms[room] {
			targets = append(targets, member)
		}
	}
	h.mu.RUnlock()

	if !inRoom {
		h.log.WithField("from", sender.CharacterName).Info("local message from client not in a room ignored")
		return
	}

	metrics.RecordChatMessage("local")
	delivery := chat.Delivery{Identity: sender, Msg: msg}
	for _, target := range targets {
		target.enqueue(chat.EventLocal, delivery)
	}
	h.log.WithField("from", sender.CharacterName).WithField("room", room).Debug("local message")
}

func (h *Hub) handlePrivate(c *Client, payload chat.PrivatePayload) {
	sender := h.Identity(c)
	to := trim(payload.ToCharacterID)

	h.mu.RLock()
	receiver := h.byCharacter[to]
	h.mu.RUnlock()

	delivery := chat.Delivery{
		Identity:      sender,
		ToCharacterID: to,
		Msg:           payload.Msg,
	}

	if receiver == nil {
		delivery.Error = "recipient_not_online"
		c.enqueue(chat.EventPrivate, delivery)
		h.log.WithField("to_character_id", to).Info("private message failed: recipient not online")
		return
	}

	metrics.RecordChatMessage("private")
	receiver.enqueue(chat.EventPrivate, delivery)
	h.log.WithField("from", sender.CharacterName).
		WithField("to_character_id", to).
		Debug("private message")
}

// Identity returns the registered identity of a client, or the unknown
// identity for unregistered connections.
func (h *Hub) Identity(c *Client) chat.Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.identity(c)
}

func (h *Hub) identity(c *Client) chat.Identity {
	if identity, ok := h.identities[c]; ok {
		return identity
	}
	return chat.Unknown
}

// broadcast fans an event out to every connected client.
func (h *Hub) broadcast(event string, data interface{}) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(event, data)
	}
}

// sendError pushes a server event with an error to a single socket.
func (h *Hub) sendError(c *Client, msg string) {
	c.enqueue(chat.EventServer, chat.ServerNotice{Error: msg})
}

// leaveRoomLocked removes c from its current room. Caller holds h.mu.
func (h *Hub) leaveRoomLocked(c *Client) {
	room, ok := h.clientRoom[c]
	if !ok {
		return
	}
	delete(h.clientRoom, c)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func trim(s string) string { return strings.TrimSpace(s) }
