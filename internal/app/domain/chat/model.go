// Package chat defines the wire events and identity types shared by the chat
// hub and its websocket clients.
package chat

import "encoding/json"

// Event names on the websocket wire. Client-to-server and server-to-client
// directions reuse the same names, mirroring the dedicated server protocol.
const (
	EventRegister   = "register"
	EventEnterLocal = "enter_local"
	EventLeaveLocal = "leave_local"
	EventGlobal     = "globalmsg"
	EventLocal      = "localmsg"
	EventPrivate    = "privatemsg"
	EventServer     = "server"
)

// Frame is the envelope for every websocket message.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Identity is the registered sender attached to a connection.
type Identity struct {
	PlayerID      string `json:"player_id"`
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
}

// Unknown is the identity of a connection that has not registered.
var Unknown = Identity{CharacterName: "Unknown"}

// RegisterPayload is the data of a register event.
type RegisterPayload struct {
	PlayerID      string `json:"player_id"`
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
}

// RoomPayload is the data of enter_local and leave_local events.
type RoomPayload struct {
	Room string `json:"room"`
}

// MessagePayload is the data of global and local chat events.
type MessagePayload struct {
	Msg string `json:"msg"`
}

// PrivatePayload is the data of a privatemsg event.
type PrivatePayload struct {
	ToCharacterID string `json:"to_character_id"`
	Msg           string `json:"msg"`
}

// Delivery is a chat message as pushed to receivers. Error is set only on
// failed private deliveries echoed back to the sender.
type Delivery struct {
	Identity
	ToCharacterID string `json:"to_character_id,omitempty"`
	Msg           string `json:"msg"`
	Error         string `json:"error,omitempty"`
}

// ServerNotice carries presence counts and per-socket errors on the server
// event.
type ServerNotice struct {
	Users int    `json:"users,omitempty"`
	Error string `json:"error,omitempty"`
}
