package master

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/potential-games/mmo-services/internal/app/domain/gameserver"
)

// Wire events spoken by dedicated servers and lobby clients.
const (
	EventRegisterServer = "register_server"
	EventUpdateServer   = "update_server"
	EventGetServers     = "get_servers"
	EventServerList     = "server_list"
)

const sessionWriteWait = 10 * time.Second

// Frame is the envelope for master websocket messages.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RegisterPayload is the data of a register_server event.
type RegisterPayload struct {
	ServerName     string `json:"server_name"`
	DisplayName    string `json:"display_name"`
	IP             string `json:"ip"`
	Port           int    `json:"port"`
	MapName        string `json:"mapname"`
	CurrentPlayers int    `json:"current_players"`
	MaxPlayers     int    `json:"max_players"`
}

// UpdatePayload is the data of an update_server event.
type UpdatePayload struct {
	ServerID       string `json:"server_id"`
	CurrentPlayers int    `json:"current_players"`
}

// ListPayload is the data of a server_list reply.
type ListPayload struct {
	Servers []gameserver.Entry `json:"servers"`
}

// Session is one websocket connection from a dedicated server or a client
// browsing the directory.
type Session struct {
	id        SessionID
	directory *Directory
	conn      *websocket.Conn

	writeMu sync.Mutex
}

// NewSession wraps an accepted connection.
func NewSession(directory *Directory, conn *websocket.Conn) *Session {
	return &Session{
		id:        SessionID(uuid.NewString()),
		directory: directory,
		conn:      conn,
	}
}

// Serve reads frames until the connection closes, then drops the session's
// directory entries.
func (s *Session) Serve() {
	defer func() {
		s.directory.DropSession(s.id)
		_ = s.conn.Close()
	}()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}
		s.handle(frame)
	}
}

func (s *Session) handle(frame Frame) {
	switch frame.Event {
	case EventRegisterServer:
		var payload RegisterPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.ServerName == "" {
			return
		}
		s.directory.Register(s.id, gameserver.Entry{
			ServerName:     payload.ServerName,
			DisplayName:    payload.DisplayName,
			IP:             payload.IP,
			Port:           payload.Port,
			Level:          payload.MapName,
			CurrentPlayers: payload.CurrentPlayers,
			MaxPlayers:     payload.MaxPlayers,
		})
	case EventUpdateServer:
		var payload UpdatePayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		s.directory.Update(payload.ServerID, payload.CurrentPlayers)
	case EventGetServers:
		s.reply(EventServerList, ListPayload{Servers: s.directory.List()})
	}
}

func (s *Session) reply(event string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
	_ = s.conn.WriteJSON(Frame{Event: event, Data: raw})
}
