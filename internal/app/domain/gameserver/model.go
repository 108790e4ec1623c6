package gameserver

import "time"

// Entry is a dedicated game server registered with the master directory.
type Entry struct {
	ServerName     string    `json:"server_name"`
	DisplayName    string    `json:"display_name"`
	IP             string    `json:"ip"`
	Port           int       `json:"port"`
	Level          string    `json:"level"`
	CurrentPlayers int       `json:"current_players"`
	MaxPlayers     int       `json:"max_players"`
	UpdatedAt      time.Time `json:"-"`
}
