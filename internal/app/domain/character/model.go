package character

import "time"

// Limits enforced on character creation and customization updates, counted
// in Unicode code points.
const (
	MaxNameLength            = 24
	MaxCustomizationIDLength = 64
)

// Character belongs to a player. Names are unique per player, not globally.
type Character struct {
	ID              string    `json:"character_id"`
	PlayerID        string    `json:"player_id"`
	Name            string    `json:"character_name"`
	CustomizationID string    `json:"customization_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
