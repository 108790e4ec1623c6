package player

import "time"

// Player is an account identified by an external auth provider. The same
// provider identity always resolves to the same player row.
type Player struct {
	ID         string    `json:"player_id"`
	Provider   string    `json:"provider"`
	ProviderID string    `json:"provider_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
