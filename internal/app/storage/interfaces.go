// Package storage declares the persistence interfaces for profile data.
// Implementations live in the memory and postgres subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/potential-games/mmo-services/internal/app/domain/character"
	"github.com/potential-games/mmo-services/internal/app/domain/player"
)

// ErrConflict is returned when a uniqueness constraint is violated, e.g. a
// character name already used by the same player.
var ErrConflict = errors.New("storage: conflict")

// PlayerStore persists player records keyed by provider identity.
type PlayerStore interface {
	// UpsertPlayer inserts a player for (provider, providerID) or touches the
	// existing row, returning it either way.
	UpsertPlayer(ctx context.Context, provider, providerID string) (player.Player, error)
	GetPlayer(ctx context.Context, id string) (player.Player, error)
}

// CharacterStore persists character records.
type CharacterStore interface {
	CreateCharacter(ctx context.Context, ch character.Character) (character.Character, error)
	// UpsertCharacter inserts by (playerID, name) or touches the existing row.
	UpsertCharacter(ctx context.Context, playerID, name string) (character.Character, error)
	// ListCharacters returns a player's characters ordered by creation time.
	ListCharacters(ctx context.Context, playerID string) ([]character.Character, error)
	// DeleteCharacter removes a character only if it belongs to playerID.
	DeleteCharacter(ctx context.Context, id, playerID string) error
	// UpdateCustomization sets the customization only if the character
	// belongs to playerID.
	UpdateCustomization(ctx context.Context, id, playerID, customizationID string) (character.Character, error)
}
