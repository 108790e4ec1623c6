// Package profiles implements player identity and character management.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/potential-games/mmo-services/internal/app/domain/character"
	"github.com/potential-games/mmo-services/internal/app/domain/player"
	"github.com/potential-games/mmo-services/internal/app/storage"
	"github.com/potential-games/mmo-services/pkg/logger"
)

// ErrInvalidInput marks request validation failures, as opposed to storage
// errors.
var ErrInvalidInput = errors.New("invalid input")

// Service manages players and their characters.
type Service struct {
	players    storage.PlayerStore
	characters storage.CharacterStore
	log        *logger.Logger
}

// New constructs a profiles service.
func New(players storage.PlayerStore, characters storage.CharacterStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("profiles")
	}
	return &Service{
		players:    players,
		characters: characters,
		log:        log,
	}
}

// Login upserts a player keyed by provider identity and returns it.
func (s *Service) Login(ctx context.Context, provider, providerID string) (player.Player, error) {
	provider = strings.TrimSpace(provider)
	providerID = strings.TrimSpace(providerID)

	if provider == "" || providerID == "" {
		return player.Player{}, fmt.Errorf("%w: provider and provider_id are required", ErrInvalidInput)
	}

	p, err := s.players.UpsertPlayer(ctx, provider, providerID)
	if err != nil {
		return player.Player{}, err
	}
	s.log.WithField("player_id", p.ID).
		WithField("provider", provider).
		Info("player login")
	return p, nil
}

// CreateCharacter validates and stores a new character for a player.
func (s *Service) CreateCharacter(ctx context.Context, playerID, name, customizationID string) (character.Character, error) {
	name = strings.TrimSpace(name)
	customizationID = strings.TrimSpace(customizationID)

	if name == "" {
		return character.Character{}, fmt.Errorf("%w: character name is empty", ErrInvalidInput)
	}
	// Limits count code points, not bytes; multibyte names are fine.
	if utf8.RuneCountInString(name) > character.MaxNameLength {
		return character.Character{}, fmt.Errorf("%w: character name too long (max %d)", ErrInvalidInput, character.MaxNameLength)
	}
	if customizationID == "" {
		return character.Character{}, fmt.Errorf("%w: customization_id is empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(customizationID) > character.MaxCustomizationIDLength {
		return character.Character{}, fmt.Errorf("%w: customization_id too long (max %d)", ErrInvalidInput, character.MaxCustomizationIDLength)
	}

	if _, err := s.players.GetPlayer(ctx, playerID); err != nil {
		return character.Character{}, fmt.Errorf("player lookup: %w", err)
	}

	ch, err := s.characters.CreateCharacter(ctx, character.Character{
		PlayerID:        playerID,
		Name:            name,
		CustomizationID: customizationID,
	})
	if err != nil {
		return character.Character{}, err
	}

	s.log.WithField("character_id", ch.ID).
		WithField("player_id", playerID).
		Info("character created")
	return ch, nil
}

// ListCharacters returns a player's characters ordered by creation time.
func (s *Service) ListCharacters(ctx context.Context, playerID string) ([]character.Character, error) {
	return s.characters.ListCharacters(ctx, playerID)
}

// DeleteCharacter removes a character if it belongs to the player.
func (s *Service) DeleteCharacter(ctx context.Context, characterID, playerID string) error {
	if err := s.characters.DeleteCharacter(ctx, characterID, playerID); err != nil {
		return err
	}
	s.log.WithField("character_id", characterID).
		WithField("player_id", playerID).
		Info("character deleted")
	return nil
}

// UpdateCustomization replaces a character's customization if it belongs to
// the player.
func (s *Service) UpdateCustomization(ctx context.Context, characterID, playerID, customizationID string) (character.Character, error) {
	customizationID = strings.TrimSpace(customizationID)
	if customizationID == "" {
		return character.Character{}, fmt.Errorf("%w: customization_id is empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(customizationID) > character.MaxCustomizationIDLength {
		return character.Character{}, fmt.Errorf("%w: customization_id too long (max %d)", ErrInvalidInput, character.MaxCustomizationIDLength)
	}

	ch, err := s.characters.UpdateCustomization(ctx, characterID, playerID, customizationID)
	if err != nil {
		return character.Character{}, err
	}
	s.log.WithField("character_id", ch.ID).
		WithField("player_id", playerID).
		Info("character customization updated")
	return ch, nil
}
