// Package memory implements the storage interfaces in process memory. It is
// safe for concurrent use and is primarily intended for tests and local
// development.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/potential-games/mmo-services/internal/app/domain/character"
	"github.com/potential-games/mmo-services/internal/app/domain/player"
	"github.com/potential-games/mmo-services/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces.
type Store struct {
	mu         sync.RWMutex
	players    map[string]player.Player
	byProvider map[string]string // provider+"\x00"+providerID -> player ID
	characters map[string]character.Character
}

var _ storage.PlayerStore = (*Store)(nil)
var _ storage.CharacterStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		players:    make(map[string]player.Player),
		byProvider: make(map[string]string),
		characters: make(map[string]character.Character),
	}
}

func providerKey(provider, providerID string) string {
	return provider + "\x00" + providerID
}

// PlayerStore implementation ---------------------------------------------------

func (s *Store) UpsertPlayer(_ context.Context, provider, providerID string) (player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if id, ok := s.byProvider[providerKey(provider, providerID)]; ok {
		p := s.players[id]
		p.UpdatedAt = now
		s.players[id] = p
		return p, nil
	}

	p := player.Player{
		ID:         uuid.NewString(),
		Provider:   provider,
		ProviderID: providerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.players[p.ID] = p
	s.byProvider[providerKey(provider, providerID)] = p.ID
	return p, nil
}

func (s *Store) GetPlayer(_ context.Context, id string) (player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return player.Player{}, sql.ErrNoRows
	}
	return p, nil
}

// CharacterStore implementation ------------------------------------------------

func (s *Store) CreateCharacter(_ context.Context, ch character.Character) (character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.characters {
		if existing.PlayerID == ch.PlayerID && existing.Name == ch.Name {
			return character.Character{}, storage.ErrConflict
		}
	}

	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	ch.CreatedAt = now
	ch.UpdatedAt = now
	s.characters[ch.ID] = ch
	return ch, nil
}

func (s *Store) UpsertCharacter(_ context.Context, playerID, name string) (character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for id, existing := range s.characters {
		if existing.PlayerID == playerID && existing.Name == name {
			existing.UpdatedAt = now
			s.characters[id] = existing
			return existing, nil
		}
	}

	ch := character.Character{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.characters[ch.ID] = ch
	return ch, nil
}

func (s *Store) ListCharacters(_ context.Context, playerID string) ([]character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []character.Character
	for _, ch := range s.characters {
		if ch.PlayerID == playerID {
			result = append(result, ch)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) DeleteCharacter(_ context.Context, id, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.characters[id]
	if !ok || ch.PlayerID != playerID {
		return sql.ErrNoRows
	}
	delete(s.characters, id)
	return nil
}

func (s *Store) UpdateCustomization(_ context.Context, id, playerID, customizationID string) (character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.characters[id]
	if !ok || ch.PlayerID != playerID {
		return character.Character{}, sql.ErrNoRows
	}
	ch.CustomizationID = customizationID
	ch.UpdatedAt = time.Now().UTC()
	s.characters[id] = ch
	return ch, nil
}
