// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/potential-games/mmo-services/internal/app/domain/character"
	"github.com/potential-games/mmo-services/internal/app/domain/player"
	"github.com/potential-games/mmo-services/internal/app/storage"
)

// Store implements the storage interfaces over a database handle.
type Store struct {
	db *sql.DB
}

var _ storage.PlayerStore = (*Store)(nil)
var _ storage.CharacterStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// --- PlayerStore ------------------------------------------------------------

func (s *Store) UpsertPlayer(ctx context.Context, provider, providerID string) (player.Player, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO players (id, provider, provider_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (provider, provider_id)
		DO UPDATE SET updated_at = now()
		RETURNING id, provider, provider_id, created_at, updated_at
	`, uuid.NewString(), provider, providerID)

	var p player.Player
	if err := row.Scan(&p.ID, &p.Provider, &p.ProviderID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return player.Player{}, err
	}
	return p, nil
}

func (s *Store) GetPlayer(ctx context.Context, id string) (player.Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_id, created_at, updated_at
		FROM players
		WHERE id = $1
	`, id)

	var p player.Player
	if err := row.Scan(&p.ID, &p.Provider, &p.ProviderID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return player.Player{}, err
	}
	return p, nil
}

// --- CharacterStore ---------------------------------------------------------

func (s *Store) CreateCharacter(ctx context.Context, ch character.Character) (character.Character, error) {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	ch.CreatedAt = now
	ch.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO characters (id, player_id, character_name, customization_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ch.ID, ch.PlayerID, ch.Name, ch.CustomizationID, ch.CreatedAt, ch.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return character.Character{}, storage.ErrConflict
		}
		return character.Character{}, err
	}
	return ch, nil
}

func (s *Store) UpsertCharacter(ctx context.Context, playerID, name string) (character.Character, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO characters (id, player_id, character_name, customization_id, created_at, updated_at)
		VALUES ($1, $2, $3, '', now(), now())
		ON CONFLICT (player_id, character_name)
		DO UPDATE SET updated_at = now()
		RETURNING id, player_id, character_name, customization_id, created_at, updated_at
	`, uuid.NewString(), playerID, name)

	var ch character.Character
	if err := row.Scan(&ch.ID, &ch.PlayerID, &ch.Name, &ch.CustomizationID, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
		return character.Character{}, err
	}
	return ch, nil
}

func (s *Store) ListCharacters(ctx context.Context, playerID string) ([]character.Character, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_id, character_name, customization_id, created_at, updated_at
		FROM characters
		WHERE player_id = $1
		ORDER BY created_at ASC
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []character.Character
	for rows.Next() {
		var ch character.Character
		if err := rows.Scan(&ch.ID, &ch.PlayerID, &ch.Name, &ch.CustomizationID, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, ch)
	}
	return result, rows.Err()
}

func (s *Store) DeleteCharacter(ctx context.Context, id, playerID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM characters
		WHERE id = $1 AND player_id = $2
	`, id, playerID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) UpdateCustomization(ctx context.Context, id, playerID, customizationID string) (character.Character, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE characters
		SET customization_id = $3, updated_at = now()
		WHERE id = $1 AND player_id = $2
		RETURNING id, player_id, character_name, customization_id, created_at, updated_at
	`, id, playerID, customizationID)

	var ch character.Character
	if err := row.Scan(&ch.ID, &ch.PlayerID, &ch.Name, &ch.CustomizationID, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
		return character.Character{}, err
	}
	return ch, nil
}
