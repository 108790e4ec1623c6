// Package auth issues session tokens for Steam-authenticated players.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/potential-games/mmo-services/internal/app/storage"
	"github.com/potential-games/mmo-services/pkg/logger"
)

// SteamProvider is the provider value stored for Steam-authenticated players.
const SteamProvider = "steam"

// Claims are the JWT claims carried by a session token. The subject is the
// player id and cid the active character id.
type Claims struct {
	CharacterID string `json:"cid"`
	jwt.RegisteredClaims
}

// Session is the result of a successful Steam authentication.
type Session struct {
	Token         string `json:"token"`
	PlayerID      string `json:"player_id"`
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
}

// Service verifies Steam tickets, upserts the player and character, and
// issues signed session tokens.
type Service struct {
	players    storage.PlayerStore
	characters storage.CharacterStore
	verifier   TicketVerifier
	secret     []byte
	issuer     string
	ttl        time.Duration
	log        *logger.Logger
}

// New constructs an auth service.
func New(players storage.PlayerStore, characters storage.CharacterStore, verifier TicketVerifier, secret, issuer string, ttl time.Duration, log *logger.Logger) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("ticket verifier is required")
	}
	if issuer == "" {
		issuer = "potential"
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{
		players:    players,
		characters: characters,
		verifier:   verifier,
		secret:     []byte(secret),
		issuer:     issuer,
		ttl:        ttl,
		log:        log,
	}, nil
}

// AuthenticateSteam validates the ticket, upserts the player and the named
// character, and returns a session token.
func (s *Service) AuthenticateSteam(ctx context.Context, steamID, ticket, characterName string) (Session, error) {
	steamID = strings.TrimSpace(steamID)
	characterName = strings.TrimSpace(characterName)

	if steamID == "" || ticket == "" {
		return Session{}, fmt.Errorf("steam_id and ticket are required")
	}
	if characterName == "" {
		return Session{}, fmt.Errorf("character_name is required")
	}

	if err := s.verifier.Verify(ctx, steamID, ticket); err != nil {
		return Session{}, fmt.Errorf("steam ticket invalid: %w", err)
	}

	p, err := s.players.UpsertPlayer(ctx, SteamProvider, steamID)
	if err != nil {
		return Session{}, fmt.Errorf("upsert player: %w", err)
	}

	ch, err := s.characters.UpsertCharacter(ctx, p.ID, characterName)
	if err != nil {
		return Session{}, fmt.Errorf("upsert character: %w", err)
	}

	token, err := s.IssueToken(p.ID, ch.ID)
	if err != nil {
		return Session{}, err
	}

	s.log.WithField("player_id", p.ID).
		WithField("character_id", ch.ID).
		Info("steam session issued")

	return Session{
		Token:         token,
		PlayerID:      p.ID,
		CharacterID:   ch.ID,
		CharacterName: ch.Name,
	}, nil
}

// IssueToken signs an HS256 session token for a player and character.
func (s *Service) IssueToken(playerID, characterID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		CharacterID: characterID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
