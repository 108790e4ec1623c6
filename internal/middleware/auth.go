// Package middleware provides HTTP middleware shared by the services.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	authsvc "github.com/potential-games/mmo-services/internal/app/services/auth"
	"github.com/potential-games/mmo-services/pkg/logger"
)

type contextKey string

const (
	playerIDKey    contextKey = "player_id"
	characterIDKey contextKey = "character_id"
)

// TokenParser validates a session token and returns its claims.
type TokenParser interface {
	ParseToken(tokenString string) (*authsvc.Claims, error)
}

// AuthMiddleware gates requests on a valid Bearer session token.
type AuthMiddleware struct {
	parser    TokenParser
	logger    *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates an authentication middleware. Paths in skipPaths
// bypass the check (health, metrics).
func NewAuthMiddleware(parser TokenParser, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth-middleware")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{parser: parser, logger: log, skipPaths: skip}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := BearerToken(r)
		if token == "" {
			m.unauthorized(w, r, "missing bearer token")
			return
		}

		claims, err := m.parser.ParseToken(token)
		if err != nil {
			m.logger.WithError(err).Warn("token validation failed")
			m.unauthorized(w, r, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), playerIDKey, claims.Subject)
		ctx = context.WithValue(ctx, characterIDKey, claims.CharacterID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})

	m.logger.WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
	}).Warn("authentication failed")
}

// BearerToken extracts a Bearer token from the Authorization header, falling
// back to the token query parameter for websocket upgrades.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// PlayerID extracts the authenticated player id from the context.
func PlayerID(ctx context.Context) string {
	id, _ := ctx.Value(playerIDKey).(string)
	return id
}

// CharacterID extracts the authenticated character id from the context.
func CharacterID(ctx context.Context) string {
	id, _ := ctx.Value(characterIDKey).(string)
	return id
}
