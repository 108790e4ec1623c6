package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/potential-games/mmo-services/internal/app/storage/memory"
)

func newTestService(t *testing.T, verifier TicketVerifier) *Service {
	t.Helper()
	store := memory.New()
	svc, err := New(store, store, verifier, "test-secret", "", 0, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewRequiresSecretAndVerifier(t *testing.T) {
	store := memory.New()

	if _, err := New(store, store, AllowAllVerifier(), "", "", 0, nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := New(store, store, nil, "secret", "", 0, nil); err == nil {
		t.Fatal("expected error for nil verifier")
	}
}

func TestIssueAndParseToken(t *testing.T) {
	svc := newTestService(t, AllowAllVerifier())

	token, err := svc.IssueToken("player-1", "char-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "player-1" {
		t.Fatalf("expected subject player-1, got %q", claims.Subject)
	}
	if claims.CharacterID != "char-1" {
		t.Fatalf("expected cid char-1, got %q", claims.CharacterID)
	}
	if claims.Issuer != "potential" {
		t.Fatalf("expected default issuer, got %q", claims.Issuer)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t, AllowAllVerifier())

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.ParseToken(token); err == nil {
			t.Errorf("expected error for token %q", token)
		}
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	store := memory.New()
	issuing, err := New(store, store, AllowAllVerifier(), "secret-a", "", 0, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	parsing, err := New(store, store, AllowAllVerifier(), "secret-b", "", 0, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	token, err := issuing.IssueToken("player-1", "char-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := parsing.ParseToken(token); err == nil {
		t.Fatal("expected signature validation failure")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	store := memory.New()
	svc, err := New(store, store, AllowAllVerifier(), "test-secret", "", time.Nanosecond, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// ttl <= 0 falls back to the default, so use one nanosecond and wait.
	token, err := svc.IssueToken("player-1", "char-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := svc.ParseToken(token); err == nil {
		t.Fatal("expected expiry failure")
	}
}

func TestAuthenticateSteam(t *testing.T) {
	svc := newTestService(t, AllowAllVerifier())
	ctx := context.Background()

	session, err := svc.AuthenticateSteam(ctx, "76561198000000001", "ticket-bytes", "Knight")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session.Token == "" || session.PlayerID == "" || session.CharacterID == "" {
		t.Fatalf("incomplete session: %+v", session)
	}
	if session.CharacterName != "Knight" {
		t.Fatalf("expected character name Knight, got %q", session.CharacterName)
	}

	claims, err := svc.ParseToken(session.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != session.PlayerID || claims.CharacterID != session.CharacterID {
		t.Fatalf("claims do not match session: %+v vs %+v", claims, session)
	}

	// A second login with the same identity reuses the player and character.
	again, err := svc.AuthenticateSteam(ctx, "76561198000000001", "ticket-bytes", "Knight")
	if err != nil {
		t.Fatalf("second authenticate: %v", err)
	}
	if again.PlayerID != session.PlayerID || again.CharacterID != session.CharacterID {
		t.Fatalf("expected stable ids, got %+v vs %+v", again, session)
	}
}

func TestAuthenticateSteamValidation(t *testing.T) {
	svc := newTestService(t, AllowAllVerifier())
	ctx := context.Background()

	if _, err := svc.AuthenticateSteam(ctx, "", "ticket", "Knight"); err == nil {
		t.Fatal("expected error for empty steam id")
	}
	if _, err := svc.AuthenticateSteam(ctx, "765", "", "Knight"); err == nil {
		t.Fatal("expected error for empty ticket")
	}
	if _, err := svc.AuthenticateSteam(ctx, "765", "ticket", "  "); err == nil {
		t.Fatal("expected error for blank character name")
	}
}

func TestAuthenticateSteamRejectedTicket(t *testing.T) {
	rejecting := VerifierFunc(func(context.Context, string, string) error {
		return fmt.Errorf("ticket expired")
	})
	svc := newTestService(t, rejecting)

	_, err := svc.AuthenticateSteam(context.Background(), "765", "stale", "Knight")
	if err == nil || !strings.Contains(err.Error(), "steam ticket invalid") {
		t.Fatalf("expected ticket rejection, got %v", err)
	}
}
