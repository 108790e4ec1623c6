package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/potential-games/mmo-services/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromPath("no-such-config.yaml")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestNewRejectsUnknownRole(t *testing.T) {
	if _, err := New("postmaster", Stores{}, testConfig(t), nil); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestProfilesRoleServesHealth(t *testing.T) {
	a, err := New(RoleProfiles, Stores{}, testConfig(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProfilesRoleWithSecretEnablesSteamAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AllowUnverified = true

	a, err := New(RoleProfiles, Stores{}, cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.Auth == nil {
		t.Fatal("expected auth service to be wired")
	}
}

func TestChatRoleLifecycle(t *testing.T) {
	a, err := New(RoleChat, Stores{}, testConfig(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.Chat == nil {
		t.Fatal("expected chat hub to be wired")
	}

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestChatRoleRequireAuthGatesUpgrade(t *testing.T) {
	cfg := testConfig(t)
	cfg.Chat.RequireAuth = true
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AllowUnverified = true

	a, err := New(RoleChat, Stores{}, cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health to bypass auth, got %d", rec.Code)
	}

	token, err := a.Auth.IssueToken("player-1", "char-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	// The token passes the gate; the upgrade itself fails on a plain
	// recorder, which is fine here.
	if rec.Code == http.StatusUnauthorized {
		t.Fatal("expected valid token to pass the gate")
	}
}

func TestMasterRoleServesHealthAndMetrics(t *testing.T) {
	a, err := New(RoleMaster, Stores{}, testConfig(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
