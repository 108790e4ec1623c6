package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/potential-games/mmo-services/internal/app/domain/character"
	"github.com/potential-games/mmo-services/internal/app/domain/player"
	"github.com/potential-games/mmo-services/internal/app/services/profiles"
	"github.com/potential-games/mmo-services/internal/app/storage/memory"
)

// brokenStore fails every operation, standing in for a database outage.
type brokenStore struct{}

var errStoreDown = errors.New("connection refused")

func (brokenStore) UpsertPlayer(context.Context, string, string) (player.Player, error) {
	return player.Player{}, errStoreDown
}

func (brokenStore) GetPlayer(context.Context, string) (player.Player, error) {
	return player.Player{}, errStoreDown
}

func (brokenStore) CreateCharacter(context.Context, character.Character) (character.Character, error) {
	return character.Character{}, errStoreDown
}

func (brokenStore) UpsertCharacter(context.Context, string, string) (character.Character, error) {
	return character.Character{}, errStoreDown
}

func (brokenStore) ListCharacters(context.Context, string) ([]character.Character, error) {
	return nil, errStoreDown
}

func (brokenStore) DeleteCharacter(context.Context, string, string) error {
	return errStoreDown
}

func (brokenStore) UpdateCustomization(context.Context, string, string, string) (character.Character, error) {
	return character.Character{}, errStoreDown
}

func newProfilesServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()
	svc := profiles.New(store, store, nil)
	srv := httptest.NewServer(NewProfilesHandler(svc, nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func loginPlayer(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/auth/login", map[string]string{
		"provider":    "steam",
		"provider_id": "76561198000000001",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["player_id"] == "" {
		t.Fatal("expected a player_id")
	}
	return body["player_id"]
}

func createCharacter(t *testing.T, srv *httptest.Server, playerID, name string) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/characters", map[string]string{
		"player_id":        playerID,
		"character_name":   name,
		"customization_id": "cust-1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create character status %d", resp.StatusCode)
	}
	var body struct {
		ID string `json:"character_id"`
	}
	decodeBody(t, resp, &body)
	if body.ID == "" {
		t.Fatal("expected a character_id")
	}
	return body.ID
}

func TestHealth(t *testing.T) {
	srv := newProfilesServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	var body map[string]bool
	decodeBody(t, resp, &body)
	if !body["ok"] {
		t.Fatalf("expected ok:true, got %v", body)
	}
}

func TestLoginAndCharacterLifecycle(t *testing.T) {
	srv := newProfilesServer(t)

	playerID := loginPlayer(t, srv)
	charID := createCharacter(t, srv, playerID, "Knight")

	// List.
	resp, err := http.Get(fmt.Sprintf("%s/characters?player_id=%s", srv.URL, playerID))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var listing struct {
		PlayerID   string `json:"player_id"`
		Characters []struct {
			ID   string `json:"character_id"`
			Name string `json:"character_name"`
		} `json:"characters"`
	}
	decodeBody(t, resp, &listing)
	if len(listing.Characters) != 1 || listing.Characters[0].Name != "Knight" {
		t.Fatalf("unexpected listing: %+v", listing)
	}

	// Customize.
	req, err := http.NewRequest(http.MethodPut,
		fmt.Sprintf("%s/characters/%s/customization", srv.URL, charID),
		bytes.NewReader([]byte(fmt.Sprintf(`{"player_id":%q,"customization_id":"cust-2"}`, playerID))))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	putResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	defer putResp.Body.Close()
	if putResp.StatusCode != http.StatusOK {
		t.Fatalf("customization status %d", putResp.StatusCode)
	}

	// Delete.
	delReq, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/characters/%s?player_id=%s", srv.URL, charID, playerID), nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	delResp, err := http.DefaultClient.Do(delReq)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d", delResp.StatusCode)
	}
}

func TestCreateCharacterConflictStatus(t *testing.T) {
	srv := newProfilesServer(t)
	playerID := loginPlayer(t, srv)
	createCharacter(t, srv, playerID, "Knight")

	resp := postJSON(t, srv.URL+"/characters", map[string]string{
		"player_id":        playerID,
		"character_name":   "Knight",
		"customization_id": "cust-1",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCreateCharacterUnknownPlayerStatus(t *testing.T) {
	srv := newProfilesServer(t)

	resp := postJSON(t, srv.URL+"/characters", map[string]string{
		"player_id":        "no-such-player",
		"character_name":   "Knight",
		"customization_id": "cust-1",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteForeignCharacterStatus(t *testing.T) {
	srv := newProfilesServer(t)
	owner := loginPlayer(t, srv)
	charID := createCharacter(t, srv, owner, "Knight")

	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/characters/%s?player_id=%s", srv.URL, charID, "someone-else"), nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRejectsUnknownFields(t *testing.T) {
	srv := newProfilesServer(t)

	resp := postJSON(t, srv.URL+"/auth/login", map[string]string{
		"provider":    "steam",
		"provider_id": "765",
		"surprise":    "field",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLoginStatusDistinguishesStorageFailures(t *testing.T) {
	store := brokenStore{}
	svc := profiles.New(store, store, nil)
	srv := httptest.NewServer(NewProfilesHandler(svc, nil))
	t.Cleanup(srv.Close)

	// A store failure is the server's fault.
	resp := postJSON(t, srv.URL+"/auth/login", map[string]string{
		"provider":    "steam",
		"provider_id": "765",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for store failure, got %d", resp.StatusCode)
	}

	// A bad request never reaches the store and stays a client error.
	resp = postJSON(t, srv.URL+"/auth/login", map[string]string{
		"provider":    "",
		"provider_id": "765",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing provider, got %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/characters", map[string]string{
		"player_id":        "p1",
		"character_name":   "Knight",
		"customization_id": "cust-1",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for store failure on create, got %d", resp.StatusCode)
	}
}

func TestSteamEndpointWithoutAuthService(t *testing.T) {
	srv := newProfilesServer(t)

	resp := postJSON(t, srv.URL+"/auth/steam", map[string]string{
		"steam_id":       "765",
		"ticket":         "ticket",
		"character_name": "Knight",
	})
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", resp.StatusCode)
	}
}

func TestListRequiresPlayerID(t *testing.T) {
	srv := newProfilesServer(t)

	resp, err := http.Get(srv.URL + "/characters")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
