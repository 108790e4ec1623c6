package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/potential-games/mmo-services/internal/app/domain/character"
	authsvc "github.com/potential-games/mmo-services/internal/app/services/auth"
	"github.com/potential-games/mmo-services/internal/app/services/profiles"
	"github.com/potential-games/mmo-services/internal/app/storage"
)

// profilesHandler bundles the REST endpoints of the profiles service.
type profilesHandler struct {
	profiles *profiles.Service
	auth     *authsvc.Service
}

// NewProfilesHandler returns the profiles REST API router. The auth service
// is optional; without it /auth/steam responds 501.
func NewProfilesHandler(profilesSvc *profiles.Service, authSvc *authsvc.Service) http.Handler {
	h := &profilesHandler{profiles: profilesSvc, auth: authSvc}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/steam", h.steam).Methods(http.MethodPost)
	r.HandleFunc("/characters", h.createCharacter).Methods(http.MethodPost)
	r.HandleFunc("/characters", h.listCharacters).Methods(http.MethodGet)
	r.HandleFunc("/characters/{id}", h.deleteCharacter).Methods(http.MethodDelete)
	r.HandleFunc("/characters/{id}/customization", h.updateCustomization).Methods(http.MethodPut)
	return r
}

func (h *profilesHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *profilesHandler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Provider   string `json:"provider"`
		ProviderID string `json:"provider_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.profiles.Login(r.Context(), payload.Provider, payload.ProviderID)
	if err != nil {
		if errors.Is(err, profiles.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"player_id": p.ID})
}

func (h *profilesHandler) steam(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeError(w, http.StatusNotImplemented, errors.New("steam auth not configured"))
		return
	}

	var payload struct {
		SteamID       string `json:"steam_id"`
		Ticket        string `json:"ticket"`
		CharacterName string `json:"character_name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	session, err := h.auth.AuthenticateSteam(r.Context(), payload.SteamID, payload.Ticket, payload.CharacterName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *profilesHandler) createCharacter(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PlayerID        string `json:"player_id"`
		CharacterName   string `json:"character_name"`
		CustomizationID string `json:"customization_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ch, err := h.profiles.CreateCharacter(r.Context(), payload.PlayerID, payload.CharacterName, payload.CustomizationID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			writeError(w, http.StatusConflict, errors.New("character name already used by this player"))
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, errors.New("player not found"))
		case errors.Is(err, profiles.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (h *profilesHandler) listCharacters(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, errors.New("player_id is required"))
		return
	}

	chars, err := h.profiles.ListCharacters(r.Context(), playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if chars == nil {
		chars = []character.Character{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"player_id":  playerID,
		"characters": chars,
	})
}

func (h *profilesHandler) deleteCharacter(w http.ResponseWriter, r *http.Request) {
	characterID := mux.Vars(r)["id"]
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, errors.New("player_id is required"))
		return
	}

	if err := h.profiles.DeleteCharacter(r.Context(), characterID, playerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, errors.New("character not found for this player"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "character_id": characterID})
}

func (h *profilesHandler) updateCustomization(w http.ResponseWriter, r *http.Request) {
	characterID := mux.Vars(r)["id"]

	var payload struct {
		PlayerID        string `json:"player_id"`
		CustomizationID string `json:"customization_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ch, err := h.profiles.UpdateCustomization(r.Context(), characterID, payload.PlayerID, payload.CustomizationID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, errors.New("character not found for this player"))
		case errors.Is(err, profiles.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":               true,
		"character_id":     ch.ID,
		"customization_id": ch.CustomizationID,
	})
}
