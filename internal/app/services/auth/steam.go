package auth

import (
	"context"
	"fmt"
	"net/url"

	"github.com/potential-games/mmo-services/internal/httputil"
	"github.com/potential-games/mmo-services/pkg/logger"
)

// TicketVerifier validates a platform session ticket for a claimed identity.
type TicketVerifier interface {
	Verify(ctx context.Context, steamID, ticket string) error
}

// VerifierFunc adapts a function to the TicketVerifier interface.
type VerifierFunc func(ctx context.Context, steamID, ticket string) error

func (f VerifierFunc) Verify(ctx context.Context, steamID, ticket string) error {
	return f(ctx, steamID, ticket)
}

// AllowAllVerifier accepts every ticket. Used when auth.allow_unverified is
// set, matching the wiring-phase behavior of early deployments.
func AllowAllVerifier() TicketVerifier {
	return VerifierFunc(func(context.Context, string, string) error { return nil })
}

const steamAPIBaseURL = "https://api.steampowered.com"

// SteamVerifier validates tickets against the Steam Web API
// (ISteamUserAuth.AuthenticateUserTicket).
type SteamVerifier struct {
	client *httputil.Client
	appID  string
	apiKey string
	log    *logger.Logger
}

// NewSteamVerifier creates a verifier for the given app.
func NewSteamVerifier(client *httputil.Client, appID, apiKey string, log *logger.Logger) (*SteamVerifier, error) {
	if appID == "" || apiKey == "" {
		return nil, fmt.Errorf("steam app id and web api key are required")
	}
	if client == nil {
		client = httputil.NewClient(httputil.ClientConfig{BaseURL: steamAPIBaseURL})
	}
	if log == nil {
		log = logger.NewDefault("steam-verifier")
	}
	return &SteamVerifier{client: client, appID: appID, apiKey: apiKey, log: log}, nil
}

type steamAuthResponse struct {
	Response struct {
		Params struct {
			Result          string `json:"result"`
			SteamID         string `json:"steamid"`
			OwnerSteamID    string `json:"ownersteamid"`
			VACBanned       bool   `json:"vacbanned"`
			PublisherBanned bool   `json:"publisherbanned"`
		} `json:"params"`
		Error struct {
			Code int    `json:"errorcode"`
			Desc string `json:"errordesc"`
		} `json:"error"`
	} `json:"response"`
}

// Verify checks the ticket and that the authenticated steamid matches the
// claimed one.
func (v *SteamVerifier) Verify(ctx context.Context, steamID, ticket string) error {
	query := url.Values{}
	query.Set("key", v.apiKey)
	query.Set("appid", v.appID)
	query.Set("ticket", ticket)

	resp, err := v.client.Get(ctx, "/ISteamUserAuth/AuthenticateUserTicket/v1/?"+query.Encode())
	if err != nil {
		return fmt.Errorf("steam auth request: %w", err)
	}

	var result steamAuthResponse
	if err := httputil.DecodeResponse(resp, &result); err != nil {
		return fmt.Errorf("steam auth response: %w", err)
	}

	params := result.Response.Params
	if params.Result != "OK" {
		if desc := result.Response.Error.Desc; desc != "" {
			return fmt.Errorf("steam ticket rejected: %s", desc)
		}
		return fmt.Errorf("steam ticket rejected")
	}
	if params.SteamID != steamID {
		v.log.WithField("claimed", steamID).
			WithField("authenticated", params.SteamID).
			Warn("steam id mismatch")
		return fmt.Errorf("steam id mismatch")
	}
	if params.VACBanned || params.PublisherBanned {
		return fmt.Errorf("steam account banned")
	}
	return nil
}
