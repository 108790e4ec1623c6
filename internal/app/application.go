// Package app wires the services together behind a single lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/potential-games/mmo-services/internal/app/httpapi"
	"github.com/potential-games/mmo-services/internal/app/metrics"
	authsvc "github.com/potential-games/mmo-services/internal/app/services/auth"
	chatsvc "github.com/potential-games/mmo-services/internal/app/services/chat"
	"github.com/potential-games/mmo-services/internal/app/services/master"
	"github.com/potential-games/mmo-services/internal/app/services/profiles"
	"github.com/potential-games/mmo-services/internal/app/storage"
	"github.com/potential-games/mmo-services/internal/app/storage/memory"
	"github.com/potential-games/mmo-services/internal/app/system"
	"github.com/potential-games/mmo-services/internal/config"
	"github.com/potential-games/mmo-services/internal/middleware"
	"github.com/potential-games/mmo-services/pkg/logger"
)

// Role selects which service an Application instance runs.
type Role string

const (
	RoleProfiles Role = "profiles"
	RoleChat     Role = "chat"
	RoleMaster   Role = "master"
)

// Stores carries the persistence backends. Nil fields default to the
// in-memory implementation, which keeps tests and local runs free of
// Postgres.
type Stores struct {
	Players    storage.PlayerStore
	Characters storage.CharacterStore
}

func (s Stores) withDefaults() Stores {
	if s.Players == nil || s.Characters == nil {
		mem := memory.New()
		if s.Players == nil {
			s.Players = mem
		}
		if s.Characters == nil {
			s.Characters = mem
		}
	}
	return s
}

// Application bundles the services of one role behind a lifecycle manager
// and an HTTP handler.
type Application struct {
	role    Role
	cfg     *config.Config
	logger  *logger.Logger
	manager *system.Manager
	handler http.Handler

	Profiles *profiles.Service
	Auth     *authsvc.Service
	Chat     *chatsvc.Hub
	Master   *master.Directory
}

// New builds the application for the given role.
func New(role Role, stores Stores, cfg *config.Config, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		log = logger.NewDefault(string(role))
	}
	stores = stores.withDefaults()

	a := &Application{
		role:    role,
		cfg:     cfg,
		logger:  log,
		manager: system.NewManager(),
	}

	var err error
	switch role {
	case RoleProfiles:
		err = a.buildProfiles(stores)
	case RoleChat:
		err = a.buildChat(stores)
	case RoleMaster:
		err = a.buildMaster()
	default:
		err = fmt.Errorf("unknown role %q", role)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Application) buildProfiles(stores Stores) error {
	a.Profiles = profiles.New(stores.Players, stores.Characters, a.logger.WithField("service", "profiles"))

	if a.cfg.Auth.JWTSecret != "" {
		verifier, err := a.steamVerifier()
		if err != nil {
			return err
		}
		a.Auth, err = authsvc.New(stores.Players, stores.Characters, verifier,
			a.cfg.Auth.JWTSecret, a.cfg.Auth.JWTIssuer, a.cfg.Auth.TokenTTL(),
			a.logger.WithField("service", "auth"))
		if err != nil {
			return err
		}
	} else {
		a.logger.Warn("jwt secret not set, steam auth disabled")
	}

	limiter := middleware.NewRateLimiter(20, 40, a.logger.WithField("service", "ratelimit"))
	limiter.StartCleanup(time.Minute)

	a.handler = a.withCommon(limiter.Handler(httpapi.NewProfilesHandler(a.Profiles, a.Auth)))
	return nil
}

func (a *Application) steamVerifier() (authsvc.TicketVerifier, error) {
	if a.cfg.Auth.AllowUnverified {
		a.logger.Warn("steam ticket verification disabled, accepting all tickets")
		return authsvc.AllowAllVerifier(), nil
	}
	return authsvc.NewSteamVerifier(nil, a.cfg.Auth.SteamAppID, a.cfg.Auth.SteamWebAPIKey,
		a.logger.WithField("service", "steam"))
}

func (a *Application) buildChat(stores Stores) error {
	a.Chat = chatsvc.NewHub(a.logger.WithField("service", "chat"))
	if err := a.manager.Register(a.Chat); err != nil {
		return err
	}

	handler := httpapi.NewChatHandler(a.Chat, a.cfg.Chat, a.logger.WithField("service", "chat-api"))
	if a.cfg.Chat.RequireAuth {
		verifier, err := a.steamVerifier()
		if err != nil {
			return err
		}
		auth, err := authsvc.New(stores.Players, stores.Characters, verifier,
			a.cfg.Auth.JWTSecret, a.cfg.Auth.JWTIssuer, a.cfg.Auth.TokenTTL(),
			a.logger.WithField("service", "auth"))
		if err != nil {
			return err
		}
		a.Auth = auth

		gate := middleware.NewAuthMiddleware(auth, a.logger.WithField("service", "chat-auth"), []string{"/", "/health"})
		handler = gate.Handler(handler)
	}

	a.handler = a.withCommon(handler)
	return nil
}

func (a *Application) buildMaster() error {
	a.Master = master.NewDirectory(a.cfg.Master.EntryTTL(), a.cfg.Master.SweepInterval(),
		a.logger.WithField("service", "master"))
	if err := a.manager.Register(a.Master); err != nil {
		return err
	}

	a.handler = a.withCommon(httpapi.NewMasterHandler(a.Master, a.logger.WithField("service", "master-api")))
	return nil
}

// withCommon wraps the role handler with metrics instrumentation, CORS and
// the /metrics endpoint.
func (a *Application) withCommon(h http.Handler) http.Handler {
	cors := middleware.NewCORSMiddleware([]string{"*"})

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", metrics.InstrumentHandler(h))
	return cors.Handler(mux)
}

// Handler returns the HTTP handler for this role.
func (a *Application) Handler() http.Handler { return a.handler }

// Role returns the role this application was built for.
func (a *Application) Role() Role { return a.role }

// Start starts the registered lifecycle services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops the registered lifecycle services in reverse order.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
