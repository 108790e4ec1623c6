package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/potential-games/mmo-services/internal/app/services/master"
	"github.com/potential-games/mmo-services/pkg/logger"
)

// masterHandler upgrades dedicated server and lobby connections into
// directory sessions.
type masterHandler struct {
	directory *master.Directory
	upgrader  websocket.Upgrader
	logger    *logger.Logger
}

// NewMasterHandler returns the master service router.
func NewMasterHandler(directory *master.Directory, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("master-api")
	}
	h := &masterHandler{
		directory: directory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.serveWS).Methods(http.MethodGet)
	return r
}

func (h *masterHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"servers": len(h.directory.List()),
	})
}

func (h *masterHandler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	session := master.NewSession(h.directory, conn)
	go session.Serve()
}
