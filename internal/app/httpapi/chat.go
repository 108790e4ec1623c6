package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	chatsvc "github.com/potential-games/mmo-services/internal/app/services/chat"
	"github.com/potential-games/mmo-services/internal/config"
	"github.com/potential-games/mmo-services/pkg/logger"
)

const indexPage = `<!DOCTYPE html>
<html>
<head><title>chat</title></head>
<body>Nothing to see here, the chat service speaks websocket on /ws.</body>
</html>
`

// chatHandler upgrades websocket connections and hands them to the hub.
type chatHandler struct {
	hub      *chatsvc.Hub
	cfg      config.ChatConfig
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewChatHandler returns the chat service router. Token enforcement, when
// enabled, sits in front of this router as middleware.
func NewChatHandler(hub *chatsvc.Hub, cfg config.ChatConfig, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("chat-api")
	}
	h := &chatHandler{
		hub: hub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.serveWS).Methods(http.MethodGet)
	return r
}

func (h *chatHandler) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}

func (h *chatHandler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *chatHandler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := chatsvc.NewClient(h.hub, conn, h.cfg.SendBuffer, h.cfg.PingPeriod())
	go client.Serve()
}
