package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/lthibault/log"

	"terminus-realm/worldgen/services"
)

// WebsocketHandler upgrades requests and serves each client until it leaves.
// Clients live as long as the request context, so servers should derive
// it from their own lifetime through http.Server.BaseContext.
type WebsocketHandler struct {
	players  *services.PlayerService
	world    *services.WorldService
	clients  *ClientManager
	log      log.Logger
	upgrader websocket.Upgrader
}

// NewWebsocketHandler creates a new websocket handler
func NewWebsocketHandler(players *services.PlayerService, world *services.WorldService, clients *ClientManager, logger log.Logger) *WebsocketHandler {
	return &WebsocketHandler{
		players: players,
		world:   world,
		clients: clients,
		log:     logger,
		upgrader: websocket.Upgrader{
			// any origin may connect; the client is served separately
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WebsocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("failed to upgrade connection")
		return
	}
	defer conn.Close()

	HandleClientConnection(r.Context(), conn, h.players, h.world, h.clients, h.log)
}
