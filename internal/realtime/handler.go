package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"malume-nico/internal/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced on the HTTP surface; the site is public.
		return true
	},
}

// joinMessage is what a client sends to subscribe to rooms.
type joinMessage struct {
	Type        string  `json:"type"`
	OrderID     *int64  `json:"orderId,omitempty"`
	TableNumber *string `json:"tableNumber,omitempty"`
}

// Handler upgrades websocket connections and feeds join requests to the hub.
type Handler struct {
	hub    *Hub
	logger *logger.Logger
}

// NewHandler creates a websocket handler over the hub.
func NewHandler(hub *Hub, log *logger.Logger) *Handler {
	return &Handler{hub: hub, logger: log}
}

// Serve handles GET /ws. The connection stays open reading join messages
// until the client disconnects; pushed events flow the other way via the hub.
func (h *Handler) Serve(c *gin.Context) {
	requestID := logger.GenerateRequestID()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ws_upgrade_failed", "Failed to upgrade connection", requestID, err, nil)
		return
	}
	defer func() {
		h.hub.Leave(conn)
		conn.Close()
	}()

	h.logger.Debug("ws_connected", "Client connected", requestID, map[string]interface{}{
		"remote_addr": c.Request.RemoteAddr,
	})

	for {
		var msg joinMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("ws_disconnected", "Client disconnected", requestID, nil)
			return
		}

		if msg.Type != "join" {
			continue
		}
		if msg.OrderID != nil {
			h.hub.Join(OrderRoom(*msg.OrderID), conn)
		}
		if msg.TableNumber != nil && *msg.TableNumber != "" {
			h.hub.Join(TableRoom(*msg.TableNumber), conn)
		}
	}
}
