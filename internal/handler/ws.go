package handler

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mohaimenalqadi/kick-donations/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Overlays run inside OBS browser sources and dashboards on other
	// origins; access control happens at the event level, not here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades HTTP connections into hub sessions.
type WSHandler struct {
	Hub *hub.Hub
}

func NewWSHandler(h *hub.Hub) *WSHandler { return &WSHandler{Hub: h} }

// Serve upgrades the connection and hands it to the hub. The session stays
// role-less until it sends a register event.
func (h *WSHandler) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return nil // Upgrade already wrote the HTTP error
	}
	hub.NewClient(h.Hub, conn).Start()
	return nil
}
