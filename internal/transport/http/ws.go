package http

import (
	"log"
	stdhttp "net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/triadflow/triad/internal/hub"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *stdhttp.Request) bool {
		// The supervisor API is CORS-open; mirror that here.
		return true
	},
}

// HandleWebSocket upgrades the connection and streams pipeline events for
// the run named by ?run_id= (all runs when absent).
// GET /ws
func (h *Handler) HandleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	eventHub := h.service.Hub()
	conn := eventHub.NewConnection(ws, c.QueryParam("run_id"))
	eventHub.Register(conn)

	go h.writePump(conn)
	go h.readPump(conn)

	return nil
}

// readPump drains the connection; clients are not expected to send
// anything beyond pings.
func (h *Handler) readPump(conn *hub.Connection) {
	defer func() {
		h.service.Hub().Unregister(conn)
		conn.Conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump writes broadcast events to the WebSocket connection.
func (h *Handler) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
