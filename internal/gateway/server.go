package gateway

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header and those whose
// Origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// HandleWebSocket handles GET /ws. It must run behind the session guard.
func (m *Manager) HandleWebSocket(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "session", sess.ID, "error", err)
		return nil
	}

	conn := newConnection(ws, sess.ID, m)
	m.register(conn)
	conn.SendPayload(Payload{Event: EventHello})
	m.RequestRefresh(sess.ID)

	go conn.writePump()
	go conn.readPump()

	return nil
}
