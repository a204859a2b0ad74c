package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1024
	sendBufferSize = 16
)

// Connection is one open browser tab of a session.
type Connection struct {
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	manager   *Manager

	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(conn *websocket.Conn, sessionID string, manager *Manager) *Connection {
	return &Connection{
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
		manager:   manager,
		done:      make(chan struct{}),
	}
}

// SendPayload marshals and queues a payload. A full buffer drops it; the
// next poll sends a fresh one.
func (c *Connection) SendPayload(p Payload) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Error("marshal error", "session", c.SessionID, "error", err)
		return
	}
	select {
	case c.Send <- data:
	case <-c.done:
	default:
		slog.Warn("send buffer full, dropping update", "session", c.SessionID)
	}
}

// Close terminates the connection.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.Conn.Close()
	})
}

// expire tells the tab its session ended, then closes with CloseSessionExpired.
func (c *Connection) expire() {
	c.SendPayload(Payload{Event: EventSessionExpired})
	go func() {
		// Let the write pump flush the event first.
		time.Sleep(100 * time.Millisecond)
		msg := websocket.FormatCloseMessage(CloseSessionExpired, "session expired")
		_ = c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.Close()
	}()
}

func (c *Connection) readPump() {
	defer func() {
		c.manager.unregister(c)
		c.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("read error", "session", c.SessionID, "error", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Debug("invalid payload", "session", c.SessionID, "error", err)
		return
	}
	if p.Event == EventRefresh {
		c.manager.RequestRefresh(c.SessionID)
	}
}
