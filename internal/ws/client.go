package ws

import (
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
)

// writeTimeout bounds one alert frame write; a stalled dashboard client is
// dropped rather than blocking the hub.
const writeTimeout = 5 * time.Second

// Client represents a websocket dashboard connection.
type Client struct {
	conn *websocket.Conn
	log  *slog.Logger
}

// NewClient constructs a client wrapper.
func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{conn: conn, log: logger}
}

// Send writes a message to the websocket connection.
func (c *Client) Send(payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		if c.log != nil {
			c.log.Warn("websocket send failed", "error", err)
		}
		_ = c.conn.Close()
		return err
	}
	return nil
}

// Close terminates the connection.
func (c *Client) Close() {
	_ = c.conn.Close()
}
