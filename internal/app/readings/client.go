package readings

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// timeout for writing a frame to the connection.
	writeWait = 10 * time.Second

	// time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// ping cadence; must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// dashboards only send control frames.
	maxMessageSize = 512

	sendBuffer = 16
)

// Client is one websocket connection subscribed to the feed.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// outbound frames; closed by the hub when the client is removed.
	send chan []byte

	logger zerolog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		logger: hub.logger.With().
			Str("remote_addr", conn.RemoteAddr().String()).
			Logger(),
	}
}

// readPump drains inbound frames so control frames are processed, and keeps the
// read deadline moving on every pong.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Feed connection closed unexpectedly")
			}
			return
		}
	}
}

// writePump writes queued frames and heartbeats until the send queue is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warn().Err(err).Msg("Error writing feed frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}
