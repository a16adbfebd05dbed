package websocket

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventConnectionEstablished is the first frame every subscriber receives.
const EventConnectionEstablished = "connection_established"

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	defaultPongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	defaultPingPeriod = 25 * time.Second

	// Subscribers only listen; anything they send is read and discarded.
	maxMessageSize = 4 * 1024

	// Send buffer size
	sendBufferSize = 256
)

// Client represents a WebSocket client connection
type Client struct {
	id         string          // Unique connection ID
	remoteAddr string          // Peer address, for logs only
	hub        *Hub            // Reference to hub
	conn       *websocket.Conn // WebSocket connection
	send       chan []byte     // Buffered channel of outbound messages
	pongWait   time.Duration
	pingPeriod time.Duration
	logger     *zap.Logger
}

// NewClient creates a new WebSocket client. Zero durations fall back to the
// package defaults.
func NewClient(hub *Hub, conn *websocket.Conn, pingPeriod, pongWait time.Duration, logger *zap.Logger) *Client {
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	if pingPeriod <= 0 || pingPeriod >= pongWait {
		pingPeriod = defaultPingPeriod
	}

	id := uuid.New().String()
	return &Client{
		id:         id,
		remoteAddr: conn.RemoteAddr().String(),
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
		logger:     logger.With(zap.String("connectionID", id)),
	}
}

// Start registers the client and begins its read and write pumps.
func (c *Client) Start() {
	if !c.hub.join(c) {
		c.conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump drains the connection so control frames are processed and
// detects disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
		c.logger.Debug("Read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}

		if messageType == websocket.TextMessage {
			c.logger.Debug("Ignoring message from subscriber",
				zap.ByteString("message", bytes.TrimSpace(message)),
			)
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.Debug("Write pump stopped")
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("Failed to write message", zap.Error(err))
				return
			}

			// Flush whatever queued up while writing; frames stay separate
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					c.logger.Warn("Failed to write batched message", zap.Error(err))
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
