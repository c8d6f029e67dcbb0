package relay

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aaronzipp/link-race/internal/models"
	"github.com/aaronzipp/link-race/internal/transport"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1 << 20 // 1 MB
	sendBufSize    = 256
)

// Client is one peer's websocket connection
type Client struct {
	ID      string
	Code    string
	Profile models.PlayerProfile
	conn    *websocket.Conn
	hub     *Hub
	send    chan []byte
}

// NewClient wraps a websocket connection for profile in match code
func NewClient(code string, profile models.PlayerProfile, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:      uuid.NewString(),
		Code:    code,
		Profile: profile,
		conn:    conn,
		hub:     hub,
		send:    make(chan []byte, sendBufSize),
	}
}

// Run starts the read and write pumps and blocks until the connection closes
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	done := make(chan struct{})
	go c.writePump(done)
	c.readPump(ctx)
	close(done)
	c.hub.Unregister(context.WithoutCancel(ctx), c)
}

func (c *Client) readPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[relay] %s read error: %v", c.Profile, err)
			}
			return
		}
		c.handleMessage(ctx, message)
	}
}

// handleMessage stamps the sender and forwards the envelope. The payload
// is passed through untouched.
func (c *Client) handleMessage(ctx context.Context, raw []byte) {
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("[relay] %s: invalid message: %v", c.Profile, err)
		return
	}
	if env.Type == "" || env.Type == transport.TypePeerLeft {
		log.Printf("[relay] %s: rejected message type %q", c.Profile, env.Type)
		return
	}
	data, err := json.Marshal(transport.Envelope{Type: env.Type, From: c.Profile, Payload: env.Payload})
	if err != nil {
		log.Printf("[relay] %s: marshal error: %v", c.Profile, err)
		return
	}
	c.hub.Publish(ctx, BusMessage{Code: c.Code, Origin: c.ID, Data: data})
}

func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
