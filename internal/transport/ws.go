package transport

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aaronzipp/link-race/internal/models"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 1 << 20 // 1 MB
	reconnectInterval = 2 * time.Second
	maxReconnectDelay = 30 * time.Second
	sendBufferSize    = 256
	deliveryBuffer    = 256
	maxBackoffShift   = 4
)

// RelayURL builds the websocket URL for joining match code on a relay
func RelayURL(relay, code string, profile models.PlayerProfile) (string, error) {
	u, err := url.Parse(relay)
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + url.PathEscape(code)
	q := u.Query()
	q.Set("id", profile.PlayerID)
	q.Set("name", profile.Name)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// WSClient is a Transport over a websocket connection to the relay.
// Dropped connections are re-established with exponential backoff.
type WSClient struct {
	serverURL  string
	profile    models.PlayerProfile
	parentCtx  context.Context
	deliveries chan Delivery

	mu                sync.Mutex
	conn              *websocket.Conn
	send              chan []byte
	connCancel        context.CancelFunc
	stopReconnect     context.CancelFunc
	connected         bool
	closed            bool
	reconnectAttempts int
}

// DialRelay connects profile to match code on the relay.
// The provided ctx controls the client lifetime.
func DialRelay(ctx context.Context, relay, code string, profile models.PlayerProfile) (*WSClient, error) {
	serverURL, err := RelayURL(relay, code, profile)
	if err != nil {
		return nil, err
	}
	c := &WSClient{
		serverURL:  serverURL,
		profile:    profile,
		parentCtx:  ctx,
		deliveries: make(chan Delivery, deliveryBuffer),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *WSClient) connect() error {
	conn, _, err := websocket.DefaultDialer.DialContext(c.parentCtx, c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	connCtx, connCancel := context.WithCancel(c.parentCtx)
	send := make(chan []byte, sendBufferSize)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		connCancel()
		conn.Close()
		return ErrNotConnected
	}
	if c.stopReconnect != nil {
		c.stopReconnect()
		c.stopReconnect = nil
	}
	c.conn = conn
	c.send = send
	c.connCancel = connCancel
	c.connected = true
	c.reconnectAttempts = 0
	c.mu.Unlock()

	log.Printf("[ws] connected to %s", c.serverURL)

	var once sync.Once
	onDisconnect := func() {
		once.Do(func() {
			connCancel()
			conn.Close()

			c.mu.Lock()
			isCurrentConn := c.conn == conn
			if isCurrentConn {
				c.connected = false
				c.conn = nil
				c.send = nil
			}
			shouldReconnect := isCurrentConn && !c.closed && c.parentCtx.Err() == nil
			var reconnectCtx context.Context
			if shouldReconnect {
				reconnectCtx, c.stopReconnect = context.WithCancel(c.parentCtx)
			}
			c.mu.Unlock()

			if isCurrentConn {
				log.Printf("[ws] disconnected from relay")
			}
			if shouldReconnect {
				go c.reconnectLoop(reconnectCtx)
			}
		})
	}

	go c.readPump(connCtx, conn, onDisconnect)
	go c.writePump(connCtx, conn, send, onDisconnect)
	return nil
}

// Connected reports whether the relay connection is up
func (c *WSClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Broadcast implements Transport
func (c *WSClient) Broadcast(ctx context.Context, msg models.Message) error {
	data, err := Encode(c.profile, msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	send := c.send
	c.mu.Unlock()

	if send == nil {
		return ErrNotConnected
	}

	select {
	case send <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Deliveries implements Transport
func (c *WSClient) Deliveries() <-chan Delivery {
	return c.deliveries
}

// Disconnect permanently closes the connection. No reconnection will be attempted.
func (c *WSClient) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected = false
	c.closed = true
	c.send = nil
	if c.stopReconnect != nil {
		c.stopReconnect()
		c.stopReconnect = nil
	}
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	// the write pump sends the close frame and closes the socket
	c.conn = nil
	return nil
}

func (c *WSClient) readPump(ctx context.Context, conn *websocket.Conn, onDisconnect func()) {
	defer onDisconnect()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}
		d, err := Decode(message)
		if err != nil {
			log.Printf("[ws] invalid message: %v", err)
			continue
		}
		select {
		case c.deliveries <- d:
		case <-ctx.Done():
			return
		}
	}
}

func (c *WSClient) writePump(ctx context.Context, conn *websocket.Conn, send <-chan []byte, onDisconnect func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		onDisconnect()
	}()

	for {
		select {
		case message := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *WSClient) reconnectLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		c.reconnectAttempts++
		attempts := c.reconnectAttempts
		c.mu.Unlock()

		delay := reconnectInterval * time.Duration(1<<uint(min(attempts-1, maxBackoffShift)))
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}

		log.Printf("[ws] reconnecting in %v (attempt %d)...", delay, attempts)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}

		if err := c.connect(); err != nil {
			log.Printf("[ws] reconnect failed: %v", err)
			continue
		}

		log.Printf("[ws] reconnected successfully")
		return
	}
}
