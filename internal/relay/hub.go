// Package relay is the websocket relay that groups peers by match code
// and forwards each peer's envelopes to the rest of its match.
package relay

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/aaronzipp/link-race/internal/models"
	"github.com/aaronzipp/link-race/internal/transport"
)

var debug bool

func init() {
	debug = os.Getenv("DEBUG") != ""
}

// BusMessage is one envelope on its way to the members of a match.
// Origin is the connection that sent it, which never gets it back.
type BusMessage struct {
	Code   string          `json:"code"`
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}

// Bus fans envelopes out across relay instances
type Bus interface {
	Publish(ctx context.Context, m BusMessage) error
	// Subscribe delivers every published message until ctx ends
	Subscribe(ctx context.Context, deliver func(BusMessage)) error
}

// Hub maintains the connected peers of every match
type Hub struct {
	mu      sync.RWMutex
	matches map[string]map[string]*Client // code → connection id → client
	bus     Bus
}

// NewHub creates a hub. With a nil bus envelopes only reach peers on
// this instance.
func NewHub(bus Bus) *Hub {
	return &Hub{
		matches: make(map[string]map[string]*Client),
		bus:     bus,
	}
}

// Run consumes the bus until ctx is cancelled. Without a bus it just
// waits.
func (h *Hub) Run(ctx context.Context) error {
	if h.bus == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return h.bus.Subscribe(ctx, h.deliver)
}

// Register adds a client to its match
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	members, ok := h.matches[c.Code]
	if !ok {
		members = make(map[string]*Client)
		h.matches[c.Code] = members
	}
	members[c.ID] = c
	n := len(members)
	h.mu.Unlock()
	log.Printf("[relay] %s joined match %s (members: %d)", c.Profile, c.Code, n)
}

// Unregister removes a client and tells the rest of the match it left,
// unless the same player is still connected through another socket
func (h *Hub) Unregister(ctx context.Context, c *Client) {
	h.mu.Lock()
	members := h.matches[c.Code]
	delete(members, c.ID)
	stillHere := false
	for _, other := range members {
		if other.Profile == c.Profile {
			stillHere = true
			break
		}
	}
	if len(members) == 0 {
		delete(h.matches, c.Code)
	}
	n := len(members)
	h.mu.Unlock()
	log.Printf("[relay] %s left match %s (members: %d)", c.Profile, c.Code, n)

	if stillHere {
		return
	}
	data, err := transport.EncodePeerLeft(c.Profile)
	if err != nil {
		log.Printf("[relay] marshal peer left error: %v", err)
		return
	}
	h.Publish(ctx, BusMessage{Code: c.Code, Origin: c.ID, Data: data})
}

// Publish sends m to the match's other members, through the bus when
// there is one
func (h *Hub) Publish(ctx context.Context, m BusMessage) {
	if h.bus == nil {
		h.deliver(m)
		return
	}
	if err := h.bus.Publish(ctx, m); err != nil {
		log.Printf("[relay] publish to match %s failed: %v", m.Code, err)
	}
}

// deliver hands m to the local members of its match
func (h *Hub) deliver(m BusMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for id, c := range h.matches[m.Code] {
		if id == m.Origin {
			continue
		}
		select {
		case c.send <- m.Data:
			sent++
		default:
			log.Printf("[relay] send buffer full for %s, dropping", c.Profile)
		}
	}
	if debug {
		log.Printf("[relay] match %s: delivered to %d members", m.Code, sent)
	}
}

// ClientCount returns the number of connected sockets
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, members := range h.matches {
		n += len(members)
	}
	return n
}

// MatchCount returns the number of matches with a connected member
func (h *Hub) MatchCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.matches)
}

// Members lists the players connected to match code on this instance
func (h *Hub) Members(code string) []models.PlayerProfile {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []models.PlayerProfile
	for _, c := range h.matches[code] {
		out = append(out, c.Profile)
	}
	return out
}
