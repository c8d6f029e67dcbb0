// Package sse fans rendered fragments out to the browser tabs watching
// the local match.
package sse

import (
	"log"
	"os"
	"sync"
	"time"
)

var debug bool

func init() {
	debug = os.Getenv("DEBUG") != ""
}

const (
	// BufferSize is each client's channel capacity
	BufferSize = 32
	// sendTimeout is how long a slow client may hold up a broadcast
	sendTimeout = time.Second
)

// Message is one server-sent event
type Message struct {
	Event string
	Data  string
}

// Broker tracks the connected SSE clients
type Broker struct {
	mu      sync.RWMutex
	clients map[chan Message]struct{}
	last    map[string]Message
}

// NewBroker creates an empty broker
func NewBroker() *Broker {
	return &Broker{
		clients: make(map[chan Message]struct{}),
		last:    make(map[string]Message),
	}
}

// AddClient registers a client and returns the latest message of every
// event so a new tab can render the current state
func (b *Broker) AddClient(client chan Message) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = struct{}{}
	replay := make([]Message, 0, len(b.last))
	for _, event := range replayOrder {
		if msg, ok := b.last[event]; ok {
			replay = append(replay, msg)
		}
	}
	return replay
}

// RemoveClient removes an SSE client
func (b *Broker) RemoveClient(client chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, client)
	log.Printf("[sse] client removed, now have %d total clients", len(b.clients))
}

// ClientCount returns the number of connected clients
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Broadcast sends a message to all connected SSE clients
func (b *Broker) Broadcast(event, data string) {
	msg := Message{Event: event, Data: data}

	b.mu.Lock()
	b.last[event] = msg
	// Collect all client channels while holding the lock
	clients := make([]chan Message, 0, len(b.clients))
	for client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.Unlock()

	if debug {
		log.Printf("[sse] broadcast event=%s to %d clients", event, len(clients))
	}

	// Send messages WITHOUT holding the lock
	for _, client := range clients {
		select {
		case client <- msg:
		case <-time.After(sendTimeout):
			if debug {
				log.Printf("[sse] timeout sending %s to client", event)
			}
		}
	}
}
