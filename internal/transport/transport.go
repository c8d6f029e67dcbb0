// Package transport moves typed match messages between the members of
// a match.
package transport

import (
	"context"
	"errors"

	"github.com/aaronzipp/link-race/internal/models"
)

// ErrNotConnected is returned when sending on a closed transport
var ErrNotConnected = errors.New("not connected")

// Delivery is one inbound message, or a notice that a peer went away
type Delivery struct {
	From     models.PlayerProfile
	Message  models.Message
	PeerLeft bool
}

// Transport is a pub/sub channel between the members of one match.
// Broadcast never echoes a message back to its sender.
type Transport interface {
	Broadcast(ctx context.Context, msg models.Message) error
	Deliveries() <-chan Delivery
	Disconnect() error
}
