package transport

import (
	"encoding/json"
	"fmt"

	"github.com/aaronzipp/link-race/internal/models"
)

// TypePeerLeft is the envelope type the relay sends when a member drops
const TypePeerLeft = "PEER_LEFT"

// Envelope is the wire form of a message
type Envelope struct {
	Type    string               `json:"type"`
	From    models.PlayerProfile `json:"from"`
	Payload json.RawMessage      `json:"payload,omitempty"`
}

// Encode wraps msg from sender into its wire form
func Encode(from models.PlayerProfile, msg models.Message) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}
	return json.Marshal(Envelope{Type: string(msg.Type), From: from, Payload: payload})
}

// EncodePeerLeft builds the notice for a dropped member
func EncodePeerLeft(who models.PlayerProfile) ([]byte, error) {
	return json.Marshal(Envelope{Type: TypePeerLeft, From: who})
}

// Decode parses a wire envelope into a Delivery
func Decode(data []byte) (Delivery, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Delivery{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Type == TypePeerLeft {
		return Delivery{From: env.From, PeerLeft: true}, nil
	}

	var msg models.Message
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		return Delivery{}, fmt.Errorf("bad %s payload: %w", env.Type, err)
	}
	if string(msg.Type) != env.Type {
		return Delivery{}, fmt.Errorf("envelope type %s does not match payload type %s", env.Type, msg.Type)
	}
	if err := msg.Validate(); err != nil {
		return Delivery{}, err
	}
	return Delivery{From: env.From, Message: msg}, nil
}
