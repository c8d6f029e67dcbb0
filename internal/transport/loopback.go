package transport

import (
	"context"
	"log"
	"sync"

	"github.com/aaronzipp/link-race/internal/models"
)

// Network is an in-process match: every joined peer receives what the
// others broadcast, in order, through the same wire codec as the relay.
type Network struct {
	mu    sync.Mutex
	peers map[models.PlayerProfile]*LoopbackPeer
}

// NewNetwork creates an empty in-process network
func NewNetwork() *Network {
	return &Network{peers: make(map[models.PlayerProfile]*LoopbackPeer)}
}

// Join connects a new peer
func (n *Network) Join(profile models.PlayerProfile) *LoopbackPeer {
	p := &LoopbackPeer{
		network: n,
		profile: profile,
		wake:    make(chan struct{}, 1),
		out:     make(chan Delivery),
		done:    make(chan struct{}),
	}
	n.mu.Lock()
	n.peers[profile] = p
	n.mu.Unlock()
	go p.pump()
	return p
}

// Len is the number of connected peers
func (n *Network) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.peers)
}

func (n *Network) others(from models.PlayerProfile) []*LoopbackPeer {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*LoopbackPeer, 0, len(n.peers))
	for profile, p := range n.peers {
		if profile != from {
			out = append(out, p)
		}
	}
	return out
}

func (n *Network) send(from models.PlayerProfile, data []byte) {
	for _, p := range n.others(from) {
		d, err := Decode(data)
		if err != nil {
			log.Printf("[loopback] drop: %v", err)
			return
		}
		p.enqueue(d)
	}
}

func (n *Network) leave(p *LoopbackPeer) {
	n.mu.Lock()
	if n.peers[p.profile] == p {
		delete(n.peers, p.profile)
	}
	n.mu.Unlock()

	data, err := EncodePeerLeft(p.profile)
	if err != nil {
		return
	}
	n.send(p.profile, data)
}

// LoopbackPeer is one member of a Network. Its inbox is unbounded so a
// slow reader never blocks a sender.
type LoopbackPeer struct {
	network *Network
	profile models.PlayerProfile

	mu      sync.Mutex
	queue   []Delivery
	closed  bool
	sendErr error

	wake chan struct{}
	out  chan Delivery
	done chan struct{}
}

// Broadcast implements Transport
func (p *LoopbackPeer) Broadcast(ctx context.Context, msg models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	closed, sendErr := p.closed, p.sendErr
	p.mu.Unlock()
	if closed {
		return ErrNotConnected
	}
	if sendErr != nil {
		return sendErr
	}
	data, err := Encode(p.profile, msg)
	if err != nil {
		return err
	}
	p.network.send(p.profile, data)
	return nil
}

// Deliveries implements Transport
func (p *LoopbackPeer) Deliveries() <-chan Delivery {
	return p.out
}

// Disconnect implements Transport. The other peers see a PeerLeft delivery.
func (p *LoopbackPeer) Disconnect() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	p.network.leave(p)
	return nil
}

// FailSends makes every following Broadcast return err (nil restores)
func (p *LoopbackPeer) FailSends(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendErr = err
}

func (p *LoopbackPeer) enqueue(d Delivery) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, d)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *LoopbackPeer) pump() {
	for {
		select {
		case <-p.wake:
		case <-p.done:
			return
		}
		for {
			p.mu.Lock()
			if len(p.queue) == 0 {
				p.mu.Unlock()
				break
			}
			d := p.queue[0]
			p.queue = p.queue[1:]
			p.mu.Unlock()

			select {
			case p.out <- d:
			case <-p.done:
				return
			}
		}
	}
}
