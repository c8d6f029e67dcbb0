package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "linkrace:match:"

// RedisBus shares envelopes between relay instances over Redis pub/sub
type RedisBus struct {
	rdb *redis.Client
}

// NewRedisBus wraps a connected client
func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

// Publish implements Bus
func (b *RedisBus) Publish(ctx context.Context, m BusMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal bus message: %w", err)
	}
	return b.rdb.Publish(ctx, channelPrefix+m.Code, data).Err()
}

// Subscribe implements Bus
func (b *RedisBus) Subscribe(ctx context.Context, deliver func(BusMessage)) error {
	sub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("[relay] subscribed to %s*", channelPrefix)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var m BusMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				log.Printf("[relay] bad bus message on %s: %v", msg.Channel, err)
				continue
			}
			deliver(m)
		}
	}
}
