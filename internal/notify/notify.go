// Package notify delivers committed notifications to live listeners.
//
// Notifications are persisted by the store in the same commit as the
// mutation that produced them; this package only fans them out afterwards,
// over Redis pub/sub, to anyone watching the recipient's channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces per-recipient pub/sub channels
const ChannelPrefix = "notifications:"

// Channel returns the pub/sub channel for a recipient
func Channel(email string) string {
	return ChannelPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Publisher pushes an already persisted notification to live listeners
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// RedisPublisher publishes notifications as JSON on the recipient's channel
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a publisher on an open client
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := p.rdb.Publish(ctx, Channel(n.UserEmail), payload).Err(); err != nil {
		return fmt.Errorf("publish notification %d: %w", n.ID, err)
	}
	return nil
}

// Subscribe streams notifications published for email until ctx is done.
// The returned channel is closed when the subscription ends.
func Subscribe(ctx context.Context, rdb *redis.Client, email string) (<-chan models.Notification, error) {
	pubsub := rdb.Subscribe(ctx, Channel(email))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(email), err)
	}

	out := make(chan models.Notification, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n models.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Discard drops every notification. Used when no Redis is configured.
type Discard struct{}

func (Discard) Publish(context.Context, models.Notification) error { return nil }
