package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bethropolis/tandem/internal/logger"
)

const publishTimeout = 200 * time.Millisecond

// Redis broadcasts over a Redis pub/sub channel, reaching sessions in other
// processes and on other hosts.
type Redis struct {
	client     *redis.Client
	channel    string
	ownsClient bool

	mutex  sync.Mutex
	subs   []*redis.PubSub
	closed bool
}

// NewRedis returns a bus on channel. The caller keeps ownership of client.
func NewRedis(client *redis.Client, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

// Publish sends msg with a short timeout so a slow server never stalls an edit.
func (r *Redis) Publish(msg Message) error {
	r.mutex.Lock()
	closed := r.closed
	r.mutex.Unlock()
	if closed {
		return ErrClosed
	}

	payload, err := Encode(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to redis channel %q: %w", r.channel, err)
	}
	return nil
}

// Subscribe opens a subscription and waits until the server confirmed it, so
// messages published after Subscribe returns are not missed.
func (r *Redis) Subscribe(handler Handler) (func(), error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	ctx := context.Background()
	ps := r.client.Subscribe(ctx, r.channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribing to redis channel %q: %w", r.channel, err)
	}
	r.subs = append(r.subs, ps)

	go func() {
		for msg := range ps.Channel() {
			deliver("redis:"+msg.Channel, []byte(msg.Payload), handler)
		}
		logger.DebugTagf("bus", "Redis subscription on %q ended", r.channel)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := ps.Close(); err != nil {
				logger.DebugTagf("bus", "Closing redis subscription: %v", err)
			}
		})
	}, nil
}

// Close ends all subscriptions, and the client when Open created it.
func (r *Redis) Close() error {
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return nil
	}
	r.closed = true
	subs := r.subs
	r.subs = nil
	r.mutex.Unlock()

	for _, ps := range subs {
		ps.Close()
	}
	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}
