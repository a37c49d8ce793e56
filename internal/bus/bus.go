package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bethropolis/tandem/internal/config"
	"github.com/bethropolis/tandem/internal/logger"
)

// ErrClosed is returned when publishing or subscribing on a closed bus.
var ErrClosed = errors.New("sync bus closed")

// Handler receives every well-formed message published by any session,
// including the subscriber's own.
type Handler func(Message)

// Bus is a fire-and-forget broadcast channel shared by the sessions editing
// one document. Delivery is at most once and unordered across senders.
type Bus interface {
	Publish(msg Message) error
	// Subscribe registers handler and returns a func that removes it.
	Subscribe(handler Handler) (func(), error)
	Close() error
}

// Open creates the bus selected by cfg.Backend.
func Open(ctx context.Context, cfg config.SyncConfig) (Bus, error) {
	switch cfg.Backend {
	case config.BusLocal, "":
		return NewLocal(DefaultHub(), cfg.Channel), nil
	case config.BusRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		b := NewRedis(client, cfg.Channel)
		b.ownsClient = true
		return b, nil
	case config.BusWebSocket:
		return DialWebSocket(ctx, cfg.RelayURL, cfg.Channel)
	default:
		return nil, fmt.Errorf("unknown sync backend %q", cfg.Backend)
	}
}

// deliver decodes payload and passes it on, dropping anything malformed.
func deliver(source string, payload []byte, handler Handler) {
	msg, err := Decode(payload)
	if err != nil {
		logger.WarnTagf("bus", "Dropping message from %s: %v", source, err)
		return
	}
	handler(msg)
}
