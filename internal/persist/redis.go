package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 2 * time.Second

// Redis keeps the snapshot in a Redis string key.
type Redis struct {
	client     *redis.Client
	key        string
	ownsClient bool
}

// NewRedis returns a store on key. The caller keeps ownership of client.
func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key}
}

// OpenRedis connects to addr and checks the server answers.
func OpenRedis(ctx context.Context, addr, key string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &Redis{client: client, key: key, ownsClient: true}, nil
}

func (r *Redis) Load() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	content, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading snapshot %q: %w", r.key, err)
	}
	return content, nil
}

func (r *Redis) Save(content string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key, content, 0).Err(); err != nil {
		return fmt.Errorf("saving snapshot %q: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}
