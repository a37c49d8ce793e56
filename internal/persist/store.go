// Package persist keeps the latest document snapshot under a single key.
package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/bethropolis/tandem/internal/config"
	"github.com/bethropolis/tandem/internal/logger"
)

// ErrUnknownBackend is returned by Open for an unsupported storage backend.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Store loads and saves one document snapshot. Load on an empty store
// returns "" and no error.
type Store interface {
	Load() (string, error)
	Save(content string) error
	Close() error
}

// Open creates the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	logger.DebugTagf("persist", "Opening %q storage", cfg.Backend)
	switch cfg.Backend {
	case config.StorageNone, "":
		return Nop{}, nil
	case config.StorageFile:
		if cfg.Path == "" {
			return nil, errors.New("file storage needs a path")
		}
		return NewFile(cfg.Path), nil
	case config.StorageBolt:
		if cfg.Path == "" {
			return nil, errors.New("bolt storage needs a path")
		}
		return OpenBolt(cfg.Path, cfg.Key)
	case config.StorageRedis:
		return OpenRedis(ctx, cfg.RedisAddr, cfg.Key)
	case config.StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("postgres storage needs a database_url")
		}
		return OpenPostgres(ctx, cfg.DatabaseURL, cfg.Key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Nop keeps nothing.
type Nop struct{}

func (Nop) Load() (string, error) { return "", nil }
func (Nop) Save(string) error     { return nil }
func (Nop) Close() error          { return nil }
