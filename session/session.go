package session

import (
	"context"
	"fmt"
	"time"

	"github.com/lectern-ai/lectern/models"
	"github.com/lectern-ai/lectern/session/inmemory"
	redis_session "github.com/lectern-ai/lectern/session/redis"
)

// Store keeps per-session conversation history, bounded to
// 2 x max exchanges turns with oldest-first eviction. Unknown session ids
// read as empty history, not errors.
type Store interface {
	// Create mints a new opaque session id with empty history.
	Create(ctx context.Context) (string, error)
	// History returns the retained turns for a session, oldest first.
	History(ctx context.Context, id string) ([]models.Turn, error)
	// Append pushes turns onto a session, evicting from the front when
	// over the retention cap.
	Append(ctx context.Context, id string, turns ...models.Turn) error
}

type Backend string

const (
	InMemoryBackend Backend = "inmemory"
	RedisBackend    Backend = "redis"
)

// Options configures a session store backend.
type Options struct {
	MaxExchanges  int
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewStore creates a session store for the configured backend.
func NewStore(backend Backend, opts Options) (Store, error) {
	maxTurns := 2 * opts.MaxExchanges
	switch backend {
	case InMemoryBackend:
		return inmemory.NewStore(maxTurns), nil
	case RedisBackend:
		return redis_session.NewStore(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, maxTurns, opts.TTL)
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", backend)
	}
}
