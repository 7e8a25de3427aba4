package redis_session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lectern-ai/lectern/models"
	"github.com/redis/go-redis/v9"
)

// Store keeps session history in a redis list per session, trimmed to the
// retention cap on every append. TTL is refreshed on each touch.
type Store struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
}

func NewStore(addr, password string, db, maxTurns int, ttl time.Duration) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s): %w", addr, err)
	}
	return &Store{client: rdb, maxTurns: maxTurns, ttl: ttl}, nil
}

func sessionKey(id string) string { return fmt.Sprintf("session:%s:turns", id) }

func (s *Store) Create(ctx context.Context) (string, error) {
	// A session with no turns has no redis state; the id alone is enough.
	return uuid.NewString(), nil
}

func (s *Store) History(ctx context.Context, id string) ([]models.Turn, error) {
	key := sessionKey(id)
	vals, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis history read: %w", err)
	}
	if s.ttl > 0 && len(vals) > 0 {
		_ = s.client.Expire(ctx, key, s.ttl).Err()
	}
	turns := make([]models.Turn, 0, len(vals))
	for _, v := range vals {
		var t models.Turn
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, fmt.Errorf("redis history decode: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *Store) Append(ctx context.Context, id string, turns ...models.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	key := sessionKey(id)
	vals := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("redis history encode: %w", err)
		}
		vals = append(vals, data)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, vals...)
	if s.maxTurns > 0 {
		pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis history append: %w", err)
	}
	return nil
}
