package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const sessionKeyPrefix = "quiz:session:"

// RedisStore keeps snapshots as plain string values. Snapshots never expire:
// a quiz survives process restarts until an explicit reset.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed snapshot store.
func NewRedisStore(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (r *RedisStore) key(code string) string {
	return sessionKeyPrefix + strings.ToUpper(code)
}

// Save overwrites the snapshot for a code.
func (r *RedisStore) Save(ctx context.Context, code string, snapshot []byte) error {
	if err := r.client.Set(ctx, r.key(code), snapshot, 0).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

// LoadAll fetches every persisted session; individual read failures are
// skipped so one bad key cannot block startup.
func (r *RedisStore) LoadAll(ctx context.Context) (map[string][]byte, error) {
	keys, err := r.client.Keys(ctx, sessionKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}

	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		data, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("skip unreadable snapshot")
			continue
		}
		out[strings.TrimPrefix(key, sessionKeyPrefix)] = data
	}
	return out, nil
}
