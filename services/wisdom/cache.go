// File: services/wisdom/cache.go
package wisdom

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"barakah/models"
	"barakah/utils"

	"github.com/go-redis/redis/v8"
)

// Store caches one quote per day.
type Store interface {
	Get(ctx context.Context, day string) (*models.Wisdom, error)
	Set(ctx context.Context, day string, w models.Wisdom) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get returns nil, nil on a cache miss.
func (s *RedisStore) Get(ctx context.Context, day string) (*models.Wisdom, error) {
	data, err := s.client.Get(ctx, utils.WisdomCachePrefix+day).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var w models.Wisdom
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Set keeps the first quote written for a day; later writers lose.
func (s *RedisStore) Set(ctx context.Context, day string, w models.Wisdom) error {
	b, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, utils.WisdomCachePrefix+day, b, s.ttl).Err()
}
