package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

const redisStoreName = "redis"

type RedisStore struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{
		client: client,
		now:    time.Now,
	}
}

func NewRedisStoreFromURL(url string) (*RedisStore, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return NewRedisStore(client), client, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (models.HealthStatusEntry, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.HealthStatusEntry{}, false, nil
	}
	if err != nil {
		return models.HealthStatusEntry{}, false, &StoreError{Store: redisStoreName, Op: "get", Key: key, Err: err}
	}
	entry := models.HealthStatusEntry{}
	err = json.Unmarshal(raw, &entry)
	if err != nil {
		return models.HealthStatusEntry{}, false, &StoreError{Store: redisStoreName, Op: "decode", Key: key, Err: err}
	}
	return entry, true, nil
}

// Set relies on redis key expiry, the stored deadline is informational.
func (s *RedisStore) Set(ctx context.Context, key string, status models.Backend, ttl time.Duration) error {
	raw, err := json.Marshal(models.HealthStatusEntry{
		Status:    status,
		ExpiresAt: s.now().Add(ttl),
	})
	if err != nil {
		return &StoreError{Store: redisStoreName, Op: "encode", Key: key, Err: err}
	}
	err = s.client.Set(ctx, key, raw, ttl).Err()
	if err != nil {
		return &StoreError{Store: redisStoreName, Op: "set", Key: key, Err: err}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	err := s.client.Del(ctx, key).Err()
	if err != nil {
		return &StoreError{Store: redisStoreName, Op: "delete", Key: key, Err: err}
	}
	return nil
}
