package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps every key of one device in a single hash.
type RedisStore struct {
	client *goredis.Client
	key    string
}

func NewRedisStore(client *goredis.Client, prefix, deviceID string) *RedisStore {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		deviceID = "default"
	}
	return &RedisStore{client: client, key: prefix + deviceID}
}

func OpenRedisStore(ctx context.Context, redisURL, prefix, deviceID string) (*RedisStore, error) {
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, prefix, deviceID), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	value, err := s.client.HGet(ctx, s.key, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("hget %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := s.client.HSet(ctx, s.key, key, value).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key, keys...).Err(); err != nil {
		return fmt.Errorf("hdel: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
