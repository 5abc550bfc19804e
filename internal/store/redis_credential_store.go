package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisCredentialKey = "peacock:session:credential"

// RedisCredentialStore is a session-scoped store whose expiry is a Redis TTL.
type RedisCredentialStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisCredentialStore(redisURL string, ttl time.Duration) (*RedisCredentialStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisCredentialStoreWithClient(client, ttl), nil
}

func NewRedisCredentialStoreWithClient(client *redis.Client, ttl time.Duration) *RedisCredentialStore {
	return &RedisCredentialStore{client: client, key: defaultRedisCredentialKey, ttl: ttl}
}

func (s *RedisCredentialStore) Load(ctx context.Context) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load session credential: %w", err)
	}
	return value, value != "", nil
}

func (s *RedisCredentialStore) Save(ctx context.Context, credential string) error {
	credential, err := normalizeCredential(credential)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, credential, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session credential: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session credential: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Close() error {
	return s.client.Close()
}
