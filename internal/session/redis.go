package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:v1:"

// RedisStore keeps the token pair in Redis so a terminal restart does not
// force a fresh login.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store namespaced by terminal identifier.
func NewRedisStore(client *redis.Client, terminalID string) *RedisStore {
	return &RedisStore{client: client, key: keyPrefix + terminalID}
}

func (s *RedisStore) Get(ctx context.Context) (TokenPair, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return TokenPair{}, ErrNoSession
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("session lookup: %w", err)
	}

	var pair TokenPair
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		return TokenPair{}, fmt.Errorf("decode session: %w", err)
	}
	return pair, nil
}

func (s *RedisStore) Set(ctx context.Context, pair TokenPair) error {
	payload, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
