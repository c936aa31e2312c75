package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"newsagent/config"
	"newsagent/models"
	"newsagent/session"
)

// Store persists conversations in Redis with a native TTL per key.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewStore connects to Redis and returns a conversation store.
func NewStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Redis.Host, cfg.Redis.Port, err)
	}
	return &Store{client: client, ttl: cfg.TTL}, nil
}

func key(id string) string { return "session:" + id }

func (s *Store) Get(ctx context.Context, id string) ([]models.Message, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if err == goredis.Nil {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	var messages []models.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return messages, nil
}

func (s *Store) Save(ctx context.Context, id string, messages []models.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}
	if err := s.client.Set(ctx, key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", id, err)
	}
	return nil
}
