package session

import (
	"context"

	"newsagent/models"
)

// Store persists conversations keyed by session id. Entries expire after the
// configured TTL so an abandoned session cannot grow the store forever.
type Store interface {
	// Get returns the stored conversation, or models.ErrSessionNotFound.
	Get(ctx context.Context, id string) ([]models.Message, error)
	// Save stores the conversation under id and refreshes its TTL.
	Save(ctx context.Context, id string, messages []models.Message) error
}

type StoreType string

const (
	InMemoryStore StoreType = "inmemory"
	RedisStore    StoreType = "redis"
)
